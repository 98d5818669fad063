package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/adapter/handler"
	"github.com/lbn97/ministore/internal/adapter/storage"
	"github.com/lbn97/ministore/internal/config"
	"github.com/lbn97/ministore/internal/core/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mysql")
	}
	logger.Info().Msg("connected to mysql")

	// Redis. The cache is advisory: an unreachable cache degrades reads to
	// always-miss, so startup continues on ping failure.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, serving without cache")
	} else {
		logger.Info().Msg("connected to redis")
	}

	// Adapters and services
	store := storage.NewMySQLStore(db)
	cache := storage.NewRedisCache(rdb)
	invalidator := service.NewCacheInvalidator(cache, logger)
	catalogService := service.NewCatalogService(store, cache, invalidator, logger)
	orderService := service.NewOrderService(store, invalidator, logger)

	httpHandler := handler.NewHTTPHandler(catalogService, orderService, logger)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info().Msg("HTTP server stopped")

	rdb.Close()
	db.Close()
	logger.Info().Msg("connections closed")
}
