// Command stress fires concurrent orders at a freshly seeded product and
// verifies that stock is never over-drawn.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/adapter/storage"
	"github.com/lbn97/ministore/internal/config"
	"github.com/lbn97/ministore/internal/core/domain"
	"github.com/lbn97/ministore/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open mysql")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mysql")
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to create schema")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	// Fresh product per run so repeated runs don't interfere.
	name := "stress-item-" + uuid.New().String()
	res, err := db.ExecContext(ctx, `
		INSERT INTO products (merchant_id, category_id, name, price, stock, status)
		VALUES (1, 0, ?, 10.00, ?, 'active')`, name, initialStock)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed product")
	}
	productID, _ := res.LastInsertId()

	store := storage.NewMySQLStore(db)
	cache := storage.NewRedisCache(rdb)
	invalidator := service.NewCacheInvalidator(cache, logger)
	orderService := service.NewOrderService(store, invalidator, logger)

	var successCount, failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()

			_, err := orderService.Create(ctx, userID,
				[]domain.OrderItem{{ProductID: productID, Quantity: 1}}, nil, "")
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(int64(i + 1))
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && fail == totalRequests-initialStock {
		fmt.Printf("PASS: exactly %d orders succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	var finalStock int
	db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&finalStock)
	fmt.Printf("Final Stock: %d\n", finalStock)

	if finalStock == 0 {
		fmt.Println("PASS: stock depleted to 0")
	} else {
		fmt.Printf("FAIL: expected stock 0, got %d\n", finalStock)
	}
}
