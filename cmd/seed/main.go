// Command seed creates the storefront schema and loads sample catalog data
// for local development.
package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/adapter/storage"
	"github.com/lbn97/ministore/internal/config"
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
	logger.Info().Msg("schema ready")

	// Clear existing data in dependency order, then reseed.
	for _, table := range []string{"order_items", "orders", "product_reviews", "products", "categories", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			logger.Fatal().Err(err).Str("table", table).Msg("failed to clear table")
		}
	}

	merchantID := mustInsert(ctx, logger, db,
		`INSERT INTO users (email, password_hash, name, role, phone) VALUES (?, ?, ?, ?, ?)`,
		"shop@electronics.test", "x", "Electronics Flagship Store", "merchant", "13800000002")
	customerID := mustInsert(ctx, logger, db,
		`INSERT INTO users (email, password_hash, name, role, phone) VALUES (?, ?, ?, ?, ?)`,
		"customer@example.test", "x", "Sample Customer", "customer", "13800000010")

	electronics := mustInsert(ctx, logger, db,
		`INSERT INTO categories (name, description, sort_order) VALUES (?, ?, ?)`,
		"Electronics", "Phones, laptops and accessories", 1)
	home := mustInsert(ctx, logger, db,
		`INSERT INTO categories (name, description, sort_order) VALUES (?, ?, ?)`,
		"Home & Living", "Furniture and kitchenware", 2)

	type sample struct {
		category      int64
		name          string
		description   string
		price         float64
		originalPrice interface{}
		stock         int
		sales         int
	}
	samples := []sample{
		{electronics, "Wireless Earbuds Pro", "Noise cancelling, 30h battery", 499.00, 599.00, 200, 1520},
		{electronics, "14in Ultrabook", "16GB RAM, 512GB SSD", 5999.00, nil, 35, 480},
		{electronics, "Smart Watch S3", "Heart rate and sleep tracking", 899.00, 999.00, 120, 860},
		{home, "Ceramic Dinner Set", "24 pieces, dishwasher safe", 259.00, nil, 80, 310},
		{home, "Ergonomic Office Chair", "Adjustable lumbar support", 1299.00, 1599.00, 15, 95},
	}

	for _, s := range samples {
		productID := mustInsert(ctx, logger, db, `
			INSERT INTO products (merchant_id, category_id, name, description, price,
			                      original_price, stock, sales_count, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'active')`,
			merchantID, s.category, s.name, s.description, s.price, s.originalPrice, s.stock, s.sales)

		mustInsert(ctx, logger, db,
			`INSERT INTO product_reviews (product_id, user_id, rating, content) VALUES (?, ?, ?, ?)`,
			productID, customerID, 5, "Great value for the price")
	}

	logger.Info().Int("products", len(samples)).Msg("seed complete")
}

func mustInsert(ctx context.Context, logger zerolog.Logger, db *sql.DB, query string, args ...interface{}) int64 {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Fatal().Err(err).Str("query", query).Msg("seed insert failed")
	}
	id, err := res.LastInsertId()
	if err != nil {
		logger.Fatal().Err(err).Msg("seed insert id")
	}
	return id
}
