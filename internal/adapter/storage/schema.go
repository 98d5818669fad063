package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the storefront tables in dependency order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(64) NOT NULL,
		name VARCHAR(100) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'customer',
		phone VARCHAR(20),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		parent_id BIGINT NULL,
		description TEXT,
		sort_order INT NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		merchant_id BIGINT NOT NULL,
		category_id BIGINT NOT NULL DEFAULT 0,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		price DECIMAL(10,2) NOT NULL,
		original_price DECIMAL(10,2) NULL,
		stock INT NOT NULL DEFAULT 0,
		image_url VARCHAR(500),
		sales_count INT NOT NULL DEFAULT 0,
		status VARCHAR(10) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		KEY idx_products_listing (status, sales_count, created_at),
		KEY idx_products_merchant (merchant_id),
		CONSTRAINT chk_products_stock CHECK (stock >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS product_reviews (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		rating INT NOT NULL,
		content TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		KEY idx_reviews_product (product_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_no VARCHAR(32) NOT NULL UNIQUE,
		user_id BIGINT NOT NULL,
		total_amount DECIMAL(10,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		shipping_address_id BIGINT NULL,
		payment_method VARCHAR(30),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		KEY idx_orders_user (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		product_name VARCHAR(200) NOT NULL,
		product_price DECIMAL(10,2) NOT NULL,
		quantity INT NOT NULL,
		subtotal DECIMAL(10,2) NOT NULL,
		KEY idx_order_items_order (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates every storefront table that does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
