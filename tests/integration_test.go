package tests

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/adapter/storage"
	"github.com/lbn97/ministore/internal/core/domain"
	"github.com/lbn97/ministore/internal/core/service"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	catalog *service.CatalogService
	orders  *service.OrderService
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "storeuser:storepassword@tcp(localhost:3306)/store_db?parseTime=true&charset=utf8mb4"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	logger := zerolog.Nop()
	store := storage.NewMySQLStore(db)
	cache := storage.NewRedisCache(rdb)
	invalidator := service.NewCacheInvalidator(cache, logger)

	return &testEnv{
		redis:   rdb,
		mysql:   db,
		catalog: service.NewCatalogService(store, cache, invalidator, logger),
		orders:  service.NewOrderService(store, invalidator, logger),
		cleanup: func() {
			cache.DeleteByPrefix(context.Background(), "products:search:")
			rdb.Close()
			db.Close()
		},
	}
}

func (env *testEnv) insertProduct(t *testing.T, name string, price float64, stock int) int64 {
	t.Helper()

	res, err := env.mysql.ExecContext(context.Background(), `
		INSERT INTO products (merchant_id, category_id, name, price, stock, status)
		VALUES (1, 0, ?, ?, ?, 'active')`, name, price, stock)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	id, _ := res.LastInsertId()

	t.Cleanup(func() {
		env.mysql.Exec(`DELETE FROM order_items WHERE product_id = ?`, id)
		env.mysql.Exec(`DELETE FROM products WHERE id = ?`, id)
		env.redis.Del(context.Background(), "product:"+strconv.FormatInt(id, 10))
	})
	return id
}

func TestIntegration_CacheAsideSearch(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	marker := uuid.New().String()
	env.insertProduct(t, "integration-"+marker, 120.00, 5)

	q := domain.SearchQuery{Term: marker}

	first, cached, err := env.catalog.Search(ctx, q)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	if cached {
		t.Error("first search must miss the cache")
	}
	if len(first.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(first.Products))
	}

	second, cached, err := env.catalog.Search(ctx, q)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if !cached {
		t.Error("second search must hit the cache")
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Error("cache hit payload differs from the miss payload")
	}
}

func TestIntegration_OrderInvalidatesDetailCache(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	userID := time.Now().UnixNano()
	productID := env.insertProduct(t, "invalidate-"+uuid.New().String(), 899.00, 10)

	// Warm the detail cache with the pre-order stock.
	detail, _, err := env.catalog.GetDetail(ctx, productID)
	if err != nil {
		t.Fatalf("warm detail: %v", err)
	}
	if detail.Product.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", detail.Product.Stock)
	}

	order, err := env.orders.Create(ctx, userID,
		[]domain.OrderItem{{ProductID: productID, Quantity: 3}}, nil, "")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	t.Cleanup(func() {
		env.mysql.Exec(`DELETE FROM order_items WHERE order_id = ?`, order.ID)
		env.mysql.Exec(`DELETE FROM orders WHERE id = ?`, order.ID)
	})

	if order.TotalAmount != 899.00*3 {
		t.Errorf("expected total %v, got %v", 899.00*3, order.TotalAmount)
	}

	// The stale entry must be gone: the next read misses and sees the
	// deducted stock.
	detail, cached, err := env.catalog.GetDetail(ctx, productID)
	if err != nil {
		t.Fatalf("detail after order: %v", err)
	}
	if cached {
		t.Error("detail read after an order must not be served from cache")
	}
	if detail.Product.Stock != 7 {
		t.Errorf("expected stock 7 after order, got %d", detail.Product.Stock)
	}
}

func TestIntegration_ConcurrentLastUnit(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	productID := env.insertProduct(t, "lastunit-"+uuid.New().String(), 50.00, 1)

	const attempts = 5
	var successCount atomic.Int32
	var wg sync.WaitGroup

	baseUser := time.Now().UnixNano()
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			order, err := env.orders.Create(ctx, userID,
				[]domain.OrderItem{{ProductID: productID, Quantity: 1}}, nil, "")
			if err == nil {
				successCount.Add(1)
				env.mysql.Exec(`DELETE FROM order_items WHERE order_id = ?`, order.ID)
				env.mysql.Exec(`DELETE FROM orders WHERE id = ?`, order.ID)
			}
		}(baseUser + int64(i))
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successCount.Load())
	}

	var stock int
	env.mysql.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
	if stock != 0 {
		t.Errorf("expected stock 0, got %d", stock)
	}
}
