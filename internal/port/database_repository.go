package port

import (
	"context"

	"github.com/lbn97/ministore/internal/core/domain"
)

type ProductRepository interface {
	// SearchProducts returns one page of active products plus the total
	// count for the same filter predicate
	SearchProducts(ctx context.Context, q domain.SearchQuery) ([]domain.Product, int, error)

	// GetProductDetail returns an active product with its latest reviews,
	// or nil if absent
	GetProductDetail(ctx context.Context, id int64) (*domain.ProductDetail, error)

	// ListCategories returns all categories ordered by sort order
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// ListMerchantProducts returns a merchant's products regardless of status
	ListMerchantProducts(ctx context.Context, merchantID int64, page, limit int) ([]domain.Product, int, error)

	// CreateProduct inserts a product and fills its generated id
	CreateProduct(ctx context.Context, p *domain.Product) error

	// UpdateProduct applies non-nil patch fields to a product owned by merchantID
	UpdateProduct(ctx context.Context, id, merchantID int64, patch domain.ProductPatch) error

	// DeactivateProduct soft-deletes a product owned by merchantID
	DeactivateProduct(ctx context.Context, id, merchantID int64) error
}

type OrderRepository interface {
	// CreateOrder locks every referenced product row, validates and deducts
	// stock, and persists the order with its lines as one transaction.
	// On success it fills the order's id, total amount and lines.
	CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error

	// ListUserOrders returns a user's orders, newest first
	ListUserOrders(ctx context.Context, userID int64, status domain.OrderStatus, page, limit int) ([]domain.Order, error)

	// UpdateOrderStatus moves an order to the given status
	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error
}
