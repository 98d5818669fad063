package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/lbn97/ministore/internal/core/domain"
	"github.com/lbn97/ministore/internal/metrics"
	"github.com/lbn97/ministore/internal/port"
)

const orderNoAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// OrderService creates orders atomically against the store and invalidates
// product cache entries after a successful commit.
type OrderService struct {
	orders      port.OrderRepository
	invalidator *CacheInvalidator
	logger      zerolog.Logger
}

func NewOrderService(orders port.OrderRepository, invalidator *CacheInvalidator, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders:      orders,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Create validates the request, then either creates a fully consistent order
// with stock deducted from every referenced product, or changes nothing.
func (s *OrderService) Create(ctx context.Context, userID int64, items []domain.OrderItem, addressID *int64, paymentMethod string) (*domain.Order, error) {
	if userID == 0 {
		metrics.OrdersRejected.WithLabelValues("validation").Inc()
		return nil, &domain.ValidationError{Reason: "user id is required"}
	}
	if len(items) == 0 {
		metrics.OrdersRejected.WithLabelValues("validation").Inc()
		return nil, &domain.ValidationError{Reason: "order has no items"}
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			metrics.OrdersRejected.WithLabelValues("validation").Inc()
			return nil, &domain.ValidationError{Reason: "item has no product id"}
		}
		if item.Quantity <= 0 {
			metrics.OrdersRejected.WithLabelValues("validation").Inc()
			return nil, &domain.ValidationError{
				Reason: fmt.Sprintf("quantity for product %d must be positive", item.ProductID),
			}
		}
	}

	order := &domain.Order{
		OrderNo:       newOrderNo(),
		UserID:        userID,
		Status:        domain.OrderStatusPending,
		AddressID:     addressID,
		PaymentMethod: paymentMethod,
		CreatedAt:     time.Now(),
	}

	if err := s.orders.CreateOrder(ctx, order, items); err != nil {
		var notFound *domain.ProductNotFoundError
		var noStock *domain.InsufficientStockError
		switch {
		case errors.As(err, &notFound):
			metrics.OrdersRejected.WithLabelValues("not_found").Inc()
		case errors.As(err, &noStock):
			metrics.OrdersRejected.WithLabelValues("stock").Inc()
		default:
			metrics.OrdersRejected.WithLabelValues("internal").Inc()
		}
		return nil, err
	}

	// The commit already happened; invalidation and logging stay outside
	// the transaction and never fail the order.
	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	s.invalidator.InvalidateProducts(ctx, productIDs...)

	metrics.OrdersCreated.Inc()
	s.logger.Info().
		Str("order_no", order.OrderNo).
		Float64("total", order.TotalAmount).
		Int("items", len(order.Lines)).
		Msg("order created")

	return order, nil
}

// ListUserOrders returns a user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, status domain.OrderStatus, page, limit int) ([]domain.Order, error) {
	if userID == 0 {
		return nil, &domain.ValidationError{Reason: "user id is required"}
	}
	if status != "" && !domain.ValidOrderStatus(status) {
		return nil, &domain.ValidationError{Reason: "invalid order status"}
	}

	orders, err := s.orders.ListUserOrders(ctx, userID, status, page, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateStatus moves an order along its status progression.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if !domain.ValidOrderStatus(status) {
		return &domain.ValidationError{Reason: "invalid order status"}
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}

	s.logger.Info().Int64("order_id", orderID).Str("status", string(status)).Msg("order status updated")
	return nil
}

// newOrderNo builds a human-readable order number from the current
// millisecond timestamp and a random suffix. Collisions are treated as
// negligible; there is no retry against the store.
func newOrderNo() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderNoAlphabet[rand.Intn(len(orderNoAlphabet))]
	}
	return fmt.Sprintf("ORD%d%s", time.Now().UnixMilli(), suffix)
}
