package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// ValidOrderStatus reports whether s is one of the enumerated order states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

type Order struct {
	ID            int64       `json:"id"`
	OrderNo       string      `json:"order_no"`
	UserID        int64       `json:"user_id"`
	TotalAmount   float64     `json:"total_amount"`
	Status        OrderStatus `json:"status"`
	AddressID     *int64      `json:"shipping_address_id,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	ItemCount     int         `json:"item_count,omitempty"`
	Lines         []OrderLine `json:"lines,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// OrderLine snapshots the product name and price at order time so later
// catalog edits never alter historical orders.
type OrderLine struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int     `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`
}

// OrderItem is one (product, quantity) request in an order submission.
type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}
