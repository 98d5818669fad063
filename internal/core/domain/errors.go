package domain

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned when an order id matches no row.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError rejects a request before any transaction opens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ProductNotFoundError aborts an order when a referenced product row
// does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError aborts an order when a product cannot cover the
// requested quantity.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
