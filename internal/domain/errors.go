package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrInvalidProduct  = errors.New("invalid product")

	// ErrStockConflict is returned by the conditional decrement when the row
	// no longer holds enough stock.
	ErrStockConflict = errors.New("stock no longer sufficient")

	// ErrDuplicateOrderID is returned by order storage when the generated id
	// already exists.
	ErrDuplicateOrderID = errors.New("duplicate order id")
)

type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Remaining   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s, only %d left", e.ProductName, e.Remaining)
}

// PersistenceError means the order row could not be written.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to record order: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// StockUpdateError describes a line whose stock could not be decremented
// after the order was recorded. It is logged, never returned to customers.
type StockUpdateError struct {
	OrderID   string
	ProductID uuid.UUID
	Quantity  int
	Err       error
}

func (e *StockUpdateError) Error() string {
	return fmt.Sprintf("stock update failed for product %s (order %s, qty %d): %v", e.ProductID, e.OrderID, e.Quantity, e.Err)
}

func (e *StockUpdateError) Unwrap() error { return e.Err }
