package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotEligible is returned when checkout is attempted on an order
	// that is not pending or has no line items.
	ErrNotEligible = errors.New("order cannot be checked out: check order status and items")

	// ErrIllegalTransition is returned for a status move the ladder forbids.
	ErrIllegalTransition = errors.New("illegal order status transition")
)

// ProductNotFoundError reports a reference to a product id that does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with id %d not found", e.ProductID)
}

// InsufficientStockError reports a requested quantity exceeding available stock.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// ValidationError reports malformed input that slipped past the boundary layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
