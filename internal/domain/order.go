package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// TaxRate is the fixed tax rate applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.15")

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the status ladder allows moving to next.
// The ladder only moves forward: pending -> processing -> completed.
// Cancellation is allowed from any non-terminal state and is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return !s.IsTerminal()
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing
	case OrderStatusProcessing:
		return next == OrderStatusCompleted
	default:
		return false
	}
}

// OrderItem is one line within an order. The unit price is a point-in-time
// copy of the product price taken at order-creation time, never a live
// reference; later product price changes do not alter existing orders.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// NewOrderItem builds a line item for the given product, freezing the
// current product price as the item's unit price.
func NewOrderItem(product *Product, quantity int) *OrderItem {
	return &OrderItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Order represents a customer order and owns its line items.
type Order struct {
	ID         uuid.UUID
	CustomerID string
	Status     OrderStatus
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	Items      []*OrderItem
	Payment    *Payment
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewOrder(customerID string) *Order {
	now := time.Now()
	return &Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     OrderStatusPending,
		Subtotal:   decimal.Zero,
		Tax:        decimal.Zero,
		Total:      decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddItem appends a line item and sets its back-reference to the order.
// Adding the same product twice yields two separate line items; lines are
// never merged by product.
func (o *Order) AddItem(item *OrderItem) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
}

// CalculateTotals recomputes subtotal, tax and total from the line items.
// Rounding to 2 decimal places happens once here, not per intermediate
// operation, and total = subtotal + tax holds exactly.
func (o *Order) CalculateTotals() {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.Subtotal)
	}
	o.Subtotal = sum.Round(2)
	o.Tax = sum.Mul(TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax)
	o.UpdatedAt = time.Now()
}

// CanBeModified reports whether the order still accepts changes.
func (o *Order) CanBeModified() bool {
	return o.Status == OrderStatusPending
}

// CanBeCheckedOut reports whether the order is eligible for checkout:
// it must be pending and have at least one line item.
func (o *Order) CanBeCheckedOut() bool {
	return o.Status == OrderStatusPending && len(o.Items) > 0
}

// TransitionTo advances the order status, rejecting any move the status
// ladder does not allow.
func (o *Order) TransitionTo(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrIllegalTransition
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return nil
}

// SetPayment attaches the payment and sets its back-reference.
func (o *Order) SetPayment(payment *Payment) {
	o.Payment = payment
	if payment != nil {
		payment.OrderID = o.ID
	}
}
