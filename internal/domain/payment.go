package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethodSimulated is the only supported method; no real gateway exists.
const PaymentMethodSimulated = "simulated"

// Payment represents the single payment attached to an order.
// It is created once during checkout and immutable afterwards except
// for its status.
type Payment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Status      PaymentStatus
	Method      string
	Amount      decimal.Decimal
	ProcessedAt *time.Time
}

// NewPayment creates a pending simulated payment for the given amount,
// which equals the order total at creation time.
func NewPayment(amount decimal.Decimal) *Payment {
	return &Payment{
		ID:     uuid.New(),
		Status: PaymentStatusPending,
		Method: PaymentMethodSimulated,
		Amount: amount,
	}
}

// MarkCompleted moves the payment to completed. The processed timestamp is
// set exactly once, on the first transition into a terminal status.
func (p *Payment) MarkCompleted() {
	p.Status = PaymentStatusCompleted
	p.stampProcessed()
}

// MarkFailed moves the payment to failed.
func (p *Payment) MarkFailed() {
	p.Status = PaymentStatusFailed
	p.stampProcessed()
}

func (p *Payment) stampProcessed() {
	if p.ProcessedAt == nil {
		now := time.Now()
		p.ProcessedAt = &now
	}
}
