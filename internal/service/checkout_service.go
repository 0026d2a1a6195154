package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
)

// EventOrderCompleted is the outbox event type written for every
// successfully checked-out order.
const EventOrderCompleted = "order.completed"

// CheckoutService finalizes orders with a simulated payment.
type CheckoutService struct {
	store repository.Store
}

func NewCheckoutService(store repository.Store) *CheckoutService {
	return &CheckoutService{store: store}
}

// ProcessCheckout runs the checkout transaction on an order the caller has
// already resolved and ownership-checked: eligibility check, simulated
// payment, pending -> processing -> completed, then one atomic commit of
// order, payment and the order-completed outbox event.
//
// Checkout is deliberately not idempotent: a second call on a completed
// order fails with domain.ErrNotEligible.
func (s *CheckoutService) ProcessCheckout(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if !order.CanBeCheckedOut() {
		return nil, domain.ErrNotEligible
	}

	// The simulated payment method always succeeds.
	payment := domain.NewPayment(order.Total)
	payment.MarkCompleted()
	order.SetPayment(payment)

	if err := order.TransitionTo(domain.OrderStatusProcessing); err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentStatusCompleted {
		if err := order.TransitionTo(domain.OrderStatusCompleted); err != nil {
			return nil, err
		}
	}

	event, err := orderCompletedEvent(order)
	if err != nil {
		return nil, err
	}

	if err := s.store.CompleteCheckout(ctx, order, event); err != nil {
		return nil, err
	}
	return order, nil
}

func orderCompletedEvent(order *domain.Order) (*repository.OutboxEvent, error) {
	payload := map[string]interface{}{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"subtotal":     order.Subtotal,
		"tax":          order.Tax,
		"total":        order.Total,
		"completed_at": order.UpdatedAt,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout payload: %w", err)
	}

	return &repository.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: order.ID.String(),
		EventType:   EventOrderCompleted,
		Payload:     payloadJSON,
		CreatedAt:   time.Now(),
	}, nil
}
