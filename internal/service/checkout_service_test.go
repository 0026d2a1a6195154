package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
)

func createPendingOrder(t *testing.T, store repository.Store) *domain.Order {
	t.Helper()
	product := seedProduct(t, store, "Laptop", "100.00", 10)
	order, err := NewOrderService(store, nil).CreateOrder(context.Background(), "customer123", []OrderLine{
		{ProductID: product.ID, Quantity: 3},
	})
	require.NoError(t, err)
	return order
}

func TestProcessCheckout_Success(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCheckoutService(store)
	order := createPendingOrder(t, store)

	completed, err := svc.ProcessCheckout(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusCompleted, completed.Status)
	require.NotNil(t, completed.Payment)
	assert.Equal(t, domain.PaymentStatusCompleted, completed.Payment.Status)
	assert.Equal(t, domain.PaymentMethodSimulated, completed.Payment.Method)
	assert.True(t, completed.Payment.Amount.Equal(completed.Total),
		"payment amount %s must equal order total %s", completed.Payment.Amount, completed.Total)
	assert.NotNil(t, completed.Payment.ProcessedAt)

	// The stored order carries the new status and payment.
	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, stored.Status)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, "345.00", stored.Payment.Amount.StringFixed(2))
}

func TestProcessCheckout_WritesOutboxEvent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCheckoutService(store)
	order := createPendingOrder(t, store)

	_, err := svc.ProcessCheckout(context.Background(), order)
	require.NoError(t, err)

	events, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventOrderCompleted, events[0].EventType)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "customer123", payload["customer_id"])
}

func TestProcessCheckout_NotIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCheckoutService(store)
	order := createPendingOrder(t, store)

	completed, err := svc.ProcessCheckout(context.Background(), order)
	require.NoError(t, err)

	// Second call on the completed order must fail without mutating anything.
	_, err = svc.ProcessCheckout(context.Background(), completed)
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, stored.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, stored.Payment.Status)
}

func TestProcessCheckout_StaleCopyLosesToStoreGuard(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCheckoutService(store)
	order := createPendingOrder(t, store)

	// Two handlers holding the same pending order: the second commit must
	// fail even though its in-memory copy still looks eligible.
	first, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	second, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.ProcessCheckout(context.Background(), first)
	require.NoError(t, err)

	_, err = svc.ProcessCheckout(context.Background(), second)
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	events, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestProcessCheckout_EmptyOrderNotEligible(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCheckoutService(store)

	order := domain.NewOrder("customer123")
	_, err := svc.ProcessCheckout(context.Background(), order)
	assert.ErrorIs(t, err, domain.ErrNotEligible)
}

func TestProcessCheckout_NonPendingOrderNotEligible(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCheckoutService(store)
	order := createPendingOrder(t, store)
	order.Status = domain.OrderStatusCancelled

	_, err := svc.ProcessCheckout(context.Background(), order)
	assert.ErrorIs(t, err, domain.ErrNotEligible)
}
