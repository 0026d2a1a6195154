package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
)

func newStoredProduct(t *testing.T, store *MemoryStore, name, price string, stock int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, store.CreateProduct(context.Background(), product))
	return product
}

func newPendingOrder(product *domain.Product, quantity int) *domain.Order {
	order := domain.NewOrder("customer123")
	order.AddItem(domain.NewOrderItem(product, quantity))
	order.CalculateTotals()
	return order
}

func TestMemoryStore_CreateAndGetProduct(t *testing.T) {
	store := NewMemoryStore()
	product := newStoredProduct(t, store, "Laptop", "1299.99", 25)

	assert.NotZero(t, product.ID)

	got, err := store.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, 25, got.Stock)

	// Mutating the returned copy must not touch the stored product.
	got.Stock = 0
	again, err := store.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, again.Stock)
}

func TestMemoryStore_GetProduct_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetProduct(context.Background(), 7)

	var notFound *domain.ProductNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryStore_CreateOrder_DecrementsStock(t *testing.T) {
	store := NewMemoryStore()
	product := newStoredProduct(t, store, "Mouse", "29.99", 10)

	require.NoError(t, store.CreateOrder(context.Background(), newPendingOrder(product, 3)))

	got, err := store.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
}

func TestMemoryStore_CreateOrder_FailingLineLeavesNoPartialEffect(t *testing.T) {
	store := NewMemoryStore()
	first := newStoredProduct(t, store, "Keyboard", "89.99", 50)
	second := newStoredProduct(t, store, "Monitor", "399.99", 2)

	order := domain.NewOrder("customer123")
	order.AddItem(domain.NewOrderItem(first, 5))
	order.AddItem(domain.NewOrderItem(second, 3))
	order.CalculateTotals()

	err := store.CreateOrder(context.Background(), order)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(second.ID), stockErr.ProductID)

	firstStored, _ := store.GetProduct(context.Background(), first.ID)
	secondStored, _ := store.GetProduct(context.Background(), second.ID)
	assert.Equal(t, 50, firstStored.Stock)
	assert.Equal(t, 2, secondStored.Stock)

	_, err = store.GetOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryStore_CreateOrder_CumulativeLines(t *testing.T) {
	store := NewMemoryStore()
	product := newStoredProduct(t, store, "Hub", "45.99", 5)

	order := domain.NewOrder("customer123")
	order.AddItem(domain.NewOrderItem(product, 3))
	order.AddItem(domain.NewOrderItem(product, 3))
	order.CalculateTotals()

	err := store.CreateOrder(context.Background(), order)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	stored, _ := store.GetProduct(context.Background(), product.ID)
	assert.Equal(t, 5, stored.Stock)
}

func TestMemoryStore_GetOrder_ReturnsDeepCopy(t *testing.T) {
	store := NewMemoryStore()
	product := newStoredProduct(t, store, "SSD", "149.99", 45)
	order := newPendingOrder(product, 2)
	require.NoError(t, store.CreateOrder(context.Background(), order))

	got, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	got.Status = domain.OrderStatusCancelled
	got.Items[0].Quantity = 999

	again, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, again.Status)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestMemoryStore_CompleteCheckout_GuardsPendingStatus(t *testing.T) {
	store := NewMemoryStore()
	product := newStoredProduct(t, store, "Webcam", "59.99", 60)
	order := newPendingOrder(product, 1)
	require.NoError(t, store.CreateOrder(context.Background(), order))

	payment := domain.NewPayment(order.Total)
	payment.MarkCompleted()
	order.SetPayment(payment)
	require.NoError(t, order.TransitionTo(domain.OrderStatusProcessing))
	require.NoError(t, order.TransitionTo(domain.OrderStatusCompleted))

	event := &OutboxEvent{
		ID:          uuid.New(),
		AggregateID: order.ID.String(),
		EventType:   "order.completed",
		Payload:     []byte(`{}`),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.CompleteCheckout(context.Background(), order, event))

	// A second commit for the same order fails: it is no longer pending.
	err := store.CompleteCheckout(context.Background(), order, event)
	assert.ErrorIs(t, err, domain.ErrNotEligible)
}

func TestMemoryStore_Outbox(t *testing.T) {
	store := NewMemoryStore()
	product := newStoredProduct(t, store, "Lamp", "34.99", 40)
	order := newPendingOrder(product, 1)
	require.NoError(t, store.CreateOrder(context.Background(), order))

	payment := domain.NewPayment(order.Total)
	payment.MarkCompleted()
	order.SetPayment(payment)
	require.NoError(t, order.TransitionTo(domain.OrderStatusProcessing))
	require.NoError(t, order.TransitionTo(domain.OrderStatusCompleted))

	event := &OutboxEvent{
		ID:          uuid.New(),
		AggregateID: order.ID.String(),
		EventType:   "order.completed",
		Payload:     []byte(`{"order_id":"x"}`),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.CompleteCheckout(context.Background(), order, event))

	events, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, store.MarkEventAsProcessed(context.Background(), event.ID))

	events, err = store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemoryStore_ListProducts_SortAndPaginate(t *testing.T) {
	store := NewMemoryStore()
	newStoredProduct(t, store, "Charlie", "30.00", 3)
	newStoredProduct(t, store, "Alpha", "10.00", 1)
	newStoredProduct(t, store, "Bravo", "20.00", 2)

	products, total, err := store.ListProducts(context.Background(), ProductListParams{
		SortField: "name",
		SortDir:   "asc",
		Page:      1,
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Alpha", products[0].Name)
	assert.Equal(t, "Bravo", products[1].Name)

	products, _, err = store.ListProducts(context.Background(), ProductListParams{
		SortField: "price",
		SortDir:   "desc",
		Page:      1,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Charlie", products[0].Name)
}
