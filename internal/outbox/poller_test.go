package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
)

type mockStore struct {
	events       []*repository.OutboxEvent
	fetchErr     error
	markErr      error
	processedIDs []uuid.UUID
}

func (m *mockStore) GetUnprocessedEvents(_ context.Context, _ int) ([]*repository.OutboxEvent, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	pending := make([]*repository.OutboxEvent, 0, len(m.events))
	for _, ev := range m.events {
		if ev.ProcessedAt == nil && !containsID(m.processedIDs, ev.ID) {
			pending = append(pending, ev)
		}
	}
	return pending, nil
}

func (m *mockStore) MarkEventAsProcessed(_ context.Context, id uuid.UUID) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.processedIDs = append(m.processedIDs, id)
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type mockPublisher struct {
	published []*repository.OutboxEvent
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, event *repository.OutboxEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, event)
	return nil
}

func newEvent(eventType string) *repository.OutboxEvent {
	return &repository.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: uuid.New().String(),
		EventType:   eventType,
		Payload:     []byte(`{"total":"230"}`),
	}
}

func TestPoller_PublishesAndMarksEvents(t *testing.T) {
	first := newEvent("order.completed")
	second := newEvent("order.completed")
	store := &mockStore{events: []*repository.OutboxEvent{first, second}}
	pub := &mockPublisher{}

	p := NewPoller(store, pub)
	p.processUnpublishedEvents(context.Background())

	require.Len(t, pub.published, 2)
	assert.Equal(t, first.ID, pub.published[0].ID)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, store.processedIDs)
}

func TestPoller_PublishFailureLeavesEventPending(t *testing.T) {
	event := newEvent("order.completed")
	store := &mockStore{events: []*repository.OutboxEvent{event}}
	pub := &mockPublisher{err: errors.New("broker unavailable")}

	p := NewPoller(store, pub)
	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, store.processedIDs)

	// Broker recovers, next tick drains the backlog.
	pub.err = nil
	p.processUnpublishedEvents(context.Background())

	require.Len(t, pub.published, 1)
	assert.Equal(t, []uuid.UUID{event.ID}, store.processedIDs)
}

func TestPoller_MarkFailureDoesNotStopBatch(t *testing.T) {
	first := newEvent("order.completed")
	store := &mockStore{
		events:  []*repository.OutboxEvent{first, newEvent("order.completed")},
		markErr: errors.New("connection reset"),
	}
	pub := &mockPublisher{}

	p := NewPoller(store, pub)
	p.processUnpublishedEvents(context.Background())

	// Both events were published even though marking failed.
	assert.Len(t, pub.published, 2)
	assert.Empty(t, store.processedIDs)
}

func TestPoller_FetchErrorIsTransient(t *testing.T) {
	store := &mockStore{fetchErr: errors.New("db down")}
	pub := &mockPublisher{}

	p := NewPoller(store, pub)
	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, pub.published)
}
