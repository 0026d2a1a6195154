package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicatePayment = errors.New("payment for this order already exists")
)

// Credentials holds postgres connection settings.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// ProductListParams controls catalog listing: search filter, whitelisted
// sort field/direction and 1-based pagination.
type ProductListParams struct {
	Search    string
	SortField string
	SortDir   string
	Page      int
	Limit     int
}

// OutboxEvent is a pending domain event written in the same transaction as
// the state change it describes, published later by the outbox poller.
type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Store is the persistence boundary for the catalog, orders and payments.
//
// CreateOrder and CompleteCheckout are transactional: either every mutation
// they cover commits together, or none does.
type Store interface {
	// GetProduct looks a product up by id, returning a
	// *domain.ProductNotFoundError when absent.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, params ProductListParams) ([]*domain.Product, int, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error

	// CreateOrder persists the order with its line items and decrements the
	// stock of every referenced product as one atomic unit. Each decrement is
	// conditional on sufficient stock; any failing line aborts the whole
	// order and leaves all stock untouched.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)

	// CompleteCheckout persists the order status change, its payment and the
	// outbox event together. It fails with domain.ErrNotEligible when the
	// stored order is no longer pending, guarding against double checkout.
	CompleteCheckout(ctx context.Context, order *domain.Order, event *OutboxEvent) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error

	Close() error
}
