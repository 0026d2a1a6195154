package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/macaicedo13/Ecommerce-api-test/internal/cache"
	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
)

// OrderLine is one requested (product, quantity) pair of an order-creation
// request, already shape-validated by the boundary layer.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// OrderService owns the order-creation transaction and order lookups.
type OrderService struct {
	store repository.Store
	cache cache.ProductCache
}

func NewOrderService(store repository.Store, productCache cache.ProductCache) *OrderService {
	return &OrderService{
		store: store,
		cache: productCache,
	}
}

// CreateOrder builds and persists an order for the customer as one
// all-or-nothing unit: every line is resolved against the catalog, stock is
// checked and decremented, unit prices are frozen, totals computed, and the
// whole result committed in a single transaction. Any failing line leaves
// no partial effect: no stock stays decremented and no order is persisted.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, lines []OrderLine) (*domain.Order, error) {
	if customerID == "" {
		return nil, &domain.ValidationError{Field: "customerId", Reason: "customer id is required"}
	}
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, &domain.ValidationError{Field: "quantity", Reason: "quantity must be greater than 0"}
		}
	}

	order := domain.NewOrder(customerID)

	// claimed tracks quantities taken by earlier lines of this request, so
	// two lines for the same product are checked against the remainder.
	claimed := make(map[int64]int)
	for _, line := range lines {
		// Read the product from the store, not the cache: the price snapshot
		// and the stock precheck must see current data.
		product, err := s.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}

		available := product.Stock - claimed[line.ProductID]
		if available < line.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   available,
				Requested:   line.Quantity,
			}
		}
		claimed[line.ProductID] += line.Quantity

		order.AddItem(domain.NewOrderItem(product, line.Quantity))
	}

	order.CalculateTotals()

	// The store re-checks stock with conditional decrements inside the
	// transaction; the precheck above only fails fast. A concurrent order
	// winning the race surfaces here as InsufficientStockError.
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.invalidateProducts(order)
	return order, nil
}

// FindByID loads an order with its items and payment.
func (s *OrderService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// ListAll returns every order, newest first (admin scope).
func (s *OrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.store.ListAllOrders(ctx)
}

// ListByCustomer returns the customer's orders, newest first.
func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.store.ListOrdersByCustomer(ctx, customerID)
}

// ValidateOwnership reports whether the order belongs to the customer.
func (s *OrderService) ValidateOwnership(order *domain.Order, customerID string) bool {
	return order.CustomerID == customerID
}

func (s *OrderService) invalidateProducts(order *domain.Order) {
	if s.cache == nil {
		return
	}
	for _, item := range order.Items {
		if err := s.cache.Delete(context.Background(), item.ProductID); err != nil {
			log.Printf("cache delete error: %v", err)
		}
	}
}
