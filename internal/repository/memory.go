package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
)

// MemoryStore implements Store with mutex-guarded in-memory maps.
// It backs unit tests and the dependency-free dev mode; the postgres
// store is the production implementation.
type MemoryStore struct {
	mu            sync.RWMutex
	products      map[int64]*domain.Product
	orders        map[uuid.UUID]*domain.Order
	outbox        []*OutboxEvent
	nextProductID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:      make(map[int64]*domain.Product),
		orders:        make(map[uuid.UUID]*domain.Order),
		nextProductID: 1,
	}
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	return copyProduct(product), nil
}

func (s *MemoryStore) ListProducts(_ context.Context, params ProductListParams) ([]*domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Product
	search := strings.ToLower(params.Search)
	for _, p := range s.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, p)
	}

	sortProducts(matched, params.SortField, params.SortDir)

	total := len(matched)
	start := (params.Page - 1) * params.Limit
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	page := make([]*domain.Product, 0, end-start)
	for _, p := range matched[start:end] {
		page = append(page, copyProduct(p))
	}
	return page, total, nil
}

func sortProducts(products []*domain.Product, field, dir string) {
	desc := strings.EqualFold(dir, "desc")
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if desc {
			a, b = b, a
		}
		switch field {
		case "name":
			return a.Name < b.Name
		case "price":
			return a.Price.LessThan(b.Price)
		case "stock":
			return a.Stock < b.Stock
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
}

func (s *MemoryStore) CreateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = s.nextProductID
	s.nextProductID++
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = copyProduct(product)
	return nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return &domain.ProductNotFoundError{ProductID: product.ID}
	}
	product.UpdatedAt = time.Now()
	s.products[product.ID] = copyProduct(product)
	return nil
}

// CreateOrder validates every line against current stock before mutating
// anything, so a failure on any line leaves all stock untouched. The
// validation is cumulative per product: two lines for the same product must
// be covered together.
func (s *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check existence and availability, tracking quantities
	// already claimed by earlier lines of this order.
	claimed := make(map[int64]int)
	for _, item := range order.Items {
		product, exists := s.products[item.ProductID]
		if !exists {
			return &domain.ProductNotFoundError{ProductID: item.ProductID}
		}
		available := product.Stock - claimed[item.ProductID]
		if available < item.Quantity {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   available,
				Requested:   item.Quantity,
			}
		}
		claimed[item.ProductID] += item.Quantity
	}

	// Second pass: apply the decrements.
	for _, item := range order.Items {
		if err := s.products[item.ProductID].DecreaseStock(item.Quantity); err != nil {
			return err
		}
	}

	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (s *MemoryStore) ListAllOrders(_ context.Context) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listOrders(func(*domain.Order) bool { return true }), nil
}

func (s *MemoryStore) ListOrdersByCustomer(_ context.Context, customerID string) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listOrders(func(o *domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *MemoryStore) listOrders(match func(*domain.Order) bool) []*domain.Order {
	var orders []*domain.Order
	for _, o := range s.orders {
		if match(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	// Newest first, matching the postgres ORDER BY created_at DESC.
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (s *MemoryStore) CompleteCheckout(_ context.Context, order *domain.Order, event *OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.orders[order.ID]
	if !exists {
		return ErrOrderNotFound
	}
	if stored.Status != domain.OrderStatusPending {
		return domain.ErrNotEligible
	}
	if stored.Payment != nil {
		return ErrDuplicatePayment
	}

	s.orders[order.ID] = copyOrder(order)

	e := *event
	s.outbox = append(s.outbox, &e)
	return nil
}

func (s *MemoryStore) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*OutboxEvent
	for _, event := range s.outbox {
		if event.ProcessedAt != nil {
			continue
		}
		e := *event
		events = append(events, &e)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *MemoryStore) MarkEventAsProcessed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range s.outbox {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyProduct(p *domain.Product) *domain.Product {
	cp := *p
	return &cp
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]*domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		itemCopy := *item
		cp.Items[i] = &itemCopy
	}
	if o.Payment != nil {
		paymentCopy := *o.Payment
		cp.Payment = &paymentCopy
	}
	return &cp
}
