package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/macaicedo13/Ecommerce-api-test/internal/cache"
	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// PageMeta is the pagination metadata returned alongside catalog listings.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// ProductService handles catalog reads and admin catalog management.
type ProductService struct {
	store repository.Store
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewProductService(store repository.Store, productCache cache.ProductCache) *ProductService {
	return &ProductService{
		store: store,
		cache: productCache,
	}
}

// GetProduct is a cache-aside lookup. Cache failures are logged and the
// store answers; only the store is authoritative.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if s.cache == nil {
		return s.store.GetProduct(ctx, id)
	}

	v, err, _ := s.sfg.Do(cacheGroupKey(id), func() (interface{}, error) {
		product, cacheErr := s.cache.Get(ctx, id)
		if cacheErr == nil {
			return product, nil
		}
		if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", cacheErr)
		}

		product, getErr := s.store.GetProduct(ctx, id)
		if getErr != nil {
			return nil, getErr
		}

		go func() {
			if setErr := s.cache.Set(context.Background(), product); setErr != nil {
				log.Printf("cache set error: %v", setErr)
			}
		}()

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// ListProducts returns one catalog page plus pagination metadata. Page and
// limit are clamped, the sort parameter is parsed as "field:dir" against a
// whitelist.
func (s *ProductService) ListProducts(ctx context.Context, search string, page, limit int, sort string) ([]*domain.Product, PageMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	sortField, sortDir := parseSortParameter(sort)

	products, total, err := s.store.ListProducts(ctx, repository.ProductListParams{
		Search:    search,
		SortField: sortField,
		SortDir:   sortDir,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, PageMeta{}, err
	}

	meta := PageMeta{
		CurrentPage: page,
		PerPage:     limit,
		TotalItems:  total,
		TotalPages:  (total + limit - 1) / limit,
	}
	return products, meta, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, name, description string, price decimal.Decimal, stock int) (*domain.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "product name is required"}
	}
	if !price.IsPositive() {
		return nil, &domain.ValidationError{Field: "price", Reason: "price must be greater than 0"}
	}
	if stock < 0 {
		return nil, &domain.ValidationError{Field: "stock", Reason: "stock cannot be negative"}
	}

	product := &domain.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return &domain.ValidationError{Field: "name", Reason: "product name is required"}
	}
	if !product.Price.IsPositive() {
		return &domain.ValidationError{Field: "price", Reason: "price must be greater than 0"}
	}
	if product.Stock < 0 {
		return &domain.ValidationError{Field: "stock", Reason: "stock cannot be negative"}
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return err
	}
	s.invalidateProduct(product.ID)
	return nil
}

func (s *ProductService) invalidateProduct(id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.Background(), id); err != nil {
		log.Printf("cache delete error: %v", err)
	}
}

// parseSortParameter splits "field:dir" defaulting to id ascending.
// Unknown fields and directions fall back to the defaults.
func parseSortParameter(sort string) (string, string) {
	parts := strings.SplitN(sort, ":", 2)
	field := parts[0]
	dir := "asc"
	if len(parts) == 2 {
		dir = strings.ToLower(parts[1])
	}

	switch field {
	case "name", "price", "stock", "created_at":
	case "createdAt":
		field = "created_at"
	default:
		field = "id"
	}
	if dir != "desc" {
		dir = "asc"
	}
	return field, dir
}

func cacheGroupKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}
