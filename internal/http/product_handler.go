package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/service"
)

type ProductHandler struct {
	products *service.ProductService
	timeout  time.Duration
}

func NewProductHandler(products *service.ProductService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

type ProductResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Meta     service.PageMeta  `json:"meta"`
}

type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	products, meta, err := h.products.ListProducts(ctx, q.Get("search"), page, limit, q.Get("sort"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := ProductsResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Meta:     meta,
	}
	for _, p := range products {
		resp.Products = append(resp.Products, convertProduct(p))
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}

	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]ProductResponse{"product": convertProduct(product)})
}

// POST /api/products (admin only)
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if r.Header.Get("X-Role") != RoleAdmin {
		respondError(w, http.StatusForbidden, "forbidden", "only administrators can manage products")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.products.CreateProduct(ctx, req.Name, req.Description,
		decimal.NewFromFloat(req.Price), req.Stock)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]ProductResponse{"product": convertProduct(product)})
}

// PUT /api/products/{id} (admin only)
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if r.Header.Get("X-Role") != RoleAdmin {
		respondError(w, http.StatusForbidden, "forbidden", "only administrators can manage products")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = decimal.NewFromFloat(req.Price)
	product.Stock = req.Stock

	if err := h.products.UpdateProduct(ctx, product); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]ProductResponse{"product": convertProduct(product)})
}

func convertProduct(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
