package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/service"
)

type OrderHandler struct {
	orders   *service.OrderService
	checkout *service.CheckoutService
	timeout  time.Duration
}

func NewOrderHandler(orders *service.OrderService, checkout *service.CheckoutService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		checkout: checkout,
		timeout:  timeout,
	}
}

type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderResponse struct {
	ID         string              `json:"id"`
	CustomerID string              `json:"customerId"`
	Status     string              `json:"status"`
	Subtotal   float64             `json:"subtotal"`
	Tax        float64             `json:"tax"`
	Total      float64             `json:"total"`
	Items      []OrderItemResponse `json:"items,omitempty"`
	Payment    *PaymentResponse    `json:"payment,omitempty"`
	CreatedAt  string              `json:"createdAt"`
	UpdatedAt  string              `json:"updatedAt"`
}

type OrderItemResponse struct {
	ID          string  `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

type PaymentResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Method      string  `json:"method"`
	Amount      float64 `json:"amount"`
	ProcessedAt string  `json:"processedAt,omitempty"`
}

// POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := getCustomerIDFromContext(r.Context())

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(ctx, customerID, lines)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]OrderResponse{"order": convertOrder(order, true)})
}

// GET /api/orders
// Admins see every order, customers only their own.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		orders []*domain.Order
		err    error
	)
	if getRoleFromContext(r.Context()) == RoleAdmin {
		orders, err = h.orders.ListAll(ctx)
	} else {
		orders, err = h.orders.ListByCustomer(ctx, getCustomerIDFromContext(r.Context()))
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, convertOrder(order, false))
	}
	respondJSON(w, http.StatusOK, map[string][]OrderResponse{"orders": resp})
}

// GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, ok := h.loadOwnedOrder(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]OrderResponse{"order": convertOrder(order, true)})
}

// POST /api/orders/{id}/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, ok := h.loadOwnedOrder(ctx, w, r)
	if !ok {
		return
	}

	order, err := h.checkout.ProcessCheckout(ctx, order)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]OrderResponse{"order": convertOrder(order, true)})
}

// loadOwnedOrder fetches the order from the URL and enforces that the caller
// owns it, unless the caller is an admin. It writes the error response itself
// and reports whether the caller may proceed.
func (h *OrderHandler) loadOwnedOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return nil, false
	}

	order, err := h.orders.FindByID(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}

	if getRoleFromContext(r.Context()) != RoleAdmin &&
		!h.orders.ValidateOwnership(order, getCustomerIDFromContext(r.Context())) {
		respondError(w, http.StatusForbidden, "forbidden", "order belongs to another customer")
		return nil, false
	}
	return order, true
}

func convertOrder(order *domain.Order, includeItems bool) OrderResponse {
	resp := OrderResponse{
		ID:         order.ID.String(),
		CustomerID: order.CustomerID,
		Status:     string(order.Status),
		Subtotal:   order.Subtotal.InexactFloat64(),
		Tax:        order.Tax.InexactFloat64(),
		Total:      order.Total.InexactFloat64(),
		CreatedAt:  order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  order.UpdatedAt.Format(time.RFC3339),
	}
	if !includeItems {
		return resp
	}

	resp.Items = make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
			Subtotal:    item.Subtotal.InexactFloat64(),
		})
	}
	if order.Payment != nil {
		payment := &PaymentResponse{
			ID:     order.Payment.ID.String(),
			Status: string(order.Payment.Status),
			Method: order.Payment.Method,
			Amount: order.Payment.Amount.InexactFloat64(),
		}
		if order.Payment.ProcessedAt != nil {
			payment.ProcessedAt = order.Payment.ProcessedAt.Format(time.RFC3339)
		}
		resp.Payment = payment
	}
	return resp
}
