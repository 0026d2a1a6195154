package http

import (
	"context"
	"net/http"
)

// RoleAdmin is the role header value that widens the order listing scope
// to every customer's orders.
const RoleAdmin = "admin"

// AuthMiddleware resolves the caller identity from the X-Customer-Id and
// X-Role headers. The upstream gateway is trusted to have authenticated
// the caller; requests without an identity are rejected here.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID := r.Header.Get("X-Customer-Id")
		if customerID == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "X-Customer-Id header is required")
			return
		}

		ctx := context.WithValue(r.Context(), "customer_id", customerID)
		ctx = context.WithValue(ctx, "role", r.Header.Get("X-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCustomerIDFromContext(ctx context.Context) string {
	if customerID, ok := ctx.Value("customer_id").(string); ok {
		return customerID
	}
	return ""
}

func getRoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value("role").(string); ok {
		return role
	}
	return ""
}
