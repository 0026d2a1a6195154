package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/macaicedo13/Ecommerce-api-test/internal/domain"
	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain and repository failures onto HTTP
// statuses. Every failure here is recoverable: it rejects the current
// request and nothing else.
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *domain.ValidationError
	var notFound *domain.ProductNotFoundError
	var stockErr *domain.InsufficientStockError

	switch {
	case errors.As(err, &valErr):
		respondError(w, http.StatusBadRequest, "validation_error", valErr.Error())
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "product_not_found", notFound.Error())
	case errors.As(err, &stockErr):
		respondError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	case errors.Is(err, domain.ErrNotEligible):
		respondError(w, http.StatusBadRequest, "not_eligible", err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
