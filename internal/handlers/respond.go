package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kasseapparat/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// checkoutStatus maps checkout-path errors onto HTTP statuses for the till
// UI. The message is always the error text; the UI shows it as-is.
func checkoutStatus(err error) int {
	var apiErr *models.APIError
	switch {
	case errors.Is(err, models.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConfirmationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrConfirmationConnectionLost):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrUserCancelled):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusPaymentRequired
	}
}
