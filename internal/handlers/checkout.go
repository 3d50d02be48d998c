package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"kasseapparat/internal/models"
	"kasseapparat/internal/services"
)

// CheckoutHandler drives the checkout flow for the till UI. The POST blocks
// until the payment resolves one way or the other; the UI keeps its
// confirmation dialog open for the duration and may POST a cancellation
// from a second request.
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutRequest struct {
	PaymentMethod     models.PaymentMethod `json:"paymentMethod"`
	PaymentMethodData map[string]any       `json:"paymentMethodData,omitempty"`
}

// Checkout submits the cart with the chosen payment method.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, errors.New("payment method is required"))
		return
	}

	purchase, err := h.checkout.Checkout(r.Context(), req.PaymentMethod, req.PaymentMethodData)
	if err != nil {
		writeError(w, checkoutStatus(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, purchase)
}

// Cancel asks the card terminal to abort the payment awaiting confirmation.
// The blocked checkout request resolves once the terminal acknowledges.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.CancelConfirmation(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancellation requested"})
}

// Status reports the orchestrator's state so the UI can restore its dialog
// after a reload.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"state": string(h.checkout.State())})
}
