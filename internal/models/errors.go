package models

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	ErrCheckoutInProgress         = errors.New("a checkout is already in progress")
	ErrConfirmationTimeout        = errors.New("payment confirmation timed out")
	ErrConfirmationConnectionLost = errors.New("connection to the payment terminal was lost")
	ErrUserCancelled              = errors.New("payment cancelled by user")
	ErrProductNotFound            = errors.New("product not found")
	ErrPurchaseNotFound           = errors.New("purchase not found")
	ErrSessionExpired             = errors.New("session token expired")
	ErrEmptyCart                  = errors.New("cart is empty")
)

// APIError is a non-2xx response from the remote API with a message body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%d)", e.StatusCode)
}

// UnexpectedStatusError reports a purchase status the checkout flow has no
// transition for. The server only ever answers a creation request with
// pending or confirmed; anything else means client and server disagree about
// the protocol and the checkout must fail hard without touching the cart.
type UnexpectedStatusError struct {
	Status PurchaseStatus
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected purchase status %q", e.Status)
}

// PaymentFailedError carries the reason the terminal reported for a failed
// payment, when it reported one.
type PaymentFailedError struct {
	Reason string
}

func (e *PaymentFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("payment failed: %s", e.Reason)
	}
	return "payment failed"
}
