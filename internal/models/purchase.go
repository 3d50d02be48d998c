package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus represents the lifecycle state of a purchase. Purchases are
// created server-side; the client holds a read-through projection and never
// invents transitions locally.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseConfirmed PurchaseStatus = "confirmed"
	PurchaseFailed    PurchaseStatus = "failed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// IsTerminal reports whether no further status transition can occur.
func (s PurchaseStatus) IsTerminal() bool {
	switch s {
	case PurchaseConfirmed, PurchaseFailed, PurchaseCancelled:
		return true
	}
	return false
}

// PaymentMethod identifies how a purchase is paid. Cash settles
// synchronously; card payments via the SumUp terminal come back pending and
// are confirmed over the payment confirmation channel.
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"
	PaymentMethodSumUp   PaymentMethod = "SUMUP"
	PaymentMethodCC      PaymentMethod = "CC"
	PaymentMethodVoucher PaymentMethod = "VOUCHER"
)

// Purchase represents a purchase record as the server reports it.
type Purchase struct {
	ID              int             `json:"id"`
	CreatedAt       time.Time       `json:"createdAt"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Status          PurchaseStatus  `json:"status"`
	TotalNetPrice   decimal.Decimal `json:"totalNetPrice"`
	TotalGrossPrice decimal.Decimal `json:"totalGrossPrice"`
	TotalVATAmount  decimal.Decimal `json:"totalVatAmount"`
	Lines           []PurchaseLine  `json:"lines"`
}

// PurchaseLine is one line of a recorded purchase.
type PurchaseLine struct {
	ProductID       int             `json:"productId"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitGrossPrice  decimal.Decimal `json:"unitGrossPrice"`
	TotalNetPrice   decimal.Decimal `json:"totalNetPrice"`
	TotalGrossPrice decimal.Decimal `json:"totalGrossPrice"`
	TotalVATAmount  decimal.Decimal `json:"totalVatAmount"`
}

// PurchaseCreateRequest is the payload sent to the purchase-creation
// endpoint: payment method plus opaque method data, the cart snapshot and
// the totals computed from it. The idempotency key is generated client-side
// so a retried POST cannot create a second purchase.
type PurchaseCreateRequest struct {
	IdempotencyKey    string          `json:"idempotencyKey"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	PaymentMethodData map[string]any  `json:"paymentMethodData,omitempty"`
	TotalNetPrice     decimal.Decimal `json:"totalNetPrice"`
	TotalGrossPrice   decimal.Decimal `json:"totalGrossPrice"`
	TotalVATAmount    decimal.Decimal `json:"totalVatAmount"`
	Lines             []CartLine      `json:"lines"`
}

// Validate validates a purchase creation request before it goes on the wire.
func (req *PurchaseCreateRequest) Validate() error {
	if req.PaymentMethod == "" {
		return errors.New("payment method is required")
	}
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	if req.TotalGrossPrice.IsNegative() {
		return errors.New("total gross price must not be negative")
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return errors.New("line quantity must be at least 1")
		}
	}
	return nil
}
