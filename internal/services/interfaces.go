package services

import (
	"context"
	"time"

	"kasseapparat/internal/models"
	"kasseapparat/internal/ws"
)

// PurchaseAPI is the remote API surface the services consume.
type PurchaseAPI interface {
	CreatePurchase(ctx context.Context, req *models.PurchaseCreateRequest) (*models.Purchase, error)
	RefundPurchase(ctx context.Context, purchaseID int) (*models.Purchase, error)
	ListPurchases(ctx context.Context, limit, offset int) ([]*models.Purchase, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	SearchGuestlist(ctx context.Context, query string) ([]*models.GuestlistEntry, error)
}

// ConfirmationStream is one live payment confirmation connection.
type ConfirmationStream interface {
	Events() <-chan ws.Event
	SendCancel(readerID string) error
	Close() error
	CloseAfter(grace time.Duration)
}

// ConfirmationDialer opens a confirmation stream for a pending purchase.
type ConfirmationDialer interface {
	Dial(ctx context.Context, purchaseID int) (ConfirmationStream, error)
}

// DialerFunc adapts a plain dial function to the ConfirmationDialer
// interface.
type DialerFunc func(ctx context.Context, purchaseID int) (ConfirmationStream, error)

func (f DialerFunc) Dial(ctx context.Context, purchaseID int) (ConfirmationStream, error) {
	return f(ctx, purchaseID)
}

// HistoryStore is the local cache behind the purchase history projection.
type HistoryStore interface {
	Save(purchase *models.Purchase) error
	ReplaceAll(purchases []*models.Purchase) error
	List(limit int) ([]*models.Purchase, error)
}
