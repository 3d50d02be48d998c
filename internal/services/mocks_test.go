package services

import (
	"context"
	"sync"
	"time"

	"kasseapparat/internal/models"
	"kasseapparat/internal/ws"
)

// MockAPI is a scriptable stand-in for the remote API.
type MockAPI struct {
	mu sync.Mutex

	CreateResponse *models.Purchase
	CreateErr      error
	CreateCalls    []*models.PurchaseCreateRequest

	RefundResponse *models.Purchase
	RefundErr      error
	RefundCalls    []int

	PurchaseList     []*models.Purchase
	ListPurchaseErr  error
	ListPurchaseCnt  int
	ProductList      []*models.Product
	ListProductsErr  error
	ListProductsCnt  int
	GuestlistEntries []*models.GuestlistEntry
	GuestlistErr     error
}

func (m *MockAPI) CreatePurchase(ctx context.Context, req *models.PurchaseCreateRequest) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, req)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.CreateResponse, nil
}

func (m *MockAPI) RefundPurchase(ctx context.Context, purchaseID int) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundCalls = append(m.RefundCalls, purchaseID)
	if m.RefundErr != nil {
		return nil, m.RefundErr
	}
	return m.RefundResponse, nil
}

func (m *MockAPI) ListPurchases(ctx context.Context, limit, offset int) ([]*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListPurchaseCnt++
	if m.ListPurchaseErr != nil {
		return nil, m.ListPurchaseErr
	}
	return m.PurchaseList, nil
}

func (m *MockAPI) ListProducts(ctx context.Context) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListProductsCnt++
	if m.ListProductsErr != nil {
		return nil, m.ListProductsErr
	}
	return m.ProductList, nil
}

func (m *MockAPI) SearchGuestlist(ctx context.Context, query string) ([]*models.GuestlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GuestlistErr != nil {
		return nil, m.GuestlistErr
	}
	return m.GuestlistEntries, nil
}

func (m *MockAPI) CreateCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CreateCalls)
}

func (m *MockAPI) ProductRefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ListProductsCnt
}

// MockStream is a scriptable confirmation stream.
type MockStream struct {
	mu sync.Mutex

	events       chan ws.Event
	Cancels      []string
	CancelErr    error
	Closed       bool
	GracePeriods []time.Duration
}

func NewMockStream() *MockStream {
	return &MockStream{events: make(chan ws.Event, 4)}
}

// Emit queues an event as if it had arrived from the terminal.
func (m *MockStream) Emit(event ws.Event) {
	m.events <- event
}

func (m *MockStream) Events() <-chan ws.Event {
	return m.events
}

func (m *MockStream) SendCancel(readerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.Cancels = append(m.Cancels, readerID)
	return nil
}

func (m *MockStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockStream) CloseAfter(grace time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GracePeriods = append(m.GracePeriods, grace)
}

func (m *MockStream) CancelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Cancels)
}

func (m *MockStream) CloseScheduled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GracePeriods) > 0
}

// MockDialer hands out a prepared stream and records dialed purchase IDs.
type MockDialer struct {
	mu sync.Mutex

	Stream  *MockStream
	DialErr error
	Dialed  []int
}

func (m *MockDialer) Dial(ctx context.Context, purchaseID int) (ConfirmationStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dialed = append(m.Dialed, purchaseID)
	if m.DialErr != nil {
		return nil, m.DialErr
	}
	return m.Stream, nil
}

func (m *MockDialer) DialCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Dialed)
}

// MockHistoryStore records writes to the local purchase cache.
type MockHistoryStore struct {
	mu sync.Mutex

	Saved      []*models.Purchase
	Replaced   [][]*models.Purchase
	ListResult []*models.Purchase
}

func (m *MockHistoryStore) Save(purchase *models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, purchase)
	return nil
}

func (m *MockHistoryStore) ReplaceAll(purchases []*models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replaced = append(m.Replaced, purchases)
	return nil
}

func (m *MockHistoryStore) List(limit int) ([]*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ListResult, nil
}
