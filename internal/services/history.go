package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"kasseapparat/internal/models"
)

// defaultHistoryLimit bounds how many purchases the projection keeps in view.
const defaultHistoryLimit = 50

// HistoryService is the append-only, newest-first projection of confirmed
// and refunded purchases. It is write-through to a local store so the till
// can show recent purchases across restarts, but the server list always
// wins: Reload replaces the projection wholesale.
type HistoryService struct {
	api   PurchaseAPI
	store HistoryStore // optional

	mu        sync.RWMutex
	purchases []*models.Purchase
}

// NewHistoryService creates a purchase history projection. store may be nil
// when no local cache is configured.
func NewHistoryService(api PurchaseAPI, store HistoryStore) *HistoryService {
	return &HistoryService{
		api:   api,
		store: store,
	}
}

// Add prepends a purchase to the projection.
func (s *HistoryService) Add(purchase *models.Purchase) {
	s.mu.Lock()
	s.purchases = append([]*models.Purchase{purchase}, s.purchases...)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(purchase); err != nil {
			log.Printf("Warning: failed to cache purchase %d: %v", purchase.ID, err)
		}
	}
}

// List returns a copy of the projection, newest first.
func (s *HistoryService) List() []*models.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Purchase, len(s.purchases))
	copy(out, s.purchases)
	return out
}

// Reload replaces the projection with the server's purchase list and
// rewrites the local cache to match.
func (s *HistoryService) Reload(ctx context.Context) error {
	purchases, err := s.api.ListPurchases(ctx, defaultHistoryLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch purchase history: %w", err)
	}

	s.mu.Lock()
	s.purchases = purchases
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.ReplaceAll(purchases); err != nil {
			log.Printf("Warning: failed to rewrite purchase cache: %v", err)
		}
	}
	return nil
}

// LoadFromCache seeds the projection from the local store, for display
// before the first server reload or while the network is down.
func (s *HistoryService) LoadFromCache() error {
	if s.store == nil {
		return nil
	}

	purchases, err := s.store.List(defaultHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to read purchase cache: %w", err)
	}

	s.mu.Lock()
	s.purchases = purchases
	s.mu.Unlock()
	return nil
}
