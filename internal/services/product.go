package services

import (
	"context"
	"fmt"
	"sync"

	"kasseapparat/internal/models"
)

// ProductService caches the product catalog. The cache is refreshed after
// every successful checkout and refund so stock and interest counters stay
// current on the till.
type ProductService struct {
	api PurchaseAPI

	mu       sync.RWMutex
	products []*models.Product
}

// NewProductService creates a new product catalog cache.
func NewProductService(api PurchaseAPI) *ProductService {
	return &ProductService{api: api}
}

// Refresh re-fetches the catalog from the server.
func (s *ProductService) Refresh(ctx context.Context) error {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch products: %w", err)
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
	return nil
}

// Products returns a copy of the cached catalog.
func (s *ProductService) Products() []*models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// ByID returns the cached product with the given ID.
func (s *ProductService) ByID(id int) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, models.ErrProductNotFound
}
