package services

import (
	"context"
	"fmt"

	"kasseapparat/internal/models"
)

// GuestlistEntryView is a guestlist entry as shown on the till, with the
// flag the UI uses to disable redeem controls for entries already sitting
// in the cart.
type GuestlistEntryView struct {
	*models.GuestlistEntry
	InCart bool `json:"inCart"`
}

// GuestlistService looks up guestlist entries on the remote API.
type GuestlistService struct {
	api      PurchaseAPI
	checkout *CheckoutService
}

// NewGuestlistService creates a new guestlist lookup service.
func NewGuestlistService(api PurchaseAPI, checkout *CheckoutService) *GuestlistService {
	return &GuestlistService{api: api, checkout: checkout}
}

// Search fetches entries matching the query and marks those whose ID is
// already attached to a cart line.
func (s *GuestlistService) Search(ctx context.Context, query string) ([]*GuestlistEntryView, error) {
	entries, err := s.api.SearchGuestlist(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("guestlist search failed: %w", err)
	}

	cart := s.checkout.Cart()
	views := make([]*GuestlistEntryView, len(entries))
	for i, entry := range entries {
		views[i] = &GuestlistEntryView{
			GuestlistEntry: entry,
			InCart:         cart.ContainsGuestlistEntry(entry.ID),
		}
	}
	return views, nil
}
