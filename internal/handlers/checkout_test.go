package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"kasseapparat/internal/models"
	"kasseapparat/internal/services"
)

// stubAPI backs the services with canned responses.
type stubAPI struct {
	purchase  *models.Purchase
	createErr error
	products  []*models.Product
}

func (s *stubAPI) CreatePurchase(ctx context.Context, req *models.PurchaseCreateRequest) (*models.Purchase, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.purchase, nil
}

func (s *stubAPI) RefundPurchase(ctx context.Context, purchaseID int) (*models.Purchase, error) {
	return s.purchase, nil
}

func (s *stubAPI) ListPurchases(ctx context.Context, limit, offset int) ([]*models.Purchase, error) {
	return nil, nil
}

func (s *stubAPI) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.products, nil
}

func (s *stubAPI) SearchGuestlist(ctx context.Context, query string) ([]*models.GuestlistEntry, error) {
	return nil, nil
}

func testRouter(t *testing.T, api *stubAPI) (*chi.Mux, *services.CheckoutService, *services.ProductService) {
	t.Helper()

	history := services.NewHistoryService(api, nil)
	products := services.NewProductService(api)
	checkout := services.NewCheckoutService(api, nil, history, products, services.CheckoutConfig{})

	if err := products.Refresh(context.Background()); err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}

	cartHandler := NewCartHandler(checkout, products)
	checkoutHandler := NewCheckoutHandler(checkout)

	r := chi.NewRouter()
	r.Get("/cart", cartHandler.GetCart)
	r.Post("/cart/items", cartHandler.AddItem)
	r.Delete("/cart/items/{productID}", cartHandler.RemoveItem)
	r.Delete("/cart", cartHandler.ClearCart)
	r.Post("/checkout", checkoutHandler.Checkout)
	r.Get("/checkout", checkoutHandler.Status)

	return r, checkout, products
}

func stubProduct(id int, name, gross string) *models.Product {
	g, _ := decimal.NewFromString(gross)
	return &models.Product{ID: id, Name: name, GrossPrice: g, NetPrice: g}
}

func TestCartEndpoints(t *testing.T) {
	api := &stubAPI{products: []*models.Product{stubProduct(1, "Beer", "10.00")}}
	router, checkout, _ := testRouter(t, api)

	body, _ := json.Marshal(map[string]any{"productId": 1, "quantity": 2})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("add item status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := checkout.Cart().QuantityFor(1); got != 2 {
		t.Errorf("cart quantity = %d, want 2", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cart/items/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove item status = %d, want 200", rec.Code)
	}
	if !checkout.Cart().IsEmpty() {
		t.Error("cart should be empty after removing the only line")
	}
}

func TestCartAddUnknownProduct(t *testing.T) {
	api := &stubAPI{}
	router, _, _ := testRouter(t, api)

	body, _ := json.Marshal(map[string]any{"productId": 99})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(body)))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCheckoutEndpoint_CashSuccess(t *testing.T) {
	api := &stubAPI{
		purchase: &models.Purchase{ID: 7, Status: models.PurchaseConfirmed},
		products: []*models.Product{stubProduct(1, "Beer", "10.00")},
	}
	router, checkout, _ := testRouter(t, api)

	body, _ := json.Marshal(map[string]any{"productId": 1})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("add item status = %d", rec.Code)
	}

	body, _ = json.Marshal(map[string]any{"paymentMethod": "CASH"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var purchase models.Purchase
	if err := json.Unmarshal(rec.Body.Bytes(), &purchase); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if purchase.ID != 7 {
		t.Errorf("purchase ID = %d, want 7", purchase.ID)
	}
	if !checkout.Cart().IsEmpty() {
		t.Error("cart should be empty after a confirmed checkout")
	}
}

func TestCheckoutEndpoint_EmptyCart(t *testing.T) {
	api := &stubAPI{}
	router, _, _ := testRouter(t, api)

	body, _ := json.Marshal(map[string]any{"paymentMethod": "CASH"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCheckoutEndpoint_MissingPaymentMethod(t *testing.T) {
	api := &stubAPI{}
	router, _, _ := testRouter(t, api)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader([]byte("{}"))))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCheckoutStatusEndpoint(t *testing.T) {
	api := &stubAPI{}
	router, _, _ := testRouter(t, api)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["state"] != string(services.StateIdle) {
		t.Errorf("state = %q, want idle", payload["state"])
	}
}
