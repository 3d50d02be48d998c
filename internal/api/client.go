package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kasseapparat/internal/auth"
	"kasseapparat/internal/models"
)

// TokenSource supplies the bearer token attached to every authenticated
// request. It either returns a usable token or fails; caching and refresh
// are its business.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, error)
}

// Client talks to the remote Kasseapparat REST API.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
}

// NewClient creates a new API client. The token source may be set later via
// UseTokens when it depends on the client for refreshing.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// UseTokens installs the token source used for authenticated requests.
func (c *Client) UseTokens(tokens TokenSource) {
	c.tokens = tokens
}

// errorResponse is the message body the API sends with non-2xx statuses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreatePurchase posts a new purchase. The response status is either
// confirmed (synchronous payment methods like cash) or pending (card
// terminal payments awaiting confirmation).
func (c *Client) CreatePurchase(ctx context.Context, req *models.PurchaseCreateRequest) (*models.Purchase, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid purchase request: %w", err)
	}

	var purchase models.Purchase
	if err := c.do(ctx, http.MethodPost, "/purchases", req, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// RefundPurchase refunds a purchase server-side and returns its updated
// state. Callers are expected to re-fetch purchase history and products
// afterwards instead of patching local state.
func (c *Client) RefundPurchase(ctx context.Context, purchaseID int) (*models.Purchase, error) {
	var purchase models.Purchase
	path := fmt.Sprintf("/purchases/%d/refund", purchaseID)
	if err := c.do(ctx, http.MethodPost, path, nil, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases fetches the most recent purchases, newest first.
func (c *Client) ListPurchases(ctx context.Context, limit, offset int) ([]*models.Purchase, error) {
	var purchases []*models.Purchase
	path := "/purchases?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// ListProducts fetches the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchGuestlist fetches guestlist entries matching the query.
func (c *Client) SearchGuestlist(ctx context.Context, query string) ([]*models.GuestlistEntry, error) {
	var entries []*models.GuestlistEntry
	path := "/guestlist?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RefreshSession exchanges a long-lived refresh token for a fresh bearer
// session. This endpoint is the one call that does not carry a bearer token.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*auth.Session, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	return auth.SessionFromToken(payload.Token)
}

// do runs one authenticated JSON round trip against the API.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.CurrentToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to get session token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &models.APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		} else {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
