package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"kasseapparat/internal/models"
	"kasseapparat/internal/ws"
)

// CheckoutState is the orchestrator's position in the checkout flow.
// Idle and the terminal states allow re-entry into Submitting; Submitting
// and AwaitingConfirmation reject a second checkout outright.
type CheckoutState string

const (
	StateIdle                 CheckoutState = "idle"
	StateSubmitting           CheckoutState = "submitting"
	StateAwaitingConfirmation CheckoutState = "awaiting_confirmation"
	StateCompleted            CheckoutState = "completed"
	StateConfirmed            CheckoutState = "confirmed"
	StateFailed               CheckoutState = "failed"
	StateCancelled            CheckoutState = "cancelled"
	StateTimedOut             CheckoutState = "timed_out"
)

// CheckoutConfig carries the timing knobs for the confirmation race.
type CheckoutConfig struct {
	ConfirmationTimeout time.Duration // how long a terminal payment may stay unresolved
	GracePeriod         time.Duration // how long a resolved channel stays open for display
	ReaderID            string        // card reader identity sent with cancellations
}

// CheckoutService owns the cart and drives purchases through the remote
// API. It is the only component that mutates cart and history state; the
// confirmation channel just reports events upward.
type CheckoutService struct {
	api      PurchaseAPI
	dialer   ConfirmationDialer
	history  *HistoryService
	products *ProductService
	config   CheckoutConfig

	mu     sync.Mutex
	cart   models.Cart
	state  CheckoutState
	stream ConfirmationStream // non-nil only while awaiting confirmation
}

// NewCheckoutService creates a new checkout orchestrator.
func NewCheckoutService(
	api PurchaseAPI,
	dialer ConfirmationDialer,
	history *HistoryService,
	products *ProductService,
	config CheckoutConfig,
) *CheckoutService {
	if config.ConfirmationTimeout <= 0 {
		config.ConfirmationTimeout = 3 * time.Minute
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = 3 * time.Second
	}
	return &CheckoutService{
		api:      api,
		dialer:   dialer,
		history:  history,
		products: products,
		config:   config,
		cart:     models.NewCart(),
		state:    StateIdle,
	}
}

// State returns the orchestrator's current state.
func (s *CheckoutService) State() CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cart returns a snapshot of the current cart.
func (s *CheckoutService) Cart() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// AddToCart merges a product (optionally redeeming a guestlist entry) into
// the cart.
func (s *CheckoutService) AddToCart(product *models.Product, quantity int, entry *models.GuestlistEntryRef) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Add(product, quantity, entry)
	return s.cart
}

// RemoveFromCart drops the line for the product.
func (s *CheckoutService) RemoveFromCart(productID int) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Remove(productID)
	return s.cart
}

// ClearCart empties the cart.
func (s *CheckoutService) ClearCart() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart.Clear()
	return s.cart
}

// Checkout submits the current cart with the given payment method. For
// synchronous methods the purchase comes back confirmed and the call
// returns immediately. For terminal payments the purchase comes back
// pending and the call blocks until exactly one of confirmation, failure,
// cancellation or timeout resolves it. The cart is cleared only on the
// single success path; every failure leaves it untouched.
func (s *CheckoutService) Checkout(ctx context.Context, method models.PaymentMethod, methodData map[string]any) (*models.Purchase, error) {
	cart, err := s.begin()
	if err != nil {
		return nil, err
	}

	req := &models.PurchaseCreateRequest{
		IdempotencyKey:    uuid.NewString(),
		PaymentMethod:     method,
		PaymentMethodData: methodData,
		TotalNetPrice:     cart.TotalNetPrice(),
		TotalGrossPrice:   cart.TotalGrossPrice(),
		TotalVATAmount:    cart.TotalVATAmount(),
		Lines:             cart.Lines,
	}

	purchase, err := s.api.CreatePurchase(ctx, req)
	if err != nil {
		s.setState(StateFailed)
		return nil, fmt.Errorf("purchase creation failed: %w", err)
	}

	switch purchase.Status {
	case models.PurchaseConfirmed:
		s.finalizeSuccess(ctx, purchase, StateCompleted)
		return purchase, nil
	case models.PurchasePending:
		return s.awaitConfirmation(ctx, purchase)
	default:
		s.setState(StateFailed)
		return nil, &models.UnexpectedStatusError{Status: purchase.Status}
	}
}

// CancelConfirmation asks the card terminal to abort the payment currently
// awaiting confirmation. Cancellation is cooperative: this only sends the
// request; the checkout resolves when the server's cancel_ack arrives. If
// sending fails the caller may retry or wait for the timeout.
func (s *CheckoutService) CancelConfirmation() error {
	s.mu.Lock()
	stream := s.stream
	state := s.state
	s.mu.Unlock()

	if state != StateAwaitingConfirmation || stream == nil {
		return errors.New("no payment is awaiting confirmation")
	}
	return stream.SendCancel(s.config.ReaderID)
}

// Refund refunds a purchase server-side, then reloads history and products
// from the server. Local state is never patched optimistically; partial
// refunds and stock reconciliation are the server's call.
func (s *CheckoutService) Refund(ctx context.Context, purchaseID int) (*models.Purchase, error) {
	purchase, err := s.api.RefundPurchase(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("refund failed: %w", err)
	}

	if err := s.history.Reload(ctx); err != nil {
		log.Printf("Warning: failed to reload purchase history after refund: %v", err)
	}
	s.refreshProducts(ctx)

	return purchase, nil
}

// begin moves Idle (or a terminal state) to Submitting and snapshots the
// cart. This is the at-most-one-in-flight guard: repeated checkout clicks
// cannot double-submit.
func (s *CheckoutService) begin() (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitting, StateAwaitingConfirmation:
		return models.Cart{}, models.ErrCheckoutInProgress
	}
	if s.cart.IsEmpty() {
		return models.Cart{}, models.ErrEmptyCart
	}

	s.state = StateSubmitting
	return s.cart, nil
}

func (s *CheckoutService) setState(state CheckoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// awaitConfirmation opens the confirmation channel for a pending purchase
// and races its events against the wall-clock timeout and context
// cancellation. Exactly one outcome is honored; the select resolves once
// and everything arriving later is ignored because the loop has exited.
func (s *CheckoutService) awaitConfirmation(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error) {
	stream, err := s.dialer.Dial(ctx, purchase.ID)
	if err != nil {
		s.setState(StateFailed)
		return nil, fmt.Errorf("%w: %v", models.ErrConfirmationConnectionLost, err)
	}

	s.mu.Lock()
	s.state = StateAwaitingConfirmation
	s.stream = stream
	s.mu.Unlock()

	// Both the stream handle and the timer are released on every exit
	// path below.
	defer func() {
		s.mu.Lock()
		s.stream = nil
		s.mu.Unlock()
	}()

	timer := time.NewTimer(s.config.ConfirmationTimeout)
	defer timer.Stop()

	select {
	case event := <-stream.Events():
		return s.resolveEvent(ctx, purchase, stream, event)

	case <-timer.C:
		stream.Close()
		s.setState(StateTimedOut)
		return nil, models.ErrConfirmationTimeout

	case <-ctx.Done():
		stream.Close()
		s.setState(StateFailed)
		return nil, ctx.Err()
	}
}

// resolveEvent maps the single channel event onto a terminal state. The
// channel stays open for the display grace period so the UI can show the
// final state before teardown.
func (s *CheckoutService) resolveEvent(ctx context.Context, purchase *models.Purchase, stream ConfirmationStream, event ws.Event) (*models.Purchase, error) {
	stream.CloseAfter(s.config.GracePeriod)

	switch event.Kind {
	case ws.EventStatus:
		switch event.Status {
		case models.PurchaseConfirmed:
			purchase.Status = models.PurchaseConfirmed
			s.finalizeSuccess(ctx, purchase, StateConfirmed)
			return purchase, nil
		case models.PurchaseFailed, models.PurchaseCancelled:
			s.setState(StateFailed)
			return nil, &models.PaymentFailedError{Reason: event.Reason}
		default:
			s.setState(StateFailed)
			return nil, &models.UnexpectedStatusError{Status: event.Status}
		}

	case ws.EventCancelAck:
		s.setState(StateCancelled)
		return nil, models.ErrUserCancelled

	case ws.EventClosed:
		s.setState(StateFailed)
		if event.Err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrConfirmationConnectionLost, event.Err)
		}
		return nil, models.ErrConfirmationConnectionLost

	default:
		s.setState(StateFailed)
		return nil, fmt.Errorf("unknown confirmation event kind %d", event.Kind)
	}
}

// finalizeSuccess is the single success path: clear the cart, record the
// purchase in history, refresh the product list so stock counters catch up.
func (s *CheckoutService) finalizeSuccess(ctx context.Context, purchase *models.Purchase, state CheckoutState) {
	s.mu.Lock()
	s.cart = s.cart.Clear()
	s.state = state
	s.mu.Unlock()

	s.history.Add(purchase)
	s.refreshProducts(ctx)
}

func (s *CheckoutService) refreshProducts(ctx context.Context) {
	if s.products == nil {
		return
	}
	if err := s.products.Refresh(ctx); err != nil {
		log.Printf("Warning: failed to refresh products: %v", err)
	}
}
