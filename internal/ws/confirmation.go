package ws

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kasseapparat/internal/models"
)

// Wire message kinds exchanged with the payment confirmation endpoint.
const (
	kindStatusUpdate  = "status_update"
	kindCancelAck     = "cancel_ack"
	kindCancelPayment = "cancel_payment"
)

// message is the wire format for both directions.
type message struct {
	Kind     string `json:"kind"`
	Status   string `json:"status,omitempty"`
	Reason   string `json:"reason,omitempty"`
	ReaderID string `json:"reader_id,omitempty"`
}

// EventKind classifies what a confirmation channel reports upward.
type EventKind int

const (
	// EventStatus is a terminal status_update (confirmed or failed).
	EventStatus EventKind = iota
	// EventCancelAck is the server acknowledging a cancellation request.
	EventCancelAck
	// EventClosed means the connection dropped before any terminal message.
	EventClosed
)

// Event is one occurrence reported by a confirmation channel. A channel
// delivers at most one event over its lifetime; everything after the first
// terminal message is swallowed so a late close cannot re-report failure
// after success was already delivered.
type Event struct {
	Kind   EventKind
	Status models.PurchaseStatus
	Reason string
	Err    error
}

// TokenSource mirrors api.TokenSource; the socket authenticates with the
// same bearer token, passed as a query parameter.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, error)
}

// Dialer opens confirmation channels against the remote socket endpoint.
type Dialer struct {
	socketURL      string
	tokens         TokenSource
	connectTimeout time.Duration
}

// NewDialer creates a dialer. connectTimeout bounds the websocket handshake;
// a handshake that does not complete within it counts as a connection
// failure.
func NewDialer(socketURL string, tokens TokenSource, connectTimeout time.Duration) *Dialer {
	return &Dialer{
		socketURL:      socketURL,
		tokens:         tokens,
		connectTimeout: connectTimeout,
	}
}

// Dial opens a confirmation channel scoped to one purchase and starts
// reading from it.
func (d *Dialer) Dial(ctx context.Context, purchaseID int) (*Channel, error) {
	token, err := d.tokens.CurrentToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session token: %w", err)
	}

	endpoint := fmt.Sprintf("%s/purchases/%d/confirmation?token=%s",
		d.socketURL, purchaseID, url.QueryEscape(token))

	dialer := websocket.Dialer{HandshakeTimeout: d.connectTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("confirmation endpoint rejected connection (%d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to confirmation endpoint: %w", err)
	}

	ch := &Channel{
		conn:   conn,
		events: make(chan Event, 1),
	}
	go ch.readLoop()
	return ch, nil
}

// Channel is a live confirmation connection for one purchase.
type Channel struct {
	conn      *websocket.Conn
	events    chan Event
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Events returns the channel on which the single lifetime event is
// delivered. The channel is buffered so the reader goroutine never blocks
// on a receiver that has already resolved the checkout another way.
func (ch *Channel) Events() <-chan Event {
	return ch.events
}

// SendCancel asks the terminal to abort the payment. Cancellation is
// cooperative: the connection stays open and the caller waits for the
// server's cancel_ack so ledger and client view stay consistent.
func (ch *Channel) SendCancel(readerID string) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	msg := message{Kind: kindCancelPayment, ReaderID: readerID}
	if err := ch.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send cancellation request: %w", err)
	}
	return nil
}

// Close tears down the connection. Safe to call more than once and from any
// exit path.
func (ch *Channel) Close() error {
	var err error
	ch.closeOnce.Do(func() {
		ch.writeMu.Lock()
		// Best effort; the read side treats any close as final.
		_ = ch.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ch.writeMu.Unlock()
		err = ch.conn.Close()
	})
	return err
}

// CloseAfter schedules Close after the display grace period, giving the UI
// time to show the final state before the connection goes away.
func (ch *Channel) CloseAfter(grace time.Duration) {
	time.AfterFunc(grace, func() { ch.Close() })
}

// readLoop pumps inbound messages until the connection dies. At most one
// event is reported; late frames and the eventual read error after a
// terminal message are discarded.
func (ch *Channel) readLoop() {
	reported := false
	for {
		var msg message
		if err := ch.conn.ReadJSON(&msg); err != nil {
			if !reported {
				ch.events <- Event{Kind: EventClosed, Err: err}
			}
			return
		}

		switch msg.Kind {
		case kindStatusUpdate:
			status := models.PurchaseStatus(msg.Status)
			if status.IsTerminal() && !reported {
				reported = true
				ch.events <- Event{Kind: EventStatus, Status: status, Reason: msg.Reason}
			}
		case kindCancelAck:
			if !reported {
				reported = true
				ch.events <- Event{Kind: EventCancelAck}
			}
		}
	}
}
