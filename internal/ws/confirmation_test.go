package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"kasseapparat/internal/models"
)

type staticTokens string

func (s staticTokens) CurrentToken(ctx context.Context) (string, error) {
	return string(s), nil
}

// confirmationServer runs script against each upgraded connection and
// records the token query parameter of the last request.
func confirmationServer(t *testing.T, script func(conn *websocket.Conn)) (*Dialer, *string) {
	t.Helper()

	var token string
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(server.Close)

	socketURL := "ws" + strings.TrimPrefix(server.URL, "http")
	dialer := NewDialer(socketURL, staticTokens("tok-123"), time.Second)
	return dialer, &token
}

func recvEvent(t *testing.T, ch *Channel) Event {
	t.Helper()
	select {
	case event := <-ch.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel event")
		return Event{}
	}
}

func assertNoMoreEvents(t *testing.T, ch *Channel) {
	t.Helper()
	select {
	case event := <-ch.Events():
		t.Fatalf("unexpected second event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannel_DeliversSingleTerminalStatus(t *testing.T) {
	dialer, token := confirmationServer(t, func(conn *websocket.Conn) {
		// A progress update, the terminal status, then a duplicate; only
		// the terminal one may surface.
		conn.WriteJSON(message{Kind: kindStatusUpdate, Status: "pending"})
		conn.WriteJSON(message{Kind: kindStatusUpdate, Status: "confirmed"})
		conn.WriteJSON(message{Kind: kindStatusUpdate, Status: "confirmed"})
		time.Sleep(100 * time.Millisecond)
	})

	ch, err := dialer.Dial(context.Background(), 42)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer ch.Close()

	event := recvEvent(t, ch)
	if event.Kind != EventStatus || event.Status != models.PurchaseConfirmed {
		t.Fatalf("event = %+v, want confirmed status", event)
	}
	assertNoMoreEvents(t, ch)

	if *token != "tok-123" {
		t.Errorf("token query parameter = %q, want tok-123", *token)
	}
}

func TestChannel_UnexpectedCloseReportsConnectionLoss(t *testing.T) {
	dialer, _ := confirmationServer(t, func(conn *websocket.Conn) {
		// Drop the connection without any terminal message.
	})

	ch, err := dialer.Dial(context.Background(), 42)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer ch.Close()

	event := recvEvent(t, ch)
	if event.Kind != EventClosed {
		t.Fatalf("event = %+v, want EventClosed", event)
	}
	if event.Err == nil {
		t.Error("connection loss should carry the close error")
	}
}

func TestChannel_CloseAfterTerminalDoesNotReReport(t *testing.T) {
	dialer, _ := confirmationServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(message{Kind: kindStatusUpdate, Status: "failed", Reason: "card declined"})
		time.Sleep(50 * time.Millisecond)
	})

	ch, err := dialer.Dial(context.Background(), 42)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	event := recvEvent(t, ch)
	if event.Kind != EventStatus || event.Status != models.PurchaseFailed {
		t.Fatalf("event = %+v, want failed status", event)
	}
	if event.Reason != "card declined" {
		t.Errorf("reason = %q, want %q", event.Reason, "card declined")
	}

	// The server closing afterwards must not surface as a second event.
	assertNoMoreEvents(t, ch)
	ch.Close()
}

func TestChannel_CancelRoundTrip(t *testing.T) {
	received := make(chan message, 1)
	dialer, _ := confirmationServer(t, func(conn *websocket.Conn) {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("server read failed: %v", err)
			return
		}
		received <- msg
		conn.WriteJSON(message{Kind: kindCancelAck})
		time.Sleep(50 * time.Millisecond)
	})

	ch, err := dialer.Dial(context.Background(), 42)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer ch.Close()

	if err := ch.SendCancel("reader-1"); err != nil {
		t.Fatalf("SendCancel() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg.Kind != kindCancelPayment || msg.ReaderID != "reader-1" {
			t.Errorf("server received %+v, want cancel_payment from reader-1", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the cancellation request")
	}

	event := recvEvent(t, ch)
	if event.Kind != EventCancelAck {
		t.Fatalf("event = %+v, want EventCancelAck", event)
	}
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	dialer, _ := confirmationServer(t, func(conn *websocket.Conn) {
		time.Sleep(50 * time.Millisecond)
	})

	ch, err := dialer.Dial(context.Background(), 42)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if err := ch.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
