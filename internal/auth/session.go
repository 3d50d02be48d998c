package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"

	"kasseapparat/internal/models"
)

// Session is the bearer credential for the remote API together with its
// absolute expiry. The credential itself is opaque; only the expiry claim is
// read client-side, and only to know when to stop using the token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session token may still be presented at the
// given time.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.ExpiresAt)
}

// SessionFromToken builds a session from a JWT by reading its exp claim.
// The signature is not verified here; verification is the server's job and
// the client gains nothing from checking it.
func SessionFromToken(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("session token has no exp claim")
	}

	return &Session{
		Token:     token,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// RefreshFunc exchanges whatever long-lived credential the terminal holds
// for a fresh session.
type RefreshFunc func(ctx context.Context) (*Session, error)

// TokenProvider hands out the current valid bearer token and refreshes it
// when it has expired. A token is never served past its expiry; the small
// leeway makes sure a token that expires mid-request is refreshed up front.
type TokenProvider struct {
	mu      sync.Mutex
	session *Session
	refresh RefreshFunc
	leeway  time.Duration
	now     func() time.Time
}

// NewTokenProvider creates a token provider backed by the given refresh
// function.
func NewTokenProvider(refresh RefreshFunc) *TokenProvider {
	return &TokenProvider{
		refresh: refresh,
		leeway:  10 * time.Second,
		now:     time.Now,
	}
}

// SetSession installs a session obtained elsewhere, e.g. from an initial
// login.
func (p *TokenProvider) SetSession(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = s
}

// CurrentToken returns a bearer token that is valid right now, refreshing
// the session first if needed.
func (p *TokenProvider) CurrentToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session.Valid(p.now().Add(p.leeway)) {
		return p.session.Token, nil
	}

	if p.refresh == nil {
		return "", models.ErrSessionExpired
	}

	session, err := p.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to refresh session: %w", err)
	}
	if !session.Valid(p.now()) {
		return "", models.ErrSessionExpired
	}

	p.session = session
	return session.Token, nil
}
