// Package csrf issues and validates per-session anti-forgery tokens.
//
// A token is bound to a session key and lives in a tokenstore.Store. Issuing
// again while the token is live returns the same token and slides its expiry
// forward; once it expires a fresh token is minted and the old one stops
// validating.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/storefront/pkg/tokenstore"
)

const (
	DefaultTTL         = 24 * time.Hour
	DefaultTokenLength = 32
	HeaderName         = "X-CSRF-Token"
)

var (
	ErrMissingToken = errors.New("csrf token missing")
	ErrInvalidToken = errors.New("csrf token invalid or expired")
	ErrMissingKey   = errors.New("csrf session key missing")
)

// Manager issues and validates tokens.
type Manager struct {
	store    tokenstore.Store
	ttl      time.Duration
	generate func() (string, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets how long an unused token stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithGenerator replaces the random token source.
func WithGenerator(fn func() (string, error)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.generate = fn
		}
	}
}

// NewManager creates a Manager on top of a store reserved for CSRF tokens.
func NewManager(store tokenstore.Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		ttl:      DefaultTTL,
		generate: randomToken,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue returns the live token for sessionKey, or mints one.
func (m *Manager) Issue(ctx context.Context, sessionKey string) (string, error) {
	if sessionKey == "" {
		return "", ErrMissingKey
	}
	candidate, err := m.generate()
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	rec, err := m.store.Issue(ctx, sessionKey, candidate, m.ttl)
	if err != nil {
		return "", fmt.Errorf("issue csrf token: %w", err)
	}
	return rec.Value, nil
}

// Validate compares token with the one stored for sessionKey.
func (m *Manager) Validate(ctx context.Context, sessionKey, token string) error {
	if token == "" {
		return ErrMissingToken
	}
	if sessionKey == "" {
		return ErrMissingKey
	}
	rec, err := m.store.Get(ctx, sessionKey)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("load csrf token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(rec.Value), []byte(token)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Invalidate drops the token for sessionKey, e.g. on logout.
func (m *Manager) Invalidate(ctx context.Context, sessionKey string) error {
	return m.store.Delete(ctx, sessionKey)
}

func randomToken() (string, error) {
	b := make([]byte, DefaultTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
