// Package auth signs session tokens for admins and customers, hashes
// passwords and bootstraps the first admin account.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/middleware"
	"github.com/dmitrymomot/storefront/pkg/jwt"
)

const (
	AdminCookie    = "admin_token"
	CustomerCookie = "user_token"

	AdminSessionTTL    = 8 * time.Hour
	CustomerSessionTTL = 7 * 24 * time.Hour

	issuer = "storefront"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is required in production")
	ErrUnknownRole   = errors.New("unknown role")
)

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.StandardClaims
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Session is a freshly signed token with its cookie settings.
type Session struct {
	Token     string
	Cookie    string
	TTL       time.Duration
	ExpiresAt time.Time
}

// Service issues and parses session tokens.
type Service struct {
	tokens *jwt.Service
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service signing with secret.
func NewService(secret string, opts ...Option) (*Service, error) {
	tokens, err := jwt.NewFromString(secret, jwt.WithIssuer(issuer), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	s := &Service{tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a session for u. Admins get an 8h admin_token, customers a
// 7 day user_token.
func (s *Service) Issue(u store.User) (Session, error) {
	cookie, ttl, err := sessionFor(u.Role)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	exp := now.Add(ttl)
	token, err := s.tokens.Generate(&Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.At(now),
			ExpiresAt: jwt.At(exp),
			ID:        uuid.NewString(),
		},
		Role: u.Role,
		Name: u.DisplayName(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Session{Token: token, Cookie: cookie, TTL: ttl, ExpiresAt: exp}, nil
}

// Parse verifies token and returns its principal. It matches
// middleware.TokenParser.
func (s *Service) Parse(token string) (*middleware.Principal, error) {
	var claims Claims
	if err := s.tokens.Parse(token, &claims); err != nil {
		return nil, err
	}
	if _, _, err := sessionFor(claims.Role); err != nil {
		return nil, errors.Join(jwt.ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, errors.Join(jwt.ErrInvalidToken, err)
	}
	return &middleware.Principal{ID: claims.Subject, Role: claims.Role, Name: claims.Name}, nil
}

func sessionFor(role string) (string, time.Duration, error) {
	switch role {
	case store.RoleAdmin:
		return AdminCookie, AdminSessionTTL, nil
	case store.RoleCustomer:
		return CustomerCookie, CustomerSessionTTL, nil
	}
	return "", 0, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// ResolveSecret returns the signing secret. Production refuses to start
// without one; development falls back to a random per-process secret, which
// signs every session out on restart.
func ResolveSecret(secret string, production bool, log *slog.Logger) (string, error) {
	if secret != "" {
		return secret, nil
	}
	if production {
		return "", ErrMissingSecret
	}

	b := make([]byte, jwt.MinKeyLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate secret: %w", err)
	}
	if log != nil {
		log.Warn("JWT_SECRET is not set, using a random secret; sessions will not survive a restart")
	}
	return hex.EncodeToString(b), nil
}
