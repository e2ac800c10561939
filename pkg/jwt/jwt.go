package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the shortest accepted signing key in bytes.
const MinKeyLength = 32

var (
	ErrInvalidSigningKey = errors.New("signing key must be at least 32 bytes")
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrInvalidSignature  = errors.New("invalid token signature")
)

// StandardClaims are the registered claims of RFC 7519.
type StandardClaims = jwtlib.RegisteredClaims

// Claims is anything the service can sign.
type Claims = jwtlib.Claims

// At converts t to a NumericDate.
func At(t time.Time) *jwtlib.NumericDate {
	return jwtlib.NewNumericDate(t)
}

// Service signs and verifies tokens with one key.
type Service struct {
	key    []byte
	issuer string
	leeway time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the issuer checked on Parse. Generate does not fill it in.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithLeeway tolerates clock skew when checking time-based claims.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) {
		s.leeway = d
	}
}

// New creates a Service from a raw key.
func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) < MinKeyLength {
		return nil, ErrInvalidSigningKey
	}
	s := &Service{key: append([]byte(nil), key...)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString creates a Service from a string key.
func NewFromString(key string, opts ...Option) (*Service, error) {
	return New([]byte(key), opts...)
}

// Issuer returns the configured issuer.
func (s *Service) Issuer() string {
	return s.issuer
}

// Generate signs claims.
func (s *Service) Generate(claims Claims) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Parse verifies token and decodes it into claims, which must be a pointer.
func (s *Service) Parse(token string, claims Claims) error {
	if token == "" {
		return ErrInvalidToken
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(s.leeway),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	_, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return s.key, nil
	}, opts...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return errors.Join(ErrExpiredToken, err)
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return errors.Join(ErrInvalidSignature, err)
	default:
		return errors.Join(ErrInvalidToken, err)
	}
}
