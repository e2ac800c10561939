package cookie

import (
	"errors"
	"net/http"
	"time"
)

// MaxCookieSize is the largest Set-Cookie value browsers reliably accept.
const MaxCookieSize = 4096

// Manager writes cookies with shared defaults: path "/", HttpOnly,
// SameSite=Lax and Secure when configured for production.
type Manager struct {
	defaults Options
	maxSize  int
	now      func() time.Time
}

// New creates a Manager. opts adjust the defaults.
func New(opts ...Option) *Manager {
	return &Manager{
		defaults: applyOptions(Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}, opts),
		maxSize: MaxCookieSize,
		now:     time.Now,
	}
}

// Cookie builds a cookie living for ttl. A non-positive ttl makes a session
// cookie.
func (m *Manager) Cookie(name, value string, ttl time.Duration, opts ...Option) (*http.Cookie, error) {
	o := applyOptions(m.defaults, opts)
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl / time.Second)
		c.Expires = m.now().Add(ttl).UTC()
	}

	if size := len(c.String()); size > m.maxSize {
		return nil, ErrCookieTooLarge{Name: name, Size: size, Max: m.maxSize}
	}
	return c, nil
}

// Set writes the cookie built by Cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, ttl time.Duration, opts ...Option) error {
	c, err := m.Cookie(name, value, ttl, opts...)
	if err != nil {
		return err
	}
	http.SetCookie(w, c)
	return nil
}

// Get returns the cookie value or ErrCookieNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	if c.Value == "" {
		return "", ErrCookieNotFound
	}
	return c.Value, nil
}

// Expired builds a cookie that clears name in the browser.
func (m *Manager) Expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.defaults.Secure,
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
	}
}

// Delete writes the Expired cookie for name.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.Expired(name))
}
