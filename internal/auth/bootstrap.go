package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/internal/store"
)

// AdminStore is the part of the user repository EnsureAdmin needs.
type AdminStore interface {
	CountAdmins(ctx context.Context) (int, error)
	Create(ctx context.Context, in store.NewUser) (store.User, error)
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet. It does
// nothing when credentials are not configured or an admin is present, so the
// DEFAULT_ADMIN_* variables are only honoured once.
func EnsureAdmin(ctx context.Context, users AdminStore, username, password string, log *slog.Logger) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	n, err := users.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	_, err = users.Create(ctx, store.NewUser{
		Role:         store.RoleAdmin,
		Username:     username,
		PasswordHash: hash,
		Name:         username,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Another instance won the race.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	log.InfoContext(ctx, "bootstrap admin created", logger.Component("auth"), slog.String("username", username))
	return true, nil
}
