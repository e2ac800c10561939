// Package store holds the PostgreSQL repositories of the storefront.
//
// Every statement goes through the pg wrapper: reads and single writes use
// the *WithRetry helpers, multi-statement writes run in InTx. Driver errors
// are translated to the sentinels below; connectivity failures that outlive
// the retry policy are returned as they are.
package store

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrVersionMismatch  = errors.New("record was modified by someone else")
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrUnknownProduct   = errors.New("unknown product")
	ErrIdempotencyRace  = errors.New("idempotency key claimed concurrently")
)

// Repos bundles every repository over one pool.
type Repos struct {
	Products    *ProductRepo
	Orders      *OrderRepo
	Idempotency *IdempotencyRepo
	Inquiries   *InquiryRepo
	Entries     *EntryRepo
	Content     *ContentRepo
	Users       *UserRepo
}

// New creates all repositories.
func New(db *pg.DB) *Repos {
	return &Repos{
		Products:    &ProductRepo{db: db},
		Orders:      &OrderRepo{db: db},
		Idempotency: &IdempotencyRepo{db: db},
		Inquiries:   &InquiryRepo{db: db},
		Entries:     &EntryRepo{db: db},
		Content:     &ContentRepo{db: db},
		Users:       &UserRepo{db: db},
	}
}

// translate maps driver errors onto package sentinels, keeping the original
// in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case pg.IsNotFoundError(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case pg.IsDuplicateKeyError(err):
		return fmt.Errorf("%w (%s): %w", ErrDuplicate, pg.ConstraintName(err), err)
	case pg.IsForeignKeyViolationError(err):
		return fmt.Errorf("%w (%s): %w", ErrInvalidReference, pg.ConstraintName(err), err)
	}
	return err
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize clamps the limit to [1, MaxLimit] and the offset to >= 0.
func (p Page) Normalize() Page {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	p.Offset = max(0, p.Offset)
	return p
}
