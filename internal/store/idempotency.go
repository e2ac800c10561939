package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

// IdempotencyRecord is the stored first response for a client key.
type IdempotencyRecord struct {
	Key            string          `db:"key"`
	Scope          string          `db:"scope"`
	ResponseStatus int             `db:"response_status"`
	ResponseBody   json.RawMessage `db:"response_body"`
	CreatedAt      time.Time       `db:"created_at"`
}

type IdempotencyRepo struct {
	db *pg.DB
}

// Lookup returns the record stored for key within scope, or ErrNotFound.
// A key stored under another scope is reported as ErrNotFound too.
func (r *IdempotencyRepo) Lookup(ctx context.Context, scope, key string) (IdempotencyRecord, error) {
	rec, err := pg.QueryOneWithRetry(ctx, r.db, "idempotency.lookup", pgx.RowToStructByName[IdempotencyRecord],
		"SELECT substr(key, length(scope) + 2) AS key, scope, response_status, response_body, created_at FROM idempotency_keys WHERE key = $1 AND scope = $2",
		scopedKey(scope, key), scope)
	return rec, translate(err)
}

// Save stores the record unless the key already exists. It returns
// ErrIdempotencyRace when another request claimed the key first.
func (r *IdempotencyRepo) Save(ctx context.Context, rec IdempotencyRecord) error {
	tag, err := r.db.ExecWithRetry(ctx, "idempotency.save",
		`INSERT INTO idempotency_keys (key, scope, response_status, response_body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`,
		scopedKey(rec.Scope, rec.Key), rec.Scope, rec.ResponseStatus, string(rec.ResponseBody))
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyRace
	}
	return nil
}

// Purge deletes records older than maxAge and returns how many were removed.
func (r *IdempotencyRepo) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := r.db.ExecWithRetry(ctx, "idempotency.purge",
		"DELETE FROM idempotency_keys WHERE created_at < now() - make_interval(secs => $1)", maxAge.Seconds())
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

// scopedKey namespaces keys so two clients cannot collide on the same value.
func scopedKey(scope, key string) string {
	return scope + ":" + key
}
