package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

// ContentSection is a keyed CMS block (about-us, policies, contact info, home
// page blocks).
type ContentSection struct {
	Key       string         `db:"key" json:"key"`
	Title     string         `db:"title" json:"title"`
	Body      map[string]any `db:"body" json:"body"`
	Version   int            `db:"version" json:"version"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

const contentColumns = "key, title, body, version, updated_at"

type ContentRepo struct {
	db *pg.DB
}

func (r *ContentRepo) Get(ctx context.Context, key string) (ContentSection, error) {
	c, err := pg.QueryOneWithRetry(ctx, r.db, "content.get", pgx.RowToStructByName[ContentSection],
		"SELECT "+contentColumns+" FROM content_sections WHERE key = $1", key)
	return c, translate(err)
}

func (r *ContentRepo) List(ctx context.Context) ([]ContentSection, error) {
	items, err := pg.QueryWithRetry(ctx, r.db, "content.list", pgx.RowToStructByName[ContentSection],
		"SELECT "+contentColumns+" FROM content_sections ORDER BY key")
	return items, translate(err)
}

// Upsert creates the section when version is 0, otherwise updates it when the
// stored version equals version. Creating an existing key and updating with a
// stale version both return ErrVersionMismatch.
func (r *ContentRepo) Upsert(ctx context.Context, key string, version int, title string, body map[string]any) (ContentSection, error) {
	if version == 0 {
		c, err := pg.QueryOneWithRetry(ctx, r.db, "content.create", pgx.RowToStructByName[ContentSection],
			`INSERT INTO content_sections (key, title, body) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO NOTHING
			RETURNING `+contentColumns, key, title, specsOrEmpty(body))
		if pg.IsNotFoundError(err) {
			return ContentSection{}, ErrVersionMismatch
		}
		return c, translate(err)
	}

	c, err := pg.QueryOneWithRetry(ctx, r.db, "content.update", pgx.RowToStructByName[ContentSection],
		`UPDATE content_sections SET title = $3, body = $4, version = version + 1, updated_at = now()
		WHERE key = $1 AND version = $2
		RETURNING `+contentColumns, key, version, title, specsOrEmpty(body))
	if pg.IsNotFoundError(err) {
		return ContentSection{}, missOrStale(ctx, r.db, "content_sections", key)
	}
	return c, translate(err)
}
