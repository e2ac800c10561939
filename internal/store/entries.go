package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

// Entry kinds.
const (
	KindBlog     = "blog"
	KindCareer   = "career"
	KindResource = "resource"
)

// EntryKinds lists every valid entry kind.
var EntryKinds = []string{KindBlog, KindCareer, KindResource}

// Entry is a blog post, career opening or downloadable resource.
type Entry struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Kind        string         `db:"kind" json:"kind"`
	Slug        string         `db:"slug" json:"slug"`
	Title       string         `db:"title" json:"title"`
	Summary     string         `db:"summary" json:"summary"`
	Body        string         `db:"body" json:"body"`
	Attributes  map[string]any `db:"attributes" json:"attributes"`
	ObjectKey   string         `db:"object_key" json:"-"`
	Published   bool           `db:"published" json:"published"`
	Version     int            `db:"version" json:"version"`
	PublishedAt *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Downloadable reports whether the entry points at a stored object.
func (e Entry) Downloadable() bool { return e.ObjectKey != "" }

type EntryInput struct {
	Slug       string
	Title      string
	Summary    string
	Body       string
	Attributes map[string]any
	ObjectKey  string
	Published  bool
}

type EntryFilter struct {
	Kind          string
	IncludeHidden bool
	Page          Page
}

const entryColumns = `id, kind, slug, title, summary, body, attributes, object_key, published, version,
	published_at, created_at, updated_at`

type EntryRepo struct {
	db *pg.DB
}

// List returns entries of one kind, most recently published first.
func (r *EntryRepo) List(ctx context.Context, f EntryFilter) ([]Entry, int, error) {
	var w where
	w.add("kind = ?", f.Kind)
	if !f.IncludeHidden {
		w.add("published")
	}

	total, err := pg.QueryOneWithRetry(ctx, r.db, "entries.count",
		pgx.RowTo[int], "SELECT count(*)::int FROM entries"+w.sql(), w.args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	limit, args := w.page(f.Page.Normalize())
	items, err := pg.QueryWithRetry(ctx, r.db, "entries.list", pgx.RowToStructByName[Entry],
		"SELECT "+entryColumns+" FROM entries"+w.sql()+
			" ORDER BY published_at DESC NULLS LAST, created_at DESC, id"+limit, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	return items, total, nil
}

// GetBySlug returns an entry of kind by slug.
func (r *EntryRepo) GetBySlug(ctx context.Context, kind, slug string, includeHidden bool) (Entry, error) {
	e, err := pg.QueryOneWithRetry(ctx, r.db, "entries.get_by_slug", pgx.RowToStructByName[Entry],
		"SELECT "+entryColumns+" FROM entries WHERE kind = $1 AND slug = $2 AND (published OR $3)",
		kind, slug, includeHidden)
	return e, translate(err)
}

func (r *EntryRepo) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	e, err := pg.QueryOneWithRetry(ctx, r.db, "entries.get", pgx.RowToStructByName[Entry],
		"SELECT "+entryColumns+" FROM entries WHERE id = $1", id)
	return e, translate(err)
}

// Create inserts an entry. published_at is set when it is created published.
func (r *EntryRepo) Create(ctx context.Context, kind string, in EntryInput) (Entry, error) {
	e, err := pg.QueryOneWithRetry(ctx, r.db, "entries.create", pgx.RowToStructByName[Entry],
		`INSERT INTO entries (id, kind, slug, title, summary, body, attributes, object_key, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CASE WHEN $9 THEN now() END)
		RETURNING `+entryColumns,
		uuid.New(), kind, in.Slug, in.Title, in.Summary, in.Body, specsOrEmpty(in.Attributes), in.ObjectKey, in.Published)
	return e, translate(err)
}

// Update replaces the entry fields when the stored version equals version.
// published_at is stamped on the first publication and kept afterwards.
func (r *EntryRepo) Update(ctx context.Context, id uuid.UUID, version int, in EntryInput) (Entry, error) {
	e, err := pg.QueryOneWithRetry(ctx, r.db, "entries.update", pgx.RowToStructByName[Entry],
		`UPDATE entries SET slug = $3, title = $4, summary = $5, body = $6, attributes = $7, object_key = $8,
			published = $9, published_at = CASE WHEN $9 THEN coalesce(published_at, now()) ELSE published_at END,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+entryColumns,
		id, version, in.Slug, in.Title, in.Summary, in.Body, specsOrEmpty(in.Attributes), in.ObjectKey, in.Published)
	if pg.IsNotFoundError(err) {
		return Entry{}, missOrStale(ctx, r.db, "entries", id)
	}
	return e, translate(err)
}

func (r *EntryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.ExecWithRetry(ctx, "entries.delete", "DELETE FROM entries WHERE id = $1", id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
