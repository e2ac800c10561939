package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

// Product is a connector in the catalog.
type Product struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	SKU           string         `db:"sku" json:"sku"`
	Name          string         `db:"name" json:"name"`
	Slug          string         `db:"slug" json:"slug"`
	Category      string         `db:"category" json:"category"`
	Series        string         `db:"series" json:"series"`
	Description   string         `db:"description" json:"description"`
	Specs         map[string]any `db:"specs" json:"specs"`
	PinCount      int            `db:"pin_count" json:"pin_count"`
	CurrentRating float64        `db:"current_rating" json:"current_rating"`
	VoltageRating float64        `db:"voltage_rating" json:"voltage_rating"`
	Mounting      string         `db:"mounting" json:"mounting"`
	ImageURL      string         `db:"image_url" json:"image_url"`
	Published     bool           `db:"published" json:"published"`
	Version       int            `db:"version" json:"version"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	SKU           string
	Name          string
	Slug          string
	Category      string
	Series        string
	Description   string
	Specs         map[string]any
	PinCount      int
	CurrentRating float64
	VoltageRating float64
	Mounting      string
	ImageURL      string
	Published     bool
}

// ProductFilter narrows the catalog listing. Zero values are ignored.
type ProductFilter struct {
	Query         string
	Category      string
	Series        string
	Mounting      string
	MinPins       int
	MaxPins       int
	IncludeHidden bool
	Page          Page
}

const productColumns = `id, sku, name, slug, category, series, description, specs, pin_count,
	current_rating, voltage_rating, mounting, image_url, published, version, created_at, updated_at`

type ProductRepo struct {
	db *pg.DB
}

// List returns one page of matching products and the total match count.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]Product, int, error) {
	var w where
	if !f.IncludeHidden {
		w.add("published")
	}
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		w.add("(name ILIKE ? OR sku ILIKE ? OR description ILIKE ?)", like, like, like)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.Series != "" {
		w.add("series = ?", f.Series)
	}
	if f.Mounting != "" {
		w.add("mounting = ?", f.Mounting)
	}
	if f.MinPins > 0 {
		w.add("pin_count >= ?", f.MinPins)
	}
	if f.MaxPins > 0 {
		w.add("pin_count <= ?", f.MaxPins)
	}

	total, err := pg.QueryOneWithRetry(ctx, r.db, "products.count",
		pgx.RowTo[int], "SELECT count(*)::int FROM products"+w.sql(), w.args...)
	if err != nil {
		return nil, 0, translate(err)
	}

	limit, args := w.page(f.Page.Normalize())
	items, err := pg.QueryWithRetry(ctx, r.db, "products.list", pgx.RowToStructByName[Product],
		"SELECT "+productColumns+" FROM products"+w.sql()+" ORDER BY series, name, id"+limit, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	return items, total, nil
}

// GetBySlug returns a product by slug. Hidden products are only returned when
// includeHidden is set.
func (r *ProductRepo) GetBySlug(ctx context.Context, slug string, includeHidden bool) (Product, error) {
	p, err := pg.QueryOneWithRetry(ctx, r.db, "products.get_by_slug", pgx.RowToStructByName[Product],
		"SELECT "+productColumns+" FROM products WHERE slug = $1 AND (published OR $2)", slug, includeHidden)
	return p, translate(err)
}

// Get returns a product by id, hidden or not.
func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := pg.QueryOneWithRetry(ctx, r.db, "products.get", pgx.RowToStructByName[Product],
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	return p, translate(err)
}

// GetByIDs returns the published products among ids, in the order given.
// Unknown ids are skipped.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := pg.QueryWithRetry(ctx, r.db, "products.get_by_ids", pgx.RowToStructByName[Product],
		"SELECT "+productColumns+" FROM products WHERE published AND id = ANY($1)", ids)
	if err != nil {
		return nil, translate(err)
	}

	byID := make(map[uuid.UUID]Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

// Create inserts a product at version 1.
func (r *ProductRepo) Create(ctx context.Context, in ProductInput) (Product, error) {
	p, err := pg.QueryOneWithRetry(ctx, r.db, "products.create", pgx.RowToStructByName[Product],
		`INSERT INTO products (id, sku, name, slug, category, series, description, specs, pin_count,
			current_rating, voltage_rating, mounting, image_url, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+productColumns,
		uuid.New(), in.SKU, in.Name, in.Slug, in.Category, in.Series, in.Description, specsOrEmpty(in.Specs),
		in.PinCount, in.CurrentRating, in.VoltageRating, in.Mounting, in.ImageURL, in.Published)
	return p, translate(err)
}

// Update replaces the product fields when the stored version equals version,
// and bumps the version. A mismatch returns ErrVersionMismatch.
func (r *ProductRepo) Update(ctx context.Context, id uuid.UUID, version int, in ProductInput) (Product, error) {
	p, err := pg.QueryOneWithRetry(ctx, r.db, "products.update", pgx.RowToStructByName[Product],
		`UPDATE products SET sku = $3, name = $4, slug = $5, category = $6, series = $7, description = $8,
			specs = $9, pin_count = $10, current_rating = $11, voltage_rating = $12, mounting = $13,
			image_url = $14, published = $15, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+productColumns,
		id, version, in.SKU, in.Name, in.Slug, in.Category, in.Series, in.Description, specsOrEmpty(in.Specs),
		in.PinCount, in.CurrentRating, in.VoltageRating, in.Mounting, in.ImageURL, in.Published)
	if pg.IsNotFoundError(err) {
		return Product{}, missOrStale(ctx, r.db, "products", id)
	}
	return p, translate(err)
}

// Delete removes a product. Products referenced by orders cannot be deleted.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.ExecWithRetry(ctx, "products.delete", "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// missOrStale tells a missing row from a version mismatch after a guarded
// UPDATE matched nothing.
func missOrStale(ctx context.Context, db *pg.DB, table string, id any) error {
	key := "id"
	if table == "content_sections" {
		key = "key"
	}
	exists, err := pg.QueryOneWithRetry(ctx, db, table+".exists", pgx.RowTo[bool],
		"SELECT EXISTS (SELECT 1 FROM "+table+" WHERE "+key+" = $1)", id)
	if err != nil {
		return translate(err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionMismatch
}

func specsOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

// IsConflict reports whether err is a duplicate or a version mismatch.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, ErrVersionMismatch)
}
