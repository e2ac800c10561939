package api

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/internal/store"
)

// MaxCompare caps the products of one comparison.
const MaxCompare = 4

const catalogCacheTTL = time.Minute

type productQuery struct {
	Query    string `query:"q" validate:"max=100"`
	Category string `query:"category" validate:"max=100"`
	Series   string `query:"series" validate:"max=100"`
	Mounting string `query:"mounting" validate:"max=50"`
	MinPins  int    `query:"min_pins" validate:"gte=0"`
	MaxPins  int    `query:"max_pins" validate:"gte=0"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

func (q productQuery) filter(includeHidden bool) store.ProductFilter {
	return store.ProductFilter{
		Query:         strings.TrimSpace(q.Query),
		Category:      q.Category,
		Series:        q.Series,
		Mounting:      q.Mounting,
		MinPins:       q.MinPins,
		MaxPins:       q.MaxPins,
		IncludeHidden: includeHidden,
		Page:          store.Page{Limit: q.Limit, Offset: q.Offset},
	}
}

type productRequest struct {
	SKU           string         `json:"sku" validate:"required,max=64" sanitize:"trim"`
	Name          string         `json:"name" validate:"required,max=200" sanitize:"single_line"`
	Slug          string         `json:"slug" validate:"required,slug,max=200" sanitize:"trim_lower"`
	Category      string         `json:"category" validate:"required,max=100" sanitize:"single_line"`
	Series        string         `json:"series" validate:"max=100" sanitize:"single_line"`
	Description   string         `json:"description" validate:"max=20000"`
	Specs         map[string]any `json:"specs"`
	PinCount      int            `json:"pin_count" validate:"gte=0,lte=1000"`
	CurrentRating float64        `json:"current_rating" validate:"gte=0"`
	VoltageRating float64        `json:"voltage_rating" validate:"gte=0"`
	Mounting      string         `json:"mounting" validate:"max=50" sanitize:"single_line"`
	ImageURL      string         `json:"image_url" validate:"omitempty,url,max=2048" sanitize:"trim"`
	Published     bool           `json:"published"`
	// Version is required on update and ignored on create.
	Version int `json:"version" validate:"gte=0"`
}

func (p productRequest) input() store.ProductInput {
	return store.ProductInput{
		SKU:           strings.TrimSpace(p.SKU),
		Name:          p.Name,
		Slug:          p.Slug,
		Category:      p.Category,
		Series:        p.Series,
		Description:   p.Description,
		Specs:         p.Specs,
		PinCount:      p.PinCount,
		CurrentRating: p.CurrentRating,
		VoltageRating: p.VoltageRating,
		Mounting:      p.Mounting,
		ImageURL:      p.ImageURL,
		Published:     p.Published,
	}
}

func (h *Handler) listProducts(ctx *router.Context) handler.Response {
	var q productQuery
	if err := bindQuery(ctx, &q); err != nil {
		return response.Error(err)
	}
	f := q.filter(false)
	items, total, err := h.Products.List(ctx, f)
	if err != nil {
		return response.Error(storeError(err))
	}
	p := f.Page.Normalize()
	return response.WithCache(response.Paginated(items, total, p.Limit, p.Offset), catalogCacheTTL)
}

func (h *Handler) getProduct(ctx *router.Context) handler.Response {
	p, err := h.Products.GetBySlug(ctx, ctx.Param("slug"), false)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.WithCache(response.JSON(p), catalogCacheTTL)
}

// compareProducts returns up to MaxCompare published products by id, in the
// order requested: GET /api/products/compare?ids=a,b,c
func (h *Handler) compareProducts(ctx *router.Context) handler.Response {
	raw := ctx.Request().URL.Query()["ids"]
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, v := range raw {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return response.Error(invalid("ids", "must be a comma separated list of product ids"))
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	switch {
	case len(ids) == 0:
		return response.Error(invalid("ids", "is required"))
	case len(ids) > MaxCompare:
		return response.Error(invalid("ids", "must contain at most 4 item(s)"))
	}

	items, err := h.Products.GetByIDs(ctx, ids)
	if err != nil {
		return response.Error(storeError(err))
	}
	if items == nil {
		items = []store.Product{}
	}
	return response.JSON(map[string]any{"items": items})
}

func (h *Handler) adminListProducts(ctx *router.Context) handler.Response {
	var q productQuery
	if err := bindQuery(ctx, &q); err != nil {
		return response.Error(err)
	}
	f := q.filter(true)
	items, total, err := h.Products.List(ctx, f)
	if err != nil {
		return response.Error(storeError(err))
	}
	p := f.Page.Normalize()
	return response.Paginated(items, total, p.Limit, p.Offset)
}

func (h *Handler) adminGetProduct(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	p, err := h.Products.Get(ctx, id)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(p)
}

func (h *Handler) adminCreateProduct(ctx *router.Context) handler.Response {
	var req productRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	p, err := h.Products.Create(ctx, req.input())
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.Created(p)
}

// adminUpdateProduct replaces a product. The body must carry the version the
// client read; a concurrent edit makes it stale and the update is refused
// with 409 instead of overwriting the other change.
func (h *Handler) adminUpdateProduct(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	var req productRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	if req.Version < 1 {
		return response.Error(invalid("version", "is required"))
	}
	p, err := h.Products.Update(ctx, id, req.Version, req.input())
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(p)
}

func (h *Handler) adminDeleteProduct(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	if err := h.Products.Delete(ctx, id); err != nil {
		return response.Error(storeError(err))
	}
	return response.NoContent()
}
