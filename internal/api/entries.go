package api

import (
	"errors"
	"path"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/integration/storage/s3"
	"github.com/dmitrymomot/storefront/internal/store"
)

type entryQuery struct {
	Kind   string `query:"kind" validate:"omitempty,oneof=blog career resource"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
	Offset int    `query:"offset" validate:"gte=0"`
}

type entryRequest struct {
	Kind       string         `json:"kind" validate:"omitempty,oneof=blog career resource"`
	Slug       string         `json:"slug" validate:"required,slug,max=200" sanitize:"trim_lower"`
	Title      string         `json:"title" validate:"required,max=300" sanitize:"single_line"`
	Summary    string         `json:"summary" validate:"max=1000"`
	Body       string         `json:"body" validate:"max=100000"`
	Attributes map[string]any `json:"attributes"`
	ObjectKey  string         `json:"object_key" validate:"max=1024" sanitize:"trim"`
	Published  bool           `json:"published"`
	Version    int            `json:"version" validate:"gte=0"`
}

func (e entryRequest) input() store.EntryInput {
	return store.EntryInput{
		Slug:       e.Slug,
		Title:      e.Title,
		Summary:    e.Summary,
		Body:       e.Body,
		Attributes: e.Attributes,
		ObjectKey:  e.ObjectKey,
		Published:  e.Published,
	}
}

// adminEntry adds the storage key hidden from the public JSON.
type adminEntry struct {
	store.Entry
	ObjectKey string `json:"object_key"`
}

func asAdmin(e store.Entry) adminEntry {
	return adminEntry{Entry: e, ObjectKey: e.ObjectKey}
}

func (h *Handler) listEntries(kind string) handler.HandlerFunc[*router.Context] {
	return func(ctx *router.Context) handler.Response {
		var q entryQuery
		if err := bindQuery(ctx, &q); err != nil {
			return response.Error(err)
		}
		f := store.EntryFilter{Kind: kind, Page: store.Page{Limit: q.Limit, Offset: q.Offset}}
		items, total, err := h.Entries.List(ctx, f)
		if err != nil {
			return response.Error(storeError(err))
		}
		p := f.Page.Normalize()
		return response.WithCache(response.Paginated(items, total, p.Limit, p.Offset), contentCacheTTL)
	}
}

func (h *Handler) getEntry(kind string) handler.HandlerFunc[*router.Context] {
	return func(ctx *router.Context) handler.Response {
		e, err := h.Entries.GetBySlug(ctx, kind, ctx.Param("slug"), false)
		if err != nil {
			return response.Error(storeError(err))
		}
		return response.WithCache(response.JSON(e), contentCacheTTL)
	}
}

// downloadResource answers with a short-lived presigned URL for a published
// resource's file.
func (h *Handler) downloadResource(ctx *router.Context) handler.Response {
	if h.Downloads == nil {
		return response.Error(ErrDownloadsDisabled)
	}
	e, err := h.Entries.GetBySlug(ctx, store.KindResource, ctx.Param("slug"), false)
	if err != nil {
		return response.Error(storeError(err))
	}
	if !e.Downloadable() {
		return response.Error(response.ErrNotFound.WithMessage("This resource has no file"))
	}

	d, err := h.Downloads.PresignDownload(ctx, e.ObjectKey, e.Slug+path.Ext(e.ObjectKey))
	switch {
	case errors.Is(err, s3.ErrFileNotFound):
		return response.Error(response.ErrNotFound.WithMessage("This resource has no file").WithError(err))
	case err != nil:
		return response.Error(ErrDownloadsDisabled.WithError(err))
	}
	return response.WithCache(response.JSON(d), 0)
}

func (h *Handler) adminListEntries(ctx *router.Context) handler.Response {
	var q entryQuery
	if err := bindQuery(ctx, &q); err != nil {
		return response.Error(err)
	}
	if q.Kind == "" {
		return response.Error(invalid("kind", "is required"))
	}
	f := store.EntryFilter{Kind: q.Kind, IncludeHidden: true, Page: store.Page{Limit: q.Limit, Offset: q.Offset}}
	items, total, err := h.Entries.List(ctx, f)
	if err != nil {
		return response.Error(storeError(err))
	}
	out := make([]adminEntry, len(items))
	for i, e := range items {
		out[i] = asAdmin(e)
	}
	p := f.Page.Normalize()
	return response.Paginated(out, total, p.Limit, p.Offset)
}

func (h *Handler) adminGetEntry(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	e, err := h.Entries.Get(ctx, id)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(asAdmin(e))
}

func (h *Handler) adminCreateEntry(ctx *router.Context) handler.Response {
	var req entryRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	if req.Kind == "" {
		return response.Error(invalid("kind", "is required"))
	}
	e, err := h.Entries.Create(ctx, req.Kind, req.input())
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.Created(asAdmin(e))
}

func (h *Handler) adminUpdateEntry(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	var req entryRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	if req.Version < 1 {
		return response.Error(invalid("version", "is required"))
	}
	e, err := h.Entries.Update(ctx, id, req.Version, req.input())
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(asAdmin(e))
}

func (h *Handler) adminDeleteEntry(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	if err := h.Entries.Delete(ctx, id); err != nil {
		return response.Error(storeError(err))
	}
	return response.NoContent()
}
