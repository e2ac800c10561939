package api

import (
	"time"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/core/validator"
	"github.com/dmitrymomot/storefront/middleware"
)

// ContactSection is the content key of the company contact details.
const ContactSection = "contact"

const contentCacheTTL = 5 * time.Minute

type contentRequest struct {
	Title   string         `json:"title" validate:"required,max=200" sanitize:"single_line"`
	Body    map[string]any `json:"body" validate:"required"`
	Version int            `json:"version" validate:"gte=0"`
}

func (h *Handler) getContent(ctx *router.Context) handler.Response {
	key := ctx.Param("key")
	if !validKey(key) {
		return response.Error(response.ErrNotFound)
	}
	c, err := h.Content.Get(ctx, key)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.WithCache(response.JSON(c), contentCacheTTL)
}

func (h *Handler) getContactInfo(ctx *router.Context) handler.Response {
	c, err := h.Content.Get(ctx, ContactSection)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.WithCache(response.JSON(c), contentCacheTTL)
}

// csrfToken hands the session's CSRF token to clients that cannot read
// response headers.
func (h *Handler) csrfToken(ctx *router.Context) handler.Response {
	token, ok := middleware.GetCSRFToken(ctx)
	if !ok {
		return response.Error(response.ErrServiceUnavailable.WithMessage("CSRF token unavailable"))
	}
	return response.WithCache(response.JSON(map[string]string{"csrf_token": token}), 0)
}

func (h *Handler) adminListContent(ctx *router.Context) handler.Response {
	items, err := h.Content.List(ctx)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(map[string]any{"items": items})
}

// adminUpsertContent creates a section with version 0 and updates it with
// the version last read.
func (h *Handler) adminUpsertContent(ctx *router.Context) handler.Response {
	key := ctx.Param("key")
	if !validKey(key) {
		return response.Error(invalid("key", "must contain lowercase letters, digits and single dashes"))
	}
	var req contentRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	c, err := h.Content.Upsert(ctx, key, req.Version, req.Title, req.Body)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(c)
}

func validKey(key string) bool {
	if key == "" || len(key) > 100 {
		return false
	}
	return validator.ValidateStruct(struct {
		Key string `validate:"slug"`
	}{key}) == nil
}
