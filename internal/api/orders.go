package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/middleware"
)

const (
	maxIdempotencyKey = 255
	orderScope        = "orders"
	replayHeader      = "Idempotent-Replayed"
)

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=1000000"`
	Notes     string `json:"notes" validate:"max=500" sanitize:"trim"`
}

type orderRequest struct {
	Company     string             `json:"company" validate:"required,max=200" sanitize:"single_line"`
	ContactName string             `json:"contact_name" validate:"required,max=200" sanitize:"single_line"`
	Email       string             `json:"email" validate:"required,email,max=254" sanitize:"email"`
	Phone       string             `json:"phone" validate:"omitempty,phone" sanitize:"trim"`
	Notes       string             `json:"notes" validate:"max=5000"`
	Items       []orderItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type orderQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=new reviewing quoted closed cancelled"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
	Offset int    `query:"offset" validate:"gte=0"`
}

type orderStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=new reviewing quoted closed cancelled"`
	Version int    `json:"version" validate:"required,gte=1"`
}

// createOrder submits an RFQ. With an Idempotency-Key header the first
// response for that key and session is stored and replayed for retries.
func (h *Handler) createOrder(ctx *router.Context) handler.Response {
	key := strings.TrimSpace(ctx.Request().Header.Get(middleware.IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKey {
		return response.Error(invalid("Idempotency-Key", "must be at most 255 characters"))
	}
	scope := orderScope + ":" + middleware.SessionKey(ctx)

	if key != "" && h.Idempotency != nil {
		rec, err := h.Idempotency.Lookup(ctx, scope, key)
		switch {
		case err == nil:
			return replay(rec)
		case !errors.Is(err, store.ErrNotFound):
			return response.Error(storeError(err))
		}
	}

	var req orderRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}

	in := store.NewOrder{
		Company:     req.Company,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Notes:       req.Notes,
		Items:       make([]store.NewOrderItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		// Already checked by the uuid rule.
		id, _ := uuid.Parse(it.ProductID)
		in.Items = append(in.Items, store.NewOrderItem{ProductID: id, Quantity: it.Quantity, Notes: it.Notes})
	}
	if p, ok := middleware.GetPrincipal(ctx); ok && p.Role == store.RoleCustomer {
		if id, err := uuid.Parse(p.ID); err == nil {
			in.CustomerID = &id
		}
	}

	order, err := h.Orders.Create(ctx, in)
	if err != nil {
		return response.Error(storeError(err))
	}

	h.log.InfoContext(ctx, "rfq submitted", slog.String("reference", order.Reference), slog.Int("items", len(order.Items)))
	if h.Recorder != nil {
		h.Recorder.RFQSubmitted()
	}
	if h.Notifier != nil {
		h.Notifier.OrderSubmitted(ctx, order)
	}

	if key != "" && h.Idempotency != nil {
		h.remember(ctx, scope, key, http.StatusCreated, order)
	}
	return response.Created(order)
}

// remember stores the response for key. Failures only cost the replay.
func (h *Handler) remember(ctx *router.Context, scope, key string, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.ErrorContext(ctx, "idempotent response not encoded", logger.Error(err))
		return
	}
	err = h.Idempotency.Save(ctx, store.IdempotencyRecord{Key: key, Scope: scope, ResponseStatus: status, ResponseBody: body})
	switch {
	case errors.Is(err, store.ErrIdempotencyRace):
		h.log.WarnContext(ctx, "idempotency key used by concurrent requests", slog.String("key", key))
	case err != nil:
		h.log.ErrorContext(ctx, "idempotent response not stored", logger.Error(err))
	}
}

func replay(rec store.IdempotencyRecord) handler.Response {
	return response.WithHeaders(
		response.JSONWithStatus(json.RawMessage(rec.ResponseBody), rec.ResponseStatus),
		map[string]string{replayHeader: "true"},
	)
}

func (h *Handler) myOrders(ctx *router.Context) handler.Response {
	p, _ := middleware.GetPrincipal(ctx)
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return response.Error(response.ErrUnauthorized.WithError(err))
	}
	var q orderQuery
	if err := bindQuery(ctx, &q); err != nil {
		return response.Error(err)
	}
	page := store.Page{Limit: q.Limit, Offset: q.Offset}
	items, total, err := h.Orders.ListByCustomer(ctx, id, page)
	if err != nil {
		return response.Error(storeError(err))
	}
	page = page.Normalize()
	return response.Paginated(items, total, page.Limit, page.Offset)
}

func (h *Handler) adminListOrders(ctx *router.Context) handler.Response {
	var q orderQuery
	if err := bindQuery(ctx, &q); err != nil {
		return response.Error(err)
	}
	f := store.OrderFilter{Status: q.Status, Page: store.Page{Limit: q.Limit, Offset: q.Offset}}
	items, total, err := h.Orders.List(ctx, f)
	if err != nil {
		return response.Error(storeError(err))
	}
	p := f.Page.Normalize()
	return response.Paginated(items, total, p.Limit, p.Offset)
}

func (h *Handler) adminGetOrder(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(o)
}

func (h *Handler) adminUpdateOrderStatus(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	var req orderStatusRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	o, err := h.Orders.UpdateStatus(ctx, id, req.Version, req.Status)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(o)
}
