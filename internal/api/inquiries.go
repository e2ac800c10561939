package api

import (
	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/internal/store"
)

type inquiryRequest struct {
	Name    string `json:"name" validate:"required,max=200" sanitize:"single_line"`
	Email   string `json:"email" validate:"required,email,max=254" sanitize:"email"`
	Company string `json:"company" validate:"max=200" sanitize:"single_line"`
	Phone   string `json:"phone" validate:"omitempty,phone" sanitize:"trim"`
	Subject string `json:"subject" validate:"max=200" sanitize:"single_line"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type inquiryQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=new answered archived"`
	Source string `query:"source" validate:"omitempty,oneof=inquiry contact"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
	Offset int    `query:"offset" validate:"gte=0"`
}

type inquiryStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new answered archived"`
}

// createInquiry stores a product inquiry or a contact form message.
func (h *Handler) createInquiry(source string) handler.HandlerFunc[*router.Context] {
	return func(ctx *router.Context) handler.Response {
		var req inquiryRequest
		if err := bind(ctx, &req); err != nil {
			return response.Error(err)
		}

		q, err := h.Inquiries.Create(ctx, store.NewInquiry{
			Name:    req.Name,
			Email:   req.Email,
			Company: req.Company,
			Phone:   req.Phone,
			Subject: req.Subject,
			Message: req.Message,
			Source:  source,
		})
		if err != nil {
			return response.Error(storeError(err))
		}

		if h.Notifier != nil {
			h.Notifier.InquiryReceived(ctx, q)
		}
		return response.Created(map[string]any{"id": q.ID, "status": q.Status})
	}
}

func (h *Handler) adminListInquiries(ctx *router.Context) handler.Response {
	var q inquiryQuery
	if err := bindQuery(ctx, &q); err != nil {
		return response.Error(err)
	}
	f := store.InquiryFilter{Status: q.Status, Source: q.Source, Page: store.Page{Limit: q.Limit, Offset: q.Offset}}
	items, total, err := h.Inquiries.List(ctx, f)
	if err != nil {
		return response.Error(storeError(err))
	}
	p := f.Page.Normalize()
	return response.Paginated(items, total, p.Limit, p.Offset)
}

func (h *Handler) adminUpdateInquiryStatus(ctx *router.Context) handler.Response {
	id, err := paramID(ctx)
	if err != nil {
		return response.Error(err)
	}
	var req inquiryStatusRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	q, err := h.Inquiries.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(q)
}
