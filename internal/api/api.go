// Package api implements the JSON endpoints of the storefront: the public
// catalog, RFQ and inquiry submission, CMS reads, customer and admin
// sessions, and the admin back office.
//
// Handlers depend on small repository interfaces that the store package
// satisfies, so the whole surface can be exercised against in-memory fakes.
package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/core/cookie"
	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/integration/storage/s3"
	"github.com/dmitrymomot/storefront/internal/auth"
	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/middleware"
)

type ProductStore interface {
	List(ctx context.Context, f store.ProductFilter) ([]store.Product, int, error)
	GetBySlug(ctx context.Context, slug string, includeHidden bool) (store.Product, error)
	Get(ctx context.Context, id uuid.UUID) (store.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]store.Product, error)
	Create(ctx context.Context, in store.ProductInput) (store.Product, error)
	Update(ctx context.Context, id uuid.UUID, version int, in store.ProductInput) (store.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderStore interface {
	Create(ctx context.Context, in store.NewOrder) (store.Order, error)
	Get(ctx context.Context, id uuid.UUID) (store.Order, error)
	List(ctx context.Context, f store.OrderFilter) ([]store.Order, int, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, p store.Page) ([]store.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, version int, status string) (store.Order, error)
}

type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (store.IdempotencyRecord, error)
	Save(ctx context.Context, rec store.IdempotencyRecord) error
}

type InquiryStore interface {
	Create(ctx context.Context, in store.NewInquiry) (store.Inquiry, error)
	List(ctx context.Context, f store.InquiryFilter) ([]store.Inquiry, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (store.Inquiry, error)
}

type EntryStore interface {
	List(ctx context.Context, f store.EntryFilter) ([]store.Entry, int, error)
	GetBySlug(ctx context.Context, kind, slug string, includeHidden bool) (store.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (store.Entry, error)
	Create(ctx context.Context, kind string, in store.EntryInput) (store.Entry, error)
	Update(ctx context.Context, id uuid.UUID, version int, in store.EntryInput) (store.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ContentStore interface {
	Get(ctx context.Context, key string) (store.ContentSection, error)
	List(ctx context.Context) ([]store.ContentSection, error)
	Upsert(ctx context.Context, key string, version int, title string, body map[string]any) (store.ContentSection, error)
}

type UserStore interface {
	Create(ctx context.Context, in store.NewUser) (store.User, error)
	Get(ctx context.Context, id uuid.UUID) (store.User, error)
	GetByUsername(ctx context.Context, username string) (store.User, error)
	GetByEmail(ctx context.Context, email string) (store.User, error)
}

// Downloads presigns resource files; *s3.Presigner implements it.
type Downloads interface {
	PresignDownload(ctx context.Context, key, filename string) (*s3.Download, error)
}

// Notifier announces new submissions; *notify.Notifier implements it.
type Notifier interface {
	OrderSubmitted(ctx context.Context, o store.Order)
	InquiryReceived(ctx context.Context, q store.Inquiry)
}

// Recorder counts business events; *metrics.Metrics implements it.
type Recorder interface {
	RFQSubmitted()
}

// Deps are the collaborators of the handlers. Downloads, Notifier, Recorder
// and CSRF are optional.
type Deps struct {
	Products    ProductStore
	Orders      OrderStore
	Idempotency IdempotencyStore
	Inquiries   InquiryStore
	Entries     EntryStore
	Content     ContentStore
	Users       UserStore

	Sessions *auth.Service
	Cookies  *cookie.Manager
	CSRF     middleware.CSRFTokens

	Downloads Downloads
	Notifier  Notifier
	Recorder  Recorder
	Logger    *slog.Logger
}

// Repos fills the repository fields from a store bundle.
func (d Deps) Repos(r *store.Repos) Deps {
	d.Products = r.Products
	d.Orders = r.Orders
	d.Idempotency = r.Idempotency
	d.Inquiries = r.Inquiries
	d.Entries = r.Entries
	d.Content = r.Content
	d.Users = r.Users
	return d
}

// Guards are the per-route-class middleware. Nil guards are skipped.
type Guards struct {
	// APILimit applies to every /api route, AuthLimit to sign-in and
	// registration, SubmitLimit to public submission endpoints.
	APILimit    handler.Middleware[*router.Context]
	AuthLimit   handler.Middleware[*router.Context]
	SubmitLimit handler.Middleware[*router.Context]
	CSRF        handler.Middleware[*router.Context]
	Sanitize    handler.Middleware[*router.Context]
}

// Handler serves the API.
type Handler struct {
	Deps
	log *slog.Logger
}

// New creates a Handler.
func New(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	if deps.Cookies == nil {
		deps.Cookies = cookie.New()
	}
	return &Handler{Deps: deps, log: log.With(logger.Component("api"))}
}

// entryPaths maps public URL segments to entry kinds.
var entryPaths = map[string]string{
	"blogs":     store.KindBlog,
	"careers":   store.KindCareer,
	"resources": store.KindResource,
}

// Register mounts every route under /api. Within each route the guards run
// in the order rate limit, CSRF, role check, sanitization.
func (h *Handler) Register(r router.Router[*router.Context], g Guards) {
	r.Route("/api", func(r router.Router[*router.Context]) {
		r.Use(g.APILimit)

		r.Group(func(r router.Router[*router.Context]) {
			r.Use(g.CSRF)

			r.Get("/csrf-token", h.csrfToken)

			r.Get("/products", h.listProducts)
			r.Get("/products/compare", h.compareProducts)
			r.Get("/products/{slug}", h.getProduct)

			r.Get("/content/{key}", h.getContent)

			for path, kind := range entryPaths {
				r.Get("/"+path, h.listEntries(kind))
				r.Get("/"+path+"/{slug}", h.getEntry(kind))
			}
			r.Get("/resources/{slug}/download", h.downloadResource)
		})

		r.Group(func(r router.Router[*router.Context]) {
			r.Use(g.SubmitLimit, g.CSRF, g.Sanitize)

			r.Post("/orders", h.createOrder)
			r.Post("/inquiries", h.createInquiry(store.InquirySourceInquiry))
			r.Get("/contact", h.getContactInfo)
			r.Post("/contact", h.createInquiry(store.InquirySourceContact))
		})

		r.Group(func(r router.Router[*router.Context]) {
			r.Use(g.AuthLimit, g.CSRF, g.Sanitize)

			r.Post("/auth/admin/login", h.adminLogin)
			r.Post("/auth/register", h.register)
			r.Post("/auth/login", h.customerLogin)
		})

		r.Group(func(r router.Router[*router.Context]) {
			r.Use(g.CSRF, middleware.RequireAuth[*router.Context]())

			r.Post("/auth/logout", h.logout)
			r.Get("/auth/me", h.me)
		})

		r.Group(func(r router.Router[*router.Context]) {
			r.Use(g.CSRF, middleware.RequireRole[*router.Context](store.RoleCustomer))

			r.Get("/me/orders", h.myOrders)
		})

		r.Route("/admin", func(r router.Router[*router.Context]) {
			r.Use(g.CSRF, middleware.RequireRole[*router.Context](store.RoleAdmin), g.Sanitize)

			r.Get("/products", h.adminListProducts)
			r.Post("/products", h.adminCreateProduct)
			r.Get("/products/{id}", h.adminGetProduct)
			r.Put("/products/{id}", h.adminUpdateProduct)
			r.Delete("/products/{id}", h.adminDeleteProduct)

			r.Get("/orders", h.adminListOrders)
			r.Get("/orders/{id}", h.adminGetOrder)
			r.Patch("/orders/{id}/status", h.adminUpdateOrderStatus)

			r.Get("/inquiries", h.adminListInquiries)
			r.Patch("/inquiries/{id}/status", h.adminUpdateInquiryStatus)

			r.Get("/entries", h.adminListEntries)
			r.Post("/entries", h.adminCreateEntry)
			r.Get("/entries/{id}", h.adminGetEntry)
			r.Put("/entries/{id}", h.adminUpdateEntry)
			r.Delete("/entries/{id}", h.adminDeleteEntry)

			r.Get("/content", h.adminListContent)
			r.Put("/content/{key}", h.adminUpsertContent)
		})
	})
}
