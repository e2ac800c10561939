package api_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/integration/storage/s3"
	"github.com/dmitrymomot/storefront/internal/store"
)

type fakeProducts struct {
	mu    sync.Mutex
	items map[uuid.UUID]store.Product
}

func newFakeProducts(ps ...store.Product) *fakeProducts {
	f := &fakeProducts{items: make(map[uuid.UUID]store.Product)}
	for _, p := range ps {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, flt store.ProductFilter) ([]store.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Product
	for _, p := range f.items {
		if (p.Published || flt.IncludeHidden) && (flt.Category == "" || p.Category == flt.Category) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b store.Product) int { return compareStrings(a.Name, b.Name) })
	return out, len(out), nil
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string, includeHidden bool) (store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Slug == slug && (p.Published || includeHidden) {
			return p, nil
		}
	}
	return store.Product{}, store.ErrNotFound
}

func (f *fakeProducts) Get(_ context.Context, id uuid.UUID) (store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []uuid.UUID) ([]store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Product
	for _, id := range ids {
		if p, ok := f.items[id]; ok && p.Published {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Create(_ context.Context, in store.ProductInput) (store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.SKU == in.SKU || p.Slug == in.Slug {
			return store.Product{}, store.ErrDuplicate
		}
	}
	p := applyProduct(store.Product{ID: uuid.New(), Version: 1, CreatedAt: time.Now()}, in)
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeProducts) Update(_ context.Context, id uuid.UUID, version int, in store.ProductInput) (store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	switch {
	case !ok:
		return store.Product{}, store.ErrNotFound
	case p.Version != version:
		return store.Product{}, store.ErrVersionMismatch
	}
	p = applyProduct(p, in)
	p.Version++
	f.items[id] = p
	return p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func applyProduct(p store.Product, in store.ProductInput) store.Product {
	p.SKU, p.Name, p.Slug, p.Category, p.Series = in.SKU, in.Name, in.Slug, in.Category, in.Series
	p.Description, p.Specs, p.PinCount = in.Description, in.Specs, in.PinCount
	p.CurrentRating, p.VoltageRating, p.Mounting = in.CurrentRating, in.VoltageRating, in.Mounting
	p.ImageURL, p.Published = in.ImageURL, in.Published
	p.UpdatedAt = time.Now()
	return p
}

type fakeOrders struct {
	mu       sync.Mutex
	products *fakeProducts
	items    map[uuid.UUID]store.Order
	creates  int
}

func (f *fakeOrders) Create(ctx context.Context, in store.NewOrder) (store.Order, error) {
	o := store.Order{
		ID:          uuid.New(),
		Reference:   store.NewReference(time.Now()),
		CustomerID:  in.CustomerID,
		Company:     in.Company,
		ContactName: in.ContactName,
		Email:       in.Email,
		Phone:       in.Phone,
		Notes:       in.Notes,
		Status:      store.OrderStatusNew,
		Version:     1,
	}
	for _, it := range in.Items {
		p, err := f.products.Get(ctx, it.ProductID)
		if err != nil || !p.Published {
			return store.Order{}, store.ErrUnknownProduct
		}
		o.Items = append(o.Items, store.OrderItem{ProductID: p.ID, SKU: p.SKU, Quantity: it.Quantity, Notes: it.Notes})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[o.ID] = o
	f.creates++
	return o, nil
}

func (f *fakeOrders) Get(_ context.Context, id uuid.UUID) (store.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) List(_ context.Context, flt store.OrderFilter) ([]store.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Order
	for _, o := range f.items {
		if (flt.Status == "" || o.Status == flt.Status) &&
			(flt.CustomerID == nil || (o.CustomerID != nil && *o.CustomerID == *flt.CustomerID)) {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrders) ListByCustomer(ctx context.Context, id uuid.UUID, p store.Page) ([]store.Order, int, error) {
	return f.List(ctx, store.OrderFilter{CustomerID: &id, Page: p})
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id uuid.UUID, version int, status string) (store.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	switch {
	case !ok:
		return store.Order{}, store.ErrNotFound
	case o.Version != version:
		return store.Order{}, store.ErrVersionMismatch
	}
	o.Status = status
	o.Version++
	f.items[id] = o
	return o, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type fakeIdempotency struct {
	mu      sync.Mutex
	records map[string]store.IdempotencyRecord
}

func (f *fakeIdempotency) Lookup(_ context.Context, scope, key string) (store.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[scope+":"+key]
	if !ok {
		return store.IdempotencyRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeIdempotency) Save(_ context.Context, rec store.IdempotencyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := rec.Scope + ":" + rec.Key
	if _, ok := f.records[k]; ok {
		return store.ErrIdempotencyRace
	}
	f.records[k] = rec
	return nil
}

type fakeInquiries struct {
	mu    sync.Mutex
	items []store.Inquiry
}

func (f *fakeInquiries) Create(_ context.Context, in store.NewInquiry) (store.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := store.Inquiry{
		ID: uuid.New(), Name: in.Name, Email: in.Email, Company: in.Company, Phone: in.Phone,
		Subject: in.Subject, Message: in.Message, Source: in.Source, Status: store.InquiryStatusNew,
	}
	f.items = append(f.items, q)
	return q, nil
}

func (f *fakeInquiries) List(_ context.Context, _ store.InquiryFilter) ([]store.Inquiry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items), len(f.items), nil
}

func (f *fakeInquiries) UpdateStatus(_ context.Context, id uuid.UUID, status string) (store.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, q := range f.items {
		if q.ID == id {
			f.items[i].Status = status
			return f.items[i], nil
		}
	}
	return store.Inquiry{}, store.ErrNotFound
}

type fakeEntries struct {
	mu    sync.Mutex
	items map[uuid.UUID]store.Entry
}

func (f *fakeEntries) List(_ context.Context, flt store.EntryFilter) ([]store.Entry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Entry
	for _, e := range f.items {
		if e.Kind == flt.Kind && (e.Published || flt.IncludeHidden) {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeEntries) GetBySlug(_ context.Context, kind, slug string, includeHidden bool) (store.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.items {
		if e.Kind == kind && e.Slug == slug && (e.Published || includeHidden) {
			return e, nil
		}
	}
	return store.Entry{}, store.ErrNotFound
}

func (f *fakeEntries) Get(_ context.Context, id uuid.UUID) (store.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[id]
	if !ok {
		return store.Entry{}, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeEntries) Create(_ context.Context, kind string, in store.EntryInput) (store.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := store.Entry{
		ID: uuid.New(), Kind: kind, Slug: in.Slug, Title: in.Title, Summary: in.Summary, Body: in.Body,
		Attributes: in.Attributes, ObjectKey: in.ObjectKey, Published: in.Published, Version: 1,
	}
	f.items[e.ID] = e
	return e, nil
}

func (f *fakeEntries) Update(_ context.Context, id uuid.UUID, version int, in store.EntryInput) (store.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[id]
	switch {
	case !ok:
		return store.Entry{}, store.ErrNotFound
	case e.Version != version:
		return store.Entry{}, store.ErrVersionMismatch
	}
	e.Slug, e.Title, e.Summary, e.Body = in.Slug, in.Title, in.Summary, in.Body
	e.Attributes, e.ObjectKey, e.Published = in.Attributes, in.ObjectKey, in.Published
	e.Version++
	f.items[id] = e
	return e, nil
}

func (f *fakeEntries) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeContent struct {
	mu    sync.Mutex
	items map[string]store.ContentSection
}

func (f *fakeContent) Get(_ context.Context, key string) (store.ContentSection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[key]
	if !ok {
		return store.ContentSection{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeContent) List(_ context.Context) ([]store.ContentSection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.ContentSection
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContent) Upsert(_ context.Context, key string, version int, title string, body map[string]any) (store.ContentSection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, exists := f.items[key]
	if exists != (version > 0) || (exists && c.Version != version) {
		return store.ContentSection{}, store.ErrVersionMismatch
	}
	c = store.ContentSection{Key: key, Title: title, Body: body, Version: version + 1}
	f.items[key] = c
	return c, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	items map[uuid.UUID]store.User
}

func (f *fakeUsers) Create(_ context.Context, in store.NewUser) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if (in.Email != "" && u.Email != nil && *u.Email == in.Email) ||
			(in.Username != "" && u.Username != nil && *u.Username == in.Username) {
			return store.User{}, store.ErrDuplicate
		}
	}
	u := store.User{ID: uuid.New(), Role: in.Role, PasswordHash: in.PasswordHash, Name: in.Name, Company: in.Company}
	if in.Email != "" {
		u.Email = &in.Email
	}
	if in.Username != "" {
		u.Username = &in.Username
	}
	f.items[u.ID] = u
	return u, nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.Username != nil && *u.Username == username {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.Email != nil && *u.Email == email {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

type fakeDownloads struct{}

func (fakeDownloads) PresignDownload(_ context.Context, key, filename string) (*s3.Download, error) {
	if key == "missing.pdf" {
		return nil, s3.ErrFileNotFound
	}
	return &s3.Download{URL: "https://files.example.com/" + key + "?name=" + filename, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	orders    []store.Order
	inquiries []store.Inquiry
}

func (f *fakeNotifier) OrderSubmitted(_ context.Context, o store.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o)
}

func (f *fakeNotifier) InquiryReceived(_ context.Context, q store.Inquiry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inquiries = append(f.inquiries, q)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
