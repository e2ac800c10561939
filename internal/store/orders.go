package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

// Order statuses.
const (
	OrderStatusNew       = "new"
	OrderStatusReviewing = "reviewing"
	OrderStatusQuoted    = "quoted"
	OrderStatusClosed    = "closed"
	OrderStatusCancelled = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{OrderStatusNew, OrderStatusReviewing, OrderStatusQuoted, OrderStatusClosed, OrderStatusCancelled}

// Order is a request for quote.
type Order struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Reference   string      `db:"reference" json:"reference"`
	CustomerID  *uuid.UUID  `db:"customer_id" json:"customer_id,omitempty"`
	Company     string      `db:"company" json:"company"`
	ContactName string      `db:"contact_name" json:"contact_name"`
	Email       string      `db:"email" json:"email"`
	Phone       string      `db:"phone" json:"phone"`
	Notes       string      `db:"notes" json:"notes"`
	Status      string      `db:"status" json:"status"`
	Version     int         `db:"version" json:"version"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	Items       []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	SKU       string    `db:"sku" json:"sku"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Notes     string    `db:"notes" json:"notes"`
}

// NewOrder is the input of Create.
type NewOrder struct {
	CustomerID  *uuid.UUID
	Company     string
	ContactName string
	Email       string
	Phone       string
	Notes       string
	Items       []NewOrderItem
}

type NewOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
	Notes     string
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status     string
	CustomerID *uuid.UUID
	Page       Page
}

const orderColumns = `id, reference, customer_id, company, contact_name, email, phone, notes, status,
	version, created_at, updated_at`

type OrderRepo struct {
	db  *pg.DB
	now func() time.Time
}

// Create stores an order with its items in one transaction. Items for the
// same product are merged. Unknown or hidden products yield ErrUnknownProduct.
// When called inside an outer InTx it joins that transaction.
func (r *OrderRepo) Create(ctx context.Context, in NewOrder) (Order, error) {
	items := mergeItems(in.Items)
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	var order Order
	err := r.db.InTx(ctx, "orders.create", func(ctx context.Context) error {
		skus, err := pg.QueryWithRetry(ctx, r.db, "orders.lookup_products", pgx.RowToStructByName[productSKU],
			"SELECT id, sku FROM products WHERE published AND id = ANY($1)", ids)
		if err != nil {
			return err
		}
		bySKU := make(map[uuid.UUID]string, len(skus))
		for _, s := range skus {
			bySKU[s.ID] = s.SKU
		}
		for _, it := range items {
			if _, ok := bySKU[it.ProductID]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownProduct, it.ProductID)
			}
		}

		order, err = pg.QueryOneWithRetry(ctx, r.db, "orders.insert", pgx.RowToStructByName[Order],
			`INSERT INTO orders (id, reference, customer_id, company, contact_name, email, phone, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+orderColumns,
			uuid.New(), NewReference(r.clock()), in.CustomerID, in.Company, in.ContactName, in.Email, in.Phone, in.Notes)
		if err != nil {
			return err
		}

		order.Items = make([]OrderItem, 0, len(items))
		for _, it := range items {
			item := OrderItem{ProductID: it.ProductID, SKU: bySKU[it.ProductID], Quantity: it.Quantity, Notes: it.Notes}
			if _, err := r.db.ExecWithRetry(ctx, "orders.insert_item",
				"INSERT INTO order_items (order_id, product_id, sku, quantity, notes) VALUES ($1, $2, $3, $4, $5)",
				order.ID, item.ProductID, item.SKU, item.Quantity, item.Notes); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return Order{}, translate(err)
	}
	return order, nil
}

// Get returns an order with its items.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := pg.QueryOneWithRetry(ctx, r.db, "orders.get", pgx.RowToStructByName[Order],
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		return Order{}, translate(err)
	}
	if err := r.loadItems(ctx, []*Order{&o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

// List returns a page of orders, newest first, with the total match count.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]Order, int, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		w.add("customer_id = ?", *f.CustomerID)
	}

	total, err := pg.QueryOneWithRetry(ctx, r.db, "orders.count",
		pgx.RowTo[int], "SELECT count(*)::int FROM orders"+w.sql(), w.args...)
	if err != nil {
		return nil, 0, translate(err)
	}

	limit, args := w.page(f.Page.Normalize())
	orders, err := pg.QueryWithRetry(ctx, r.db, "orders.list", pgx.RowToStructByName[Order],
		"SELECT "+orderColumns+" FROM orders"+w.sql()+" ORDER BY created_at DESC, id"+limit, args...)
	if err != nil {
		return nil, 0, translate(err)
	}

	ptrs := make([]*Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := r.loadItems(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByCustomer returns a customer's own orders.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, p Page) ([]Order, int, error) {
	return r.List(ctx, OrderFilter{CustomerID: &customerID, Page: p})
}

// UpdateStatus sets the status when the stored version equals version.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, version int, status string) (Order, error) {
	o, err := pg.QueryOneWithRetry(ctx, r.db, "orders.update_status", pgx.RowToStructByName[Order],
		`UPDATE orders SET status = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+orderColumns, id, version, status)
	if pg.IsNotFoundError(err) {
		return Order{}, missOrStale(ctx, r.db, "orders", id)
	}
	if err != nil {
		return Order{}, translate(err)
	}
	if err := r.loadItems(ctx, []*Order{&o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]*Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = []OrderItem{}
	}

	rows, err := pg.QueryWithRetry(ctx, r.db, "orders.items", pgx.RowToStructByName[orderItemRow],
		"SELECT order_id, product_id, sku, quantity, notes FROM order_items WHERE order_id = ANY($1) ORDER BY sku", ids)
	if err != nil {
		return translate(err)
	}
	for _, row := range rows {
		if o, ok := byID[row.OrderID]; ok {
			o.Items = append(o.Items, row.OrderItem)
		}
	}
	return nil
}

func (r *OrderRepo) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

type productSKU struct {
	ID  uuid.UUID `db:"id"`
	SKU string    `db:"sku"`
}

type orderItemRow struct {
	OrderID uuid.UUID `db:"order_id"`
	OrderItem
}

func mergeItems(items []NewOrderItem) []NewOrderItem {
	out := make([]NewOrderItem, 0, len(items))
	idx := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			if it.Notes != "" {
				if out[i].Notes != "" {
					out[i].Notes += "; "
				}
				out[i].Notes += it.Notes
			}
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReference returns an RFQ reference of the form RFQ-YYYYMMDD-XXXXXX.
// The date is taken in UTC.
func NewReference(t time.Time) string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = referenceAlphabet[int(b[i])%len(referenceAlphabet)]
	}
	return "RFQ-" + t.UTC().Format("20060102") + "-" + string(b[:])
}
