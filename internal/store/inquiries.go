package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/integration/database/pg"
)

// Inquiry sources.
const (
	InquirySourceInquiry = "inquiry"
	InquirySourceContact = "contact"
)

// Inquiry statuses.
const (
	InquiryStatusNew      = "new"
	InquiryStatusAnswered = "answered"
	InquiryStatusArchived = "archived"
)

var InquiryStatuses = []string{InquiryStatusNew, InquiryStatusAnswered, InquiryStatusArchived}

type Inquiry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Company   string    `db:"company" json:"company"`
	Phone     string    `db:"phone" json:"phone"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	Source    string    `db:"source" json:"source"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NewInquiry struct {
	Name    string
	Email   string
	Company string
	Phone   string
	Subject string
	Message string
	Source  string
}

type InquiryFilter struct {
	Status string
	Source string
	Page   Page
}

const inquiryColumns = "id, name, email, company, phone, subject, message, source, status, created_at"

type InquiryRepo struct {
	db *pg.DB
}

func (r *InquiryRepo) Create(ctx context.Context, in NewInquiry) (Inquiry, error) {
	if in.Source == "" {
		in.Source = InquirySourceInquiry
	}
	q, err := pg.QueryOneWithRetry(ctx, r.db, "inquiries.create", pgx.RowToStructByName[Inquiry],
		`INSERT INTO inquiries (id, name, email, company, phone, subject, message, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+inquiryColumns,
		uuid.New(), in.Name, in.Email, in.Company, in.Phone, in.Subject, in.Message, in.Source)
	return q, translate(err)
}

func (r *InquiryRepo) List(ctx context.Context, f InquiryFilter) ([]Inquiry, int, error) {
	var w where
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Source != "" {
		w.add("source = ?", f.Source)
	}

	total, err := pg.QueryOneWithRetry(ctx, r.db, "inquiries.count",
		pgx.RowTo[int], "SELECT count(*)::int FROM inquiries"+w.sql(), w.args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	limit, args := w.page(f.Page.Normalize())
	items, err := pg.QueryWithRetry(ctx, r.db, "inquiries.list", pgx.RowToStructByName[Inquiry],
		"SELECT "+inquiryColumns+" FROM inquiries"+w.sql()+" ORDER BY created_at DESC, id"+limit, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	return items, total, nil
}

func (r *InquiryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Inquiry, error) {
	q, err := pg.QueryOneWithRetry(ctx, r.db, "inquiries.update_status", pgx.RowToStructByName[Inquiry],
		"UPDATE inquiries SET status = $2 WHERE id = $1 RETURNING "+inquiryColumns, id, status)
	return q, translate(err)
}
