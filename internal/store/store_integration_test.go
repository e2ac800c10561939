//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dmitrymomot/storefront/integration/database/pg"
	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/migrations"
	"github.com/dmitrymomot/storefront/pkg/retry"
)

func openStore(t *testing.T) (*pg.DB, *store.Repos) {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pg.Open(ctx, pg.DefaultConfig(dsn), pg.WithRetryOptions(
		retry.WithBackoff(retry.WithInitialDelay(10*time.Millisecond), retry.WithMaxDelay(50*time.Millisecond)),
	))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Probe(ctx))
	require.NoError(t, pg.Migrate(ctx, db, migrations.FS, nil))
	return db, store.New(db)
}

func TestRepos_Integration(t *testing.T) {
	db, repos := openStore(t)
	ctx := context.Background()

	m12, err := repos.Products.Create(ctx, store.ProductInput{
		SKU: "M12-A4-F", Name: "M12 A-coded 4 pin female", Slug: "m12-a4-f", Category: "circular",
		Series: "M12", PinCount: 4, CurrentRating: 4, VoltageRating: 250, Mounting: "panel",
		Specs: map[string]any{"ip": "IP67"}, Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m12.Version)

	m8, err := repos.Products.Create(ctx, store.ProductInput{
		SKU: "M8-3-M", Name: "M8 3 pin male", Slug: "m8-3-m", Category: "circular",
		Series: "M8", PinCount: 3, Mounting: "cable", Published: true,
	})
	require.NoError(t, err)

	hidden, err := repos.Products.Create(ctx, store.ProductInput{SKU: "X-1", Name: "Prototype", Slug: "x-1"})
	require.NoError(t, err)

	t.Run("products", func(t *testing.T) {
		items, total, err := repos.Products.List(ctx, store.ProductFilter{Category: "circular", MinPins: 4})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "IP67", items[0].Specs["ip"])

		_, total, err = repos.Products.List(ctx, store.ProductFilter{Query: "pin"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		_, err = repos.Products.GetBySlug(ctx, "x-1", false)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = repos.Products.GetBySlug(ctx, "x-1", true)
		assert.NoError(t, err)

		cmp, err := repos.Products.GetByIDs(ctx, []uuid.UUID{m8.ID, hidden.ID, m12.ID})
		require.NoError(t, err)
		require.Len(t, cmp, 2)
		assert.Equal(t, m8.ID, cmp[0].ID)
		assert.Equal(t, m12.ID, cmp[1].ID)

		_, err = repos.Products.Create(ctx, store.ProductInput{SKU: "M12-A4-F", Name: "dup", Slug: "dup"})
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("optimistic product update", func(t *testing.T) {
		in := store.ProductInput{SKU: m8.SKU, Name: "M8 3 pin male, shielded", Slug: m8.Slug, Published: true}
		updated, err := repos.Products.Update(ctx, m8.ID, 1, in)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)

		_, err = repos.Products.Update(ctx, m8.ID, 1, in)
		assert.ErrorIs(t, err, store.ErrVersionMismatch)

		_, err = repos.Products.Update(ctx, uuid.New(), 1, in)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("orders", func(t *testing.T) {
		order, err := repos.Orders.Create(ctx, store.NewOrder{
			ContactName: "Ada", Email: "ada@example.com", Company: "Acme",
			Items: []store.NewOrderItem{{ProductID: m12.ID, Quantity: 10}, {ProductID: m12.ID, Quantity: 5}},
		})
		require.NoError(t, err)
		assert.Regexp(t, `^RFQ-\d{8}-[A-Z0-9]{6}$`, order.Reference)
		assert.Equal(t, store.OrderStatusNew, order.Status)
		require.Len(t, order.Items, 1)
		assert.Equal(t, 15, order.Items[0].Quantity)
		assert.Equal(t, "M12-A4-F", order.Items[0].SKU)

		_, err = repos.Orders.Create(ctx, store.NewOrder{
			ContactName: "Ada", Email: "ada@example.com",
			Items: []store.NewOrderItem{{ProductID: hidden.ID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, store.ErrUnknownProduct)

		got, err := repos.Orders.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)

		updated, err := repos.Orders.UpdateStatus(ctx, order.ID, 1, store.OrderStatusQuoted)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		_, err = repos.Orders.UpdateStatus(ctx, order.ID, 1, store.OrderStatusClosed)
		assert.ErrorIs(t, err, store.ErrVersionMismatch)

		list, total, err := repos.Orders.List(ctx, store.OrderFilter{Status: store.OrderStatusQuoted})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, list[0].Items, 1)
	})

	t.Run("idempotency in one transaction with the order", func(t *testing.T) {
		body := json.RawMessage(`{"reference":"RFQ-1"}`)
		rec := store.IdempotencyRecord{Key: "k-1", Scope: "anon:1.2.3.4", ResponseStatus: 201, ResponseBody: body}

		require.NoError(t, db.InTx(ctx, "rfq", func(ctx context.Context) error {
			if _, err := repos.Orders.Create(ctx, store.NewOrder{
				ContactName: "Bob", Email: "bob@example.com",
				Items: []store.NewOrderItem{{ProductID: m8.ID, Quantity: 1}},
			}); err != nil {
				return err
			}
			return repos.Idempotency.Save(ctx, rec)
		}))

		got, err := repos.Idempotency.Lookup(ctx, rec.Scope, rec.Key)
		require.NoError(t, err)
		assert.Equal(t, "k-1", got.Key)
		assert.Equal(t, 201, got.ResponseStatus)
		assert.JSONEq(t, string(body), string(got.ResponseBody))

		_, err = repos.Idempotency.Lookup(ctx, "anon:other", rec.Key)
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = repos.Idempotency.Save(ctx, rec)
		assert.ErrorIs(t, err, store.ErrIdempotencyRace)

		raced := errors.New("rolled back")
		err = db.InTx(ctx, "rfq", func(ctx context.Context) error {
			if _, err := repos.Orders.Create(ctx, store.NewOrder{
				ContactName: "Bob", Email: "bob@example.com",
				Items: []store.NewOrderItem{{ProductID: m8.ID, Quantity: 1}},
			}); err != nil {
				return err
			}
			return raced
		})
		assert.ErrorIs(t, err, raced)
		_, total, err := repos.Orders.List(ctx, store.OrderFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("entries", func(t *testing.T) {
		draft, err := repos.Entries.Create(ctx, store.KindResource, store.EntryInput{
			Slug: "m12-datasheet", Title: "M12 datasheet", ObjectKey: "datasheets/m12.pdf",
		})
		require.NoError(t, err)
		assert.Nil(t, draft.PublishedAt)

		_, err = repos.Entries.GetBySlug(ctx, store.KindResource, "m12-datasheet", false)
		assert.ErrorIs(t, err, store.ErrNotFound)

		pub, err := repos.Entries.Update(ctx, draft.ID, 1, store.EntryInput{
			Slug: "m12-datasheet", Title: "M12 datasheet", ObjectKey: "datasheets/m12.pdf", Published: true,
		})
		require.NoError(t, err)
		require.NotNil(t, pub.PublishedAt)
		assert.True(t, pub.Downloadable())

		list, total, err := repos.Entries.List(ctx, store.EntryFilter{Kind: store.KindResource})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, pub.ID, list[0].ID)

		_, err = repos.Entries.Create(ctx, store.KindResource, store.EntryInput{Slug: "m12-datasheet", Title: "dup"})
		assert.ErrorIs(t, err, store.ErrDuplicate)
		_, err = repos.Entries.Create(ctx, store.KindBlog, store.EntryInput{Slug: "m12-datasheet", Title: "same slug, other kind"})
		assert.NoError(t, err)

		require.NoError(t, repos.Entries.Delete(ctx, draft.ID))
		assert.ErrorIs(t, repos.Entries.Delete(ctx, draft.ID), store.ErrNotFound)
	})

	t.Run("content", func(t *testing.T) {
		c, err := repos.Content.Upsert(ctx, "about-us", 0, "About us", map[string]any{"text": "Since 1987"})
		require.NoError(t, err)
		assert.Equal(t, 1, c.Version)

		_, err = repos.Content.Upsert(ctx, "about-us", 0, "again", nil)
		assert.ErrorIs(t, err, store.ErrVersionMismatch)

		c, err = repos.Content.Upsert(ctx, "about-us", 1, "About", map[string]any{"text": "Since 1988"})
		require.NoError(t, err)
		assert.Equal(t, 2, c.Version)

		_, err = repos.Content.Upsert(ctx, "missing", 3, "x", nil)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("users and inquiries", func(t *testing.T) {
		n, err := repos.Users.CountAdmins(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = repos.Users.Create(ctx, store.NewUser{Role: store.RoleAdmin, Username: "admin", PasswordHash: "x"})
		require.NoError(t, err)
		u, err := repos.Users.Create(ctx, store.NewUser{Role: store.RoleCustomer, Email: "Eve@Example.com", PasswordHash: "x"})
		require.NoError(t, err)

		got, err := repos.Users.GetByEmail(ctx, "eve@example.COM")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = repos.Users.Create(ctx, store.NewUser{Role: store.RoleCustomer, Email: "eve@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, store.ErrDuplicate)

		q, err := repos.Inquiries.Create(ctx, store.NewInquiry{Name: "Eve", Email: "eve@example.com", Message: "Price?"})
		require.NoError(t, err)
		assert.Equal(t, store.InquirySourceInquiry, q.Source)

		q, err = repos.Inquiries.UpdateStatus(ctx, q.ID, store.InquiryStatusAnswered)
		require.NoError(t, err)
		assert.Equal(t, store.InquiryStatusAnswered, q.Status)
	})
}
