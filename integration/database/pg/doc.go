// Package pg wraps a pgx connection pool for the storefront database.
//
// Open builds the pool without waiting for the server. Probe, run in a
// goroutine at startup, checks connectivity with a short retry budget and
// logs whether the service is ready or running degraded.
//
// Every connection checkout is bounded by the connect timeout (2s by default)
// and fails with ErrConnectTimeout, which Classify treats as a connectivity
// fault. The *WithRetry helpers rerun connectivity faults with exponential
// backoff and jitter; constraint, schema, syntax and not-found errors are
// returned after a single attempt.
//
//	db, err := pg.Open(ctx, cfg, pg.WithLogger(log))
//	go db.Probe(ctx)
//
//	products, err := pg.QueryWithRetry(ctx, db, "list products",
//		pgx.RowToStructByName[Product], `SELECT ... FROM products`)
//
//	err = db.InTx(ctx, "create order", func(ctx context.Context) error {
//		_, err := db.Exec(ctx, `INSERT INTO orders ...`) // joins the tx
//		return err
//	})
//
// Migrate applies goose migrations from an fs.FS.
package pg
