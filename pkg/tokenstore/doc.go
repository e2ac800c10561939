// Package tokenstore provides keyed storage with per-record expiry.
//
// Two backends share the Store interface:
//
//   - MemoryStore keeps records in a mutex-guarded map. Expired records are
//     invisible to every read and are purged by a periodic sweep. Records are
//     local to the process, so several instances behind a load balancer do not
//     see each other's tokens or counters.
//   - RedisStore keeps records in Redis with native TTLs, so every instance
//     shares them. Issue and Increment run as server-side scripts and are atomic.
//
// A store serves a single concern. Use separate MemoryStore instances, or
// RedisStore instances with different prefixes, for CSRF tokens and rate-limit
// counters so the two never collide.
//
// Usage with an errgroup:
//
//	store := tokenstore.NewMemoryStore(tokenstore.WithCleanupInterval(5 * time.Minute))
//	g.Go(store.Run(ctx))
//
//	rec, err := store.Issue(ctx, "session-key", newToken, 24*time.Hour)
package tokenstore
