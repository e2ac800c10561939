// Package ratelimiter implements fixed-window request limiting on top of a
// tokenstore.Store.
//
// Each key gets a counter that opens a window on its first hit. Requests are
// allowed while the counter stays within the limit; the (limit+1)-th request
// inside the window is rejected, and the counter starts over once the window
// expires.
//
//	store := tokenstore.NewMemoryStore()
//	limiter, err := ratelimiter.NewFixedWindow(store, ratelimiter.Config{
//		Limit:  10,
//		Window: time.Minute,
//	})
//
//	res, err := limiter.Allow(ctx, "submit:"+sessionKey)
//	if !res.Allowed() {
//		retryIn := res.RetryAfter()
//	}
//
// Sharing one store between several limiters is safe as long as every limiter
// uses its own Prefix.
package ratelimiter
