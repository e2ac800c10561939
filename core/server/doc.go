// Package server runs an http.Handler with graceful shutdown.
//
// Run returns a func suited for errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//
// On cancellation in-flight requests get up to the shutdown timeout (30s by
// default) to finish before connections are closed, then shutdown hooks run.
package server
