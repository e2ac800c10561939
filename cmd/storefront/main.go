// Command storefront serves the catalog, RFQ and admin API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/storefront/core/config"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/internal/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg app.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := app.NewLogger(cfg)
	a, err := app.New(ctx, cfg, app.WithLogger(log))
	if err != nil {
		log.Error("startup failed", logger.Error(err))
		return err
	}
	return a.Run(ctx)
}
