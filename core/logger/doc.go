// Package logger builds slog loggers with development and production presets,
// context attribute extraction, and nil-safe attribute helpers.
//
//	log := logger.New(
//		logger.WithProduction("storefront"),
//		logger.WithContextExtractor(requestid.LogExtractor),
//	)
//	log.InfoContext(ctx, "order created", logger.Component("orders"), logger.Error(err))
package logger
