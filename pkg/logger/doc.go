// Package logger builds the platform's slog loggers.
//
// The factory wraps the chosen slog handler in a context-aware decorator:
// ContextExtractor callbacks pull request-scoped attributes, such as the
// current trust code, out of the context of every log call. Settings come
// from LOG_* environment variables via Config, with functional options for
// everything else.
//
// Typical wiring:
//
//	log := logger.NewFromConfig(cfg,
//		logger.WithContextExtractors(trust.LoggerExtractor()),
//	)
package logger
