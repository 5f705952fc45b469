// Package logging configures the process-wide slog logger.
//
// Components log through slog.Default().With("component", name). Setup
// installs a handler that appends request_id, user and department from the
// context, plus trace and span ids when a span is active:
//
//	logger, err := logging.Setup(logging.Config{Level: "info", Format: "json"})
//	ctx = logging.WithRequestID(ctx, requestID)
//	slog.InfoContext(ctx, "Decision made", "outcome", outcome)
package logging
