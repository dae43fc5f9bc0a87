package logging

import (
	"context"
	"log/slog"

	"wavepipe/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldWorkspaceID = "workspace_id"
	FieldStage       = "stage"
	FieldEventType   = "event_type"
	FieldErrorHint   = "error_hint"
)

// WithContext returns logger tagged with the request ID, workspace ID and
// stage carried by ctx. Missing values are skipped.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var attrs []any
	add := func(key string, lookup func(context.Context) (string, bool)) {
		if value, ok := lookup(ctx); ok {
			attrs = append(attrs, String(key, value))
		}
	}
	add(FieldRequestID, services.RequestIDFromContext)
	add(FieldWorkspaceID, services.WorkspaceIDFromContext)
	add(FieldStage, services.StageFromContext)
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}
