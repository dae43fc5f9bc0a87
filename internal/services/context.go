package services

import "context"

// ctxField identifies one string annotation carried through a request.
type ctxField int

const (
	fieldRequestID ctxField = iota
	fieldWorkspaceID
	fieldStage
)

func withField(ctx context.Context, field ctxField, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, field, value)
}

func fieldFrom(ctx context.Context, field ctxField) (string, bool) {
	value, _ := ctx.Value(field).(string)
	return value, value != ""
}

// WithRequestID attaches the HTTP request identifier. Empty IDs are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withField(ctx, fieldRequestID, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return fieldFrom(ctx, fieldRequestID)
}

// WithWorkspaceID attaches the temp workspace identifier of a download.
func WithWorkspaceID(ctx context.Context, id string) context.Context {
	return withField(ctx, fieldWorkspaceID, id)
}

func WorkspaceIDFromContext(ctx context.Context) (string, bool) {
	return fieldFrom(ctx, fieldWorkspaceID)
}

// WithStage attaches the pipeline stage (info, probe, fetch).
func WithStage(ctx context.Context, stage string) context.Context {
	return withField(ctx, fieldStage, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return fieldFrom(ctx, fieldStage)
}
