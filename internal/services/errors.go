package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrEngineNotFound  = errors.New("engine not found")
	ErrEngineExecution = errors.New("engine execution failed")
	ErrDownloadFailed  = errors.New("download failed")
	ErrOutputMissing   = errors.New("output missing")
	ErrMetadataParse   = errors.New("metadata parse error")
	ErrBusy            = errors.New("busy")
	ErrTimeout         = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrEngineExecution
	}
	if err != nil {
		return &Error{marker: marker, detail: detail, cause: err}
	}
	return &Error{marker: marker, detail: detail}
}

// Error is a classified failure carrying a human readable detail.
type Error struct {
	marker error
	detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.marker, e.detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.marker, e.detail)
}

// Unwrap exposes both the marker and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.marker}
	}
	return []error{e.marker, e.cause}
}

// Detail returns the message without the marker prefix.
func (e *Error) Detail() string {
	return e.detail
}

// Category returns the stable error name reported to API clients.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	case errors.Is(err, ErrEngineNotFound):
		return "EngineNotFound"
	case errors.Is(err, ErrOutputMissing):
		return "OutputMissing"
	case errors.Is(err, ErrDownloadFailed):
		return "DownloadFailed"
	case errors.Is(err, ErrMetadataParse):
		return "MetadataParseError"
	case errors.Is(err, ErrBusy):
		return "Busy"
	case errors.Is(err, ErrTimeout):
		return "Timeout"
	case errors.Is(err, ErrEngineExecution):
		return "EngineExecutionError"
	default:
		return "InternalError"
	}
}

// HTTPStatus maps a classified error to a response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Details returns the client-facing message for err.
func Details(err error) string {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) {
		if classified.cause != nil {
			return classified.detail + ": " + classified.cause.Error()
		}
		return classified.detail
	}
	return err.Error()
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
