package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"wavepipe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrDownloadFailed, "fetch", "yt-dlp", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrDownloadFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "yt-dlp", "exit status 1", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
	if got := services.Details(err); got != "fetch: yt-dlp: exit status 1: boom" {
		t.Fatalf("unexpected details: %q", got)
	}
}

func TestCategoryAndStatusMapping(t *testing.T) {
	cases := []struct {
		marker   error
		category string
		status   int
	}{
		{services.ErrInvalidRequest, "InvalidRequest", http.StatusBadRequest},
		{services.ErrEngineNotFound, "EngineNotFound", http.StatusInternalServerError},
		{services.ErrEngineExecution, "EngineExecutionError", http.StatusInternalServerError},
		{services.ErrDownloadFailed, "DownloadFailed", http.StatusInternalServerError},
		{services.ErrOutputMissing, "OutputMissing", http.StatusInternalServerError},
		{services.ErrMetadataParse, "MetadataParseError", http.StatusInternalServerError},
		{services.ErrBusy, "Busy", http.StatusServiceUnavailable},
		{services.ErrTimeout, "Timeout", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := fmt.Errorf("outer: %w", services.Wrap(tc.marker, "stage", "", "failed", nil))
		if got := services.Category(err); got != tc.category {
			t.Fatalf("category for %v: got %q want %q", tc.marker, got, tc.category)
		}
		if got := services.HTTPStatus(err); got != tc.status {
			t.Fatalf("status for %v: got %d want %d", tc.marker, got, tc.status)
		}
	}

	if got := services.Category(errors.New("plain")); got != "InternalError" {
		t.Fatalf("expected InternalError for unclassified error, got %q", got)
	}
	if got := services.HTTPStatus(nil); got != http.StatusOK {
		t.Fatalf("expected 200 for nil error, got %d", got)
	}
}
