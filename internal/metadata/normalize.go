package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"wavepipe/internal/services"
)

const (
	fallbackAuthor = "Unknown"
	fallbackTitle  = "Untitled"
)

// Normalizer turns an engine JSON dump into a Result.
//
// Decoding goes through map[string]any so that any missing or mistyped
// optional field degrades to its default instead of failing the request.
type Normalizer struct {
	// DefaultAuthor is used when neither uploader nor channel is present.
	DefaultAuthor string
	// PlaceholderThumbnail is used when no thumbnail can be found.
	PlaceholderThumbnail string
}

// Normalize parses raw and builds an Item or a Collection. Only empty input,
// invalid JSON or a non-object document fail, with ErrMetadataParse.
func (n Normalizer) Normalize(raw []byte) (Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Result{}, services.Wrap(services.ErrMetadataParse, "info", "decode", "engine produced no output", nil)
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return Result{}, services.Wrap(services.ErrMetadataParse, "info", "decode", "engine output is not JSON", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Result{}, services.Wrap(services.ErrMetadataParse, "info", "decode", fmt.Sprintf("expected a JSON object, got %s", kindOf(doc)), nil)
	}

	if isCollection(obj) {
		return Result{Collection: n.collection(obj)}, nil
	}
	return Result{Item: n.item(obj)}, nil
}

func isCollection(obj map[string]any) bool {
	if stringField(obj, "_type") == "playlist" {
		return true
	}
	_, ok := obj["entries"].([]any)
	return ok
}

func (n Normalizer) item(obj map[string]any) *Item {
	seconds := durationField(obj, "duration")
	thumb := ownThumbnail(obj)
	if thumb == "" {
		thumb = n.PlaceholderThumbnail
	}
	return &Item{
		Title:           titleOf(obj),
		Author:          n.author(obj),
		Thumbnail:       thumb,
		DurationSeconds: seconds,
		Duration:        FormatDuration(seconds),
	}
}

func (n Normalizer) collection(obj map[string]any) *Collection {
	entries, _ := obj["entries"].([]any)
	tracks := make([]Track, 0, len(entries))
	var total float64
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		seconds := durationField(entry, "duration")
		total += seconds
		tracks = append(tracks, Track{
			ID:              idOf(entry),
			Title:           titleOf(entry),
			DurationSeconds: seconds,
			Duration:        FormatDuration(seconds),
		})
	}

	count := intField(obj, "playlist_count")
	if count <= 0 {
		count = intField(obj, "entry_count")
	}
	if count <= 0 {
		count = len(tracks)
	}

	thumb := ownThumbnail(obj)
	if thumb == "" && len(entries) > 0 {
		if first, ok := entries[0].(map[string]any); ok {
			thumb = firstThumbnail(first)
		}
	}
	if thumb == "" {
		thumb = n.PlaceholderThumbnail
	}

	return &Collection{
		Title:           titleOf(obj),
		Author:          n.author(obj),
		Thumbnail:       thumb,
		TotalCount:      count,
		DurationSeconds: total,
		Duration:        FormatDuration(total),
		Tracks:          tracks,
	}
}

func (n Normalizer) author(obj map[string]any) string {
	for _, key := range []string{"uploader", "channel"} {
		if value := stringField(obj, key); value != "" {
			return value
		}
	}
	if n.DefaultAuthor != "" {
		return n.DefaultAuthor
	}
	return fallbackAuthor
}

// ownThumbnail prefers the last entry of thumbnails (highest resolution),
// then the scalar thumbnail field.
func ownThumbnail(obj map[string]any) string {
	if list, ok := obj["thumbnails"].([]any); ok {
		for i := len(list) - 1; i >= 0; i-- {
			if thumb, ok := list[i].(map[string]any); ok {
				if u := stringField(thumb, "url"); u != "" {
					return u
				}
			}
		}
	}
	return stringField(obj, "thumbnail")
}

func firstThumbnail(obj map[string]any) string {
	if list, ok := obj["thumbnails"].([]any); ok {
		for _, raw := range list {
			if thumb, ok := raw.(map[string]any); ok {
				if u := stringField(thumb, "url"); u != "" {
					return u
				}
			}
		}
	}
	return stringField(obj, "thumbnail")
}

func titleOf(obj map[string]any) string {
	if title := stringField(obj, "title"); title != "" {
		return title
	}
	return fallbackTitle
}

func idOf(obj map[string]any) string {
	switch v := obj["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return stringField(obj, "url")
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// durationField returns a non-negative finite number of seconds, 0 otherwise.
func durationField(obj map[string]any, key string) float64 {
	var value float64
	switch v := obj[key].(type) {
	case float64:
		value = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		value = parsed
	default:
		return 0
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}

func intField(obj map[string]any, key string) int {
	if v, ok := obj[key].(float64); ok && v > 0 && v < math.MaxInt32 {
		return int(v)
	}
	return 0
}

func kindOf(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// FormatDuration renders seconds as H:MM:SS when there is at least one hour
// and as M:SS otherwise. Zero, negative and non-finite values render "0:00".
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "0:00"
	}
	total := int64(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
