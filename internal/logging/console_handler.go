package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one line per record:
//
//	2026-01-02T15:04:05Z WARN [download] engine exited exit_code=1 request_id=ab12
//
// The component attribute is lifted into the bracketed tag. Handler-level
// attributes are rendered once in WithAttrs and reused for every record.
type consoleHandler struct {
	out       *lockedWriter
	level     slog.Leveler
	source    bool
	component string
	group     string
	rendered  []byte
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}

	component := h.component
	var tail []byte
	record.Attrs(func(attr slog.Attr) bool {
		if h.group == "" && attr.Key == FieldComponent {
			component = valueText(attr.Value.Resolve())
			return true
		}
		tail = appendAttr(tail, h.group, attr)
		return true
	})

	line := make([]byte, 0, 96+len(h.rendered)+len(tail))
	line = when.UTC().AppendFormat(line, time.RFC3339)
	line = append(line, ' ')
	line = append(line, record.Level.String()...)
	if component != "" {
		line = append(line, " ["...)
		line = append(line, component...)
		line = append(line, ']')
	}
	line = append(line, ' ')
	if msg := strings.TrimSpace(record.Message); msg != "" {
		line = append(line, msg...)
	} else {
		line = append(line, '-')
	}
	if h.source {
		if src := record.Source(); src != nil {
			line = fmt.Appendf(line, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	line = append(line, h.rendered...)
	line = append(line, tail...)
	line = append(line, '\n')

	_, err := h.out.Write(line)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.rendered = slices.Clone(h.rendered)
	for _, attr := range attrs {
		if h.group == "" && attr.Key == FieldComponent {
			next.component = valueText(attr.Value.Resolve())
			continue
		}
		next.rendered = appendAttr(next.rendered, h.group, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

// appendAttr renders attr as " key=value", expanding groups into dotted keys.
func appendAttr(dst []byte, group string, attr slog.Attr) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := group
		if attr.Key != "" {
			inner = group + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendAttr(dst, inner, member)
		}
		return dst
	}

	text := valueText(attr.Value)
	if isSensitiveKey(attr.Key) {
		text = redactedValue
	}
	dst = append(dst, ' ')
	dst = append(dst, group...)
	dst = append(dst, attr.Key...)
	dst = append(dst, '=')
	if needsQuoting(text) {
		return strconv.AppendQuote(dst, text)
	}
	return append(dst, text...)
}

func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func needsQuoting(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}
