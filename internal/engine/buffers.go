package engine

import (
	"bytes"
	"strings"
)

// headBuffer keeps the first limit bytes written and silently drops the rest.
type headBuffer struct {
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (b *headBuffer) Write(p []byte) (int, error) {
	room := b.limit - int64(b.buf.Len())
	switch {
	case room <= 0:
		b.truncated = len(p) > 0 || b.truncated
	case int64(len(p)) > room:
		b.buf.Write(p[:room])
		b.truncated = true
	default:
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *headBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

// tailBuffer keeps the last limit bytes written and forwards complete lines.
// Carriage returns count as line breaks so progress output splits cleanly.
type tailBuffer struct {
	tail    []byte
	limit   int64
	pending []byte
	onLine  func(string)
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.tail = append(b.tail, p...)
	if excess := int64(len(b.tail)) - b.limit; excess > 0 {
		b.tail = append(b.tail[:0], b.tail[excess:]...)
	}
	if b.onLine == nil {
		return len(p), nil
	}
	for _, c := range p {
		if c == '\n' || c == '\r' {
			b.emit()
			continue
		}
		if int64(len(b.pending)) < b.limit {
			b.pending = append(b.pending, c)
		}
	}
	return len(p), nil
}

func (b *tailBuffer) emit() {
	line := strings.TrimSpace(string(b.pending))
	b.pending = b.pending[:0]
	if line != "" {
		b.onLine(line)
	}
}

// flush forwards a trailing line that had no terminator.
func (b *tailBuffer) flush() {
	if b.onLine != nil && len(b.pending) > 0 {
		b.emit()
	}
}

func (b *tailBuffer) Bytes() []byte {
	return append([]byte(nil), b.tail...)
}

// SummarizeStderr returns the last maxLines non-empty lines of stderr joined
// with "; ", capped at 500 characters.
func SummarizeStderr(stderr []byte, maxLines int) string {
	if maxLines <= 0 {
		maxLines = 5
	}
	lines := strings.FieldsFunc(string(stderr), func(r rune) bool { return r == '\n' || r == '\r' })
	kept := make([]string, 0, maxLines)
	for i := len(lines) - 1; i >= 0 && len(kept) < maxLines; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	summary := strings.Join(kept, "; ")
	const maxLen = 500
	if len(summary) > maxLen {
		summary = "..." + summary[len(summary)-maxLen+3:]
	}
	return summary
}
