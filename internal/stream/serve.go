package stream

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Payload is a finished download ready to be sent.
type Payload struct {
	Body          io.ReadCloser
	Filename      string
	ContentType   string
	ContentLength int64
}

// Serve writes the attachment headers and copies the body to w. The body is
// always closed, including when the client goes away mid-transfer, so the
// deletion bound to it runs on every path. It returns the number of bytes
// written and any copy error for the caller to log; headers are already sent
// by then, so nothing else can be reported to the client.
func Serve(w http.ResponseWriter, payload Payload) (int64, error) {
	if payload.Body == nil {
		return 0, fmt.Errorf("stream: payload has no body")
	}
	defer payload.Body.Close()

	header := w.Header()
	header.Set("Content-Disposition", ContentDisposition(payload.Filename))
	contentType := payload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	if payload.ContentLength >= 0 {
		header.Set("Content-Length", strconv.FormatInt(payload.ContentLength, 10))
	}
	header.Set("Cache-Control", "no-store")
	header.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, payload.Body)
	if err != nil {
		return written, fmt.Errorf("stream %s: %w", payload.Filename, err)
	}
	return written, nil
}

// ContentDisposition builds an attachment header with a quoted ASCII filename
// and an RFC 5987 filename* variant for clients that honour it.
func ContentDisposition(filename string) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		name = "download"
	}
	quoted := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "").Replace(asciiOnly(name))
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, quoted, url.PathEscape(name))
}

func asciiOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r < 0x20 || r > 0x7e {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
