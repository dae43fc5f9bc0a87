package media

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Request describes a download: which page to fetch and in what container.
type Request struct {
	URL    string
	Format Format
}

// HostPolicy restricts the pages the engine may be pointed at.
type HostPolicy struct {
	// Hosts are registrable domains; subdomains of each are accepted.
	Hosts []string
}

// Validate parses raw and checks scheme and host. The returned string is the
// re-encoded URL handed to the engine, so it can never start with "-".
func (p HostPolicy) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("url is malformed: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("url scheme %q is not supported", parsed.Scheme)
	}
	host := strings.ToLower(strings.TrimSuffix(parsed.Hostname(), "."))
	if host == "" {
		return "", errors.New("url has no host")
	}
	if parsed.User != nil {
		return "", errors.New("url must not carry credentials")
	}
	if !p.allows(host) {
		return "", fmt.Errorf("host %q is not allowed", host)
	}
	return parsed.String(), nil
}

func (p HostPolicy) allows(host string) bool {
	if len(p.Hosts) == 0 {
		return true
	}
	for _, allowed := range p.Hosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// IsPlaylistURL reports whether the URL names a playlist through its list parameter.
func IsPlaylistURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Query().Has("list")
}
