// Package dedupe builds the keys that decide whether two captures represent
// the same real-world item, and checks them against the persistence gateway.
package dedupe

import (
	"net/url"
	"strings"
)

// NormalizeURL produces the stable dedup form of a job URL: trimmed,
// lower-cased scheme and host, query string and fragment stripped. Two cards
// differing only by tracking parameters normalize to the same key.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}
