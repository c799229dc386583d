// Package canonical normalizes URLs into a stable form used for
// fingerprinting and dedup lookups.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Canonicalize reduces a raw URL to its canonical form: lowercased host
// without "www.", no scheme, no query string or fragment, no trailing
// slashes. An empty path is omitted. Canonicalization never fails; on
// malformed input it falls back to a best-effort lowercase and strip.
// The result is idempotent: Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	withScheme := trimmed
	if !strings.Contains(withScheme, "://") {
		withScheme = "https://" + withScheme
	}

	parsed, err := url.Parse(withScheme)
	if err != nil || parsed.Host == "" {
		return fallbackCanonical(trimmed)
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")

	path := strings.TrimRight(parsed.EscapedPath(), "/")
	if path == "" {
		return host
	}

	return host + path
}

// Fingerprint returns the hex-encoded SHA-256 of the canonical form of raw.
// Used as a fast equality key for dedup lookups.
func Fingerprint(raw string) string {
	h := sha256.Sum256([]byte(Canonicalize(raw)))
	return hex.EncodeToString(h[:])
}

// ExtractDomain returns the bare domain of a URL or an email address.
// For emails the part after the last "@" is used. A leading "www." is
// always stripped.
func ExtractDomain(urlOrEmail string) string {
	trimmed := strings.TrimSpace(urlOrEmail)
	if trimmed == "" {
		return ""
	}

	if at := strings.LastIndex(trimmed, "@"); at >= 0 {
		domain := strings.ToLower(trimmed[at+1:])
		return strings.TrimPrefix(domain, "www.")
	}

	withScheme := trimmed
	if !strings.Contains(withScheme, "://") {
		withScheme = "https://" + withScheme
	}

	parsed, err := url.Parse(withScheme)
	if err != nil || parsed.Hostname() == "" {
		return fallbackDomain(trimmed)
	}

	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// fallbackCanonical is the best-effort path for input net/url rejects.
func fallbackCanonical(raw string) string {
	s := strings.ToLower(raw)

	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+len("://"):]
	}
	s = strings.TrimPrefix(s, "www.")

	if idx := strings.IndexAny(s, "?#"); idx >= 0 {
		s = s[:idx]
	}

	return strings.TrimRight(s, "/")
}

// fallbackDomain extracts a host from unparseable input.
func fallbackDomain(raw string) string {
	s := fallbackCanonical(raw)

	if idx := strings.Index(s, "/"); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	return s
}
