package common

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// ResolveURL resolves a possibly relative href against a base URL.
// Returns the href unchanged if it is already absolute or the base
// cannot be parsed.
func ResolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if parsed.IsAbs() {
		return href
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}

	return base.ResolveReference(parsed).String()
}

// URLHash returns the md5 hex digest of a URL. Used as the dedupe key
// for already-processed PDFs.
func URLHash(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// IsPDFLink reports whether an href points at a PDF resource
func IsPDFLink(href string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(href))
	if i := strings.IndexAny(cleaned, "?#"); i >= 0 {
		cleaned = cleaned[:i]
	}
	return strings.HasSuffix(cleaned, ".pdf")
}
