package utils

import (
	"regexp"
	"strings"
)

// Sanitization for free-text book fields arriving from site syncs. Book
// descriptions come in as WordPress post excerpts and may carry markup; the
// view-tracking path never goes through here (it handles numeric IDs only).

var (
	scriptTagRe  = regexp.MustCompile(`(?is)<\s*(script|style|iframe|object|embed)[^>]*>.*?<\s*/\s*(script|style|iframe|object|embed)\s*>`)
	eventAttrRe  = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURLAttrRe  = regexp.MustCompile(`(?i)\s+(href|src)\s*=\s*("?\s*javascript:[^"'\s>]*"?|'?\s*javascript:[^"'\s>]*'?)`)
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SanitizeText strips all markup from a free-text field, leaving plain text
// with collapsed whitespace
func SanitizeText(input string) string {
	out := scriptTagRe.ReplaceAllString(input, "")
	out = eventAttrRe.ReplaceAllString(out, "")
	out = jsURLAttrRe.ReplaceAllString(out, "")
	out = htmlTagRe.ReplaceAllString(out, " ")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// SanitizeURL rejects URLs with unsafe schemes; returns "" for anything that
// is not plain http(s)
func SanitizeURL(input string) string {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return trimmed
	}
	return ""
}
