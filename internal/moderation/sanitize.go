// Package moderation sanitizes and validates user-submitted text.
package moderation

import (
	"regexp"
	"strings"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	jsSchemeRe   = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe  = regexp.MustCompile(`(?i)on\w+=`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Sanitize strips markup and script-shaped fragments, collapses whitespace and
// trims the result. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	// Removing one fragment can splice a new one together ("javajavascript:script:"),
	// so repeat until nothing changes.
	for {
		next := tagRe.ReplaceAllString(text, "")
		next = jsSchemeRe.ReplaceAllString(next, "")
		next = eventAttrRe.ReplaceAllString(next, "")
		if next == text {
			break
		}
		text = next
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
