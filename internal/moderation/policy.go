package moderation

import (
	"context"
	"strings"
	"unicode"
)

// CategoryInappropriate is reported by DenylistPolicy for any denylisted term.
const CategoryInappropriate = "inappropriate_language"

// Classification is a content policy verdict. An empty Category means the text
// is clean.
type Classification struct {
	Category   string
	Confidence float64
}

// Flagged reports whether the verdict reaches the given confidence.
func (c Classification) Flagged(minConfidence float64) bool {
	return c.Category != "" && c.Confidence >= minConfidence
}

// ContentPolicy classifies text. Implementations may call out to an external
// moderation service; the denylist is the built-in one.
type ContentPolicy interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// DefaultDenylist is the built-in term list. Terms are matched as substrings of
// the text with every non-alphanumeric character removed, so spacing and
// punctuation between letters do not hide them.
var DefaultDenylist = []string{
	// hate speech
	"n1gg3r", "n1gger", "nigg3r", "nigger",
	"f4gg0t", "fagg0t", "f4ggot", "faggot",
	"k1ke", "kike",

	// slurs
	"cunt", "c0nt", "kunt",
	"retard", "r3tard",

	// explicit
	"p0rn", "porn",
	"p3nis", "penis",
	"vag1na", "vagina",
	"b00bs", "boobs",

	// threats
	"k1ll yourself", "kill yourself",
	"k1ll urself", "kill urself",
}

// DefaultWholeWords are short terms that also occur inside ordinary words
// ("spic" in "spicy", "kys" in "skyscraper"), so they only match a whole word.
// "die" and "d1e" are not listed: as a whole word they still reject takes like
// "Die Hard is a Christmas movie".
var DefaultWholeWords = []string{
	"ch1nk", "chink",
	"sp1c", "spic",
	"xxx",
	"kys",
}

// DenylistPolicy flags text containing a denylisted term after both sides are
// normalized.
type DenylistPolicy struct {
	terms []string
	words map[string]struct{}
}

// NewDenylistPolicy normalizes terms once up front. terms match anywhere in the
// compacted text; wholeWords match a single normalized word. Terms that
// normalize to the empty string are dropped.
func NewDenylistPolicy(terms []string, wholeWords ...string) *DenylistPolicy {
	p := &DenylistPolicy{words: make(map[string]struct{}, len(wholeWords))}
	for _, t := range terms {
		if c := compact(t); c != "" {
			p.terms = append(p.terms, c)
		}
	}
	for _, w := range wholeWords {
		if c := compact(w); c != "" {
			p.words[c] = struct{}{}
		}
	}
	return p
}

func (p *DenylistPolicy) Classify(_ context.Context, text string) (Classification, error) {
	hit := Classification{Category: CategoryInappropriate, Confidence: 1}

	c := compact(text)
	for _, term := range p.terms {
		if strings.Contains(c, term) {
			return hit, nil
		}
	}
	if len(p.words) > 0 {
		for _, w := range strings.Fields(normalize(text)) {
			if _, ok := p.words[w]; ok {
				return hit, nil
			}
		}
	}
	return Classification{}, nil
}

// normalize lower-cases, drops everything outside [a-z0-9 ] and collapses
// spaces, so "K.I.L.L   Yourself!" becomes "kill yourself".
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case isAlnum(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// compact keeps only [a-z0-9] of the lower-cased input.
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
