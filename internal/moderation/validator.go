package moderation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits for a take.
const (
	MinLength = 10
	MaxLength = 280
)

// Rejection reasons. Policy matches always use ReasonInappropriate so the
// matched term is never echoed back.
const (
	ReasonTooShort      = "Take must be at least 10 characters"
	ReasonTooLong       = "Take must be 280 characters or less"
	ReasonInappropriate = "Content contains inappropriate language"
	ReasonSpam          = "Content appears to be spam"
)

var (
	phoneRe = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`)
	urlRe   = regexp.MustCompile(`(?i)(https?://\S+)|(www\.\S+)`)
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

const (
	maxRepeatedRun  = 10 // 11 identical characters in a row is spam
	capsRatio       = 0.7
	capsMinLetters  = 10
	defaultMinScore = 0.5
)

// Result is the outcome of validating a piece of text.
type Result struct {
	Valid  bool
	Reason string
}

// Validator applies length, content policy and spam rules in that order.
type Validator struct {
	policy ContentPolicy

	// MinConfidence is the policy confidence at which text is rejected.
	MinConfidence float64
}

func NewValidator(policy ContentPolicy) *Validator {
	return &Validator{policy: policy, MinConfidence: defaultMinScore}
}

// Validate checks text that has already been through Sanitize. The first
// failing rule wins. An error means the content policy itself failed.
func (v *Validator) Validate(ctx context.Context, text string) (Result, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinLength {
		return Result{Reason: ReasonTooShort}, nil
	}
	if utf8.RuneCountInString(text) > MaxLength {
		return Result{Reason: ReasonTooLong}, nil
	}

	verdict, err := v.policy.Classify(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("classify content: %w", err)
	}
	if verdict.Flagged(v.MinConfidence) {
		return Result{Reason: ReasonInappropriate}, nil
	}

	if IsSpam(text) {
		return Result{Reason: ReasonSpam}, nil
	}
	return Result{Valid: true}, nil
}

// IsSpam reports whether text trips any spam heuristic.
func IsSpam(text string) bool {
	return hasRepeatedRun(text, maxRepeatedRun+1) ||
		phoneRe.MatchString(text) ||
		urlRe.MatchString(text) ||
		emailRe.MatchString(text) ||
		mostlyCaps(text)
}

// hasRepeatedRun reports whether any rune repeats n or more times in a row.
func hasRepeatedRun(text string, n int) bool {
	var prev rune = -1
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

// mostlyCaps counts ASCII letters only, matching the letters-only length rule.
func mostlyCaps(text string) bool {
	letters, upper := 0, 0
	for _, r := range text {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return letters > capsMinLetters && float64(upper)/float64(letters) > capsRatio
}
