// Package textrules validates free-text requirement drafts before they are
// allowed anywhere near the processing API. Pure functions only: no state,
// no side effects, same input always yields the same violation list.
package textrules

import (
	"fmt"
	"strings"
	"unicode"
)

// Policy selects which rule set applies. Two rule sets shipped in different
// revisions of the upstream service; both are kept selectable instead of
// merged.
type Policy string

const (
	// PolicyStrict rejects digits and anything outside letters, whitespace
	// and basic punctuation.
	PolicyStrict Policy = "strict"
	// PolicyLenient only demands that some letters exist.
	PolicyLenient Policy = "lenient"
)

// MinWords is the minimum whitespace-delimited word count both policies
// enforce.
const MinWords = 50

const (
	msgEmpty      = "Text content is empty"
	msgDigits     = "Text should not contain numbers"
	msgSymbols    = "Text should not contain special symbols (only letters and basic punctuation allowed)"
	msgNoLetters  = "Text must contain at least some letters"
	msgWordsShort = "Minimum %d words required (current: %d words)"
)

// ParsePolicy maps a config value to a Policy, defaulting to strict.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(s, string(PolicyLenient)) {
		return PolicyLenient
	}
	return PolicyStrict
}

// Validate returns the ordered list of rule violations for text under the
// given policy. Content rules come before the length rule; an empty slice
// means the text is valid.
func Validate(policy Policy, text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{msgEmpty}
	}

	var violations []string

	switch policy {
	case PolicyLenient:
		if !containsLetter(text) {
			violations = append(violations, msgNoLetters)
		}
	default:
		if containsDigit(text) {
			violations = append(violations, msgDigits)
		}
		if containsDisallowedSymbol(text) {
			violations = append(violations, msgSymbols)
		}
	}

	if n := WordCount(text); n < MinWords {
		violations = append(violations, fmt.Sprintf(msgWordsShort, MinWords, n))
	}

	return violations
}

// WordCount splits on runs of whitespace and discards empty tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func containsDigit(text string) bool {
	return strings.ContainsFunc(text, unicode.IsDigit)
}

func containsLetter(text string) bool {
	return strings.ContainsFunc(text, unicode.IsLetter)
}

// allowedPunct is the strict policy allow-list: basic sentence punctuation
// plus straight and curly quotes.
const allowedPunct = `.,!?-'"` + "‘’“”"

func containsDisallowedSymbol(text string) bool {
	for _, r := range text {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}
		// Digits are the digit rule's job; reporting them here too would
		// double-count a single character.
		if unicode.IsDigit(r) {
			continue
		}
		if strings.ContainsRune(allowedPunct, r) {
			continue
		}
		return true
	}
	return false
}
