// Package identity turns a hunter's display name into the account key that
// partitions all of their data.
package identity

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tableflip.dev/questlog/pkg/errs"
)

const (
	// MinNameLength and MaxNameLength bound a display name, counted in runes
	// after trimming.
	MinNameLength = 3
	MaxNameLength = 20
)

// Normalize maps a display name to its account key: trimmed, lowercased and
// with every internal run of whitespace replaced by a single hyphen.
//
// Distinct names can share a key ("Ash Ketchum", " ash  ketchum "). That is
// how a returning hunter logs in, not a collision to report.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(cases.Lower(language.Und).String(raw)), "-")
}

// Validate checks the length constraint on a display name.
func Validate(raw string) error {
	trimmed := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return errs.Invalid("name", "is required")
	case n < MinNameLength:
		return errs.Invalid("name", "must be at least %d characters", MinNameLength)
	case n > MaxNameLength:
		return errs.Invalid("name", "must be at most %d characters", MaxNameLength)
	}
	return nil
}

// DisplayName is the name as it is stored on a new profile.
func DisplayName(raw string) string {
	return strings.TrimSpace(raw)
}
