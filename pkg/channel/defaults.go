package channel

import (
	"fmt"
	"strings"
)

// DefaultValidateContent applies the shared validation rule: content must be
// non-empty after trimming and must not exceed the channel's MaxLength.
// Channel adapters compose this with their own rules; channels with a
// different length metric (URL-weighted social counting) replace the length
// check entirely.
func DefaultValidateContent(content string, constraints Constraints) ValidationResult {
	var errs []string

	if strings.TrimSpace(content) == "" {
		errs = append(errs, "content cannot be empty")
	}
	if constraints.MaxLength > 0 && len([]rune(content)) > constraints.MaxLength {
		errs = append(errs, fmt.Sprintf("content exceeds maximum length of %d characters", constraints.MaxLength))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// DefaultFormatContent applies the shared formatting rule: content at or
// below the limit passes through unchanged; content over the limit is
// truncated to MaxLength-3 runes with an ellipsis appended.
func DefaultFormatContent(content string, constraints Constraints) string {
	if constraints.MaxLength <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= constraints.MaxLength {
		return content
	}
	return string(runes[:constraints.MaxLength-3]) + "..."
}

// TruncateRunes shortens s to at most limit runes without an ellipsis.
func TruncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// CollapseWhitespace replaces runs of whitespace with single spaces and trims
// the result.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
