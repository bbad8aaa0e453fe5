package social

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// urlWeight is the platform accounting rule: every URL token counts as
// exactly 23 characters regardless of its literal length.
const urlWeight = 23

// EffectiveLength computes the platform's character count for content.
// Whitespace and ordinary characters count literally; URL tokens count as
// urlWeight.
func EffectiveLength(content string) int {
	count := 0
	remaining := content

	for remaining != "" {
		r, size := utf8.DecodeRuneInString(remaining)
		if unicode.IsSpace(r) {
			count++
			remaining = remaining[size:]
			continue
		}

		// Consume the whole non-space token.
		end := strings.IndexFunc(remaining, unicode.IsSpace)
		if end == -1 {
			end = len(remaining)
		}
		token := remaining[:end]
		count += tokenWeight(token)
		remaining = remaining[end:]
	}

	return count
}

// tokenWeight returns the effective width of one whitespace-delimited token.
func tokenWeight(token string) int {
	if IsURL(token) {
		return urlWeight
	}
	return utf8.RuneCountInString(token)
}

// IsURL reports whether a token is treated as a URL by the platform's
// counting rules.
func IsURL(token string) bool {
	lower := strings.ToLower(token)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
