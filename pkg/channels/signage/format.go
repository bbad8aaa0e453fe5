package signage

import (
	"strings"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
)

const maxLength = 500

// priorityCodes maps alert priority strings to the small integer codes sign
// controllers sort by. Lower is more urgent.
var priorityCodes = map[string]int{
	"low":      3,
	"normal":   2,
	"high":     1,
	"critical": 0,
}

// PriorityCode resolves a priority string to its display code, defaulting to
// normal for unknown values.
func PriorityCode(priority string) int {
	if code, ok := priorityCodes[strings.ToLower(priority)]; ok {
		return code
	}
	return priorityCodes["normal"]
}

// FormatForDisplay reshapes alert content for a physical sign: URLs are
// useless on a display and get stripped, whitespace runs collapse to single
// spaces, and the result is truncated to the sign's capacity.
func FormatForDisplay(content string) string {
	fields := strings.Fields(content)
	kept := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(f, "http://") || strings.HasPrefix(f, "https://") {
			continue
		}
		kept = append(kept, f)
	}
	return channel.TruncateRunes(strings.Join(kept, " "), maxLength)
}

// PrefixRoutes prepends the affected route codes when the combined text still
// fits the sign. Riders scan for their route first, so the codes lead.
func PrefixRoutes(text string, routes []string) string {
	if len(routes) == 0 {
		return text
	}
	prefix := "[" + strings.Join(routes, ", ") + "] "
	candidate := prefix + text
	if len([]rune(candidate)) > maxLength {
		return text
	}
	return candidate
}
