package sms

import "unicode/utf8"

// Carrier segment sizes. GSM-7 messages carry 160 characters in a single
// segment and 153 per segment once concatenation headers are needed. Any
// non-ASCII character forces the Unicode (UCS-2) scheme with 70/67.
const (
	gsmSingleSegment  = 160
	gsmMultiSegment   = 153
	ucs2SingleSegment = 70
	ucs2MultiSegment  = 67
)

// SegmentCount computes the number of billable carrier segments for content.
func SegmentCount(content string) int {
	if content == "" {
		return 0
	}

	single, multi := gsmSingleSegment, gsmMultiSegment
	if !isGSMCompatible(content) {
		single, multi = ucs2SingleSegment, ucs2MultiSegment
	}

	n := utf8.RuneCountInString(content)
	if n <= single {
		return 1
	}
	return (n + multi - 1) / multi
}

// isGSMCompatible reports whether content fits the GSM-7 character budget.
// The carrier treats any non-ASCII character as forcing Unicode encoding.
func isGSMCompatible(content string) bool {
	for _, r := range content {
		if r > 127 {
			return false
		}
	}
	return true
}
