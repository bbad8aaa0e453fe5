package social

import (
	"fmt"
	"strings"
)

// threadSegmentLimit is the per-segment effective-length cap for thread
// splitting, leaving headroom under the 280 limit for the trailing " (i/n)"
// marker.
const threadSegmentLimit = 270

// DefaultMaxTweets bounds how many segments a long alert may produce.
const DefaultMaxTweets = 5

// SplitThread greedily packs whitespace-delimited words into segments whose
// effective length stays at or below threadSegmentLimit, emitting at most
// maxTweets segments. " (i/n)" indices are appended only when more than one
// segment results. Words that alone exceed the limit are hard-truncated.
func SplitThread(content string, maxTweets int) []string {
	if maxTweets <= 0 {
		maxTweets = DefaultMaxTweets
	}

	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}

	var segments []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range words {
		weight := tokenWeight(word)
		if weight > threadSegmentLimit {
			// A single oversized word gets its own truncated segment.
			flush()
			runes := []rune(word)
			if len(runes) > threadSegmentLimit {
				word = string(runes[:threadSegmentLimit])
			}
			segments = append(segments, word)
			if len(segments) >= maxTweets {
				break
			}
			continue
		}

		needed := weight
		if currentLen > 0 {
			needed++ // joining space
		}

		if currentLen+needed > threadSegmentLimit {
			flush()
			if len(segments) >= maxTweets {
				break
			}
			needed = weight
		}

		if currentLen > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
		currentLen += needed
	}

	if len(segments) < maxTweets {
		flush()
	}
	if len(segments) > maxTweets {
		segments = segments[:maxTweets]
	}

	if len(segments) > 1 {
		total := len(segments)
		for i := range segments {
			segments[i] = fmt.Sprintf("%s (%d/%d)", segments[i], i+1, total)
		}
	}

	return segments
}
