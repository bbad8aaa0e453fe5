package social

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitThread(t *testing.T) {
	t.Run("short content stays a single unindexed segment", func(t *testing.T) {
		segments := SplitThread("Red Line delayed 20 min", 5)
		require.Len(t, segments, 1)
		assert.Equal(t, "Red Line delayed 20 min", segments[0])
		assert.NotContains(t, segments[0], "(1/1)")
	})

	t.Run("long content splits with indices", func(t *testing.T) {
		content := strings.TrimSpace(strings.Repeat("word ", 150)) // ~750 chars
		segments := SplitThread(content, 5)

		require.Greater(t, len(segments), 1)
		for i, seg := range segments {
			assert.True(t, strings.HasSuffix(seg, fmt.Sprintf("(%d/%d)", i+1, len(segments))),
				"segment %d should carry its index: %q", i, seg)
			assert.LessOrEqual(t, EffectiveLength(seg), 280)
		}
	})

	t.Run("segment cap respected", func(t *testing.T) {
		content := strings.TrimSpace(strings.Repeat("word ", 2000))
		segments := SplitThread(content, 3)
		assert.Len(t, segments, 3)
	})

	t.Run("words never split across segments", func(t *testing.T) {
		content := strings.TrimSpace(strings.Repeat("boundary ", 120))
		segments := SplitThread(content, 10)

		for _, seg := range segments {
			body := seg
			if idx := strings.LastIndex(seg, " ("); idx > 0 {
				body = seg[:idx]
			}
			for _, w := range strings.Fields(body) {
				assert.Equal(t, "boundary", w)
			}
		}
	})

	t.Run("oversized word is hard truncated", func(t *testing.T) {
		segments := SplitThread(strings.Repeat("x", 400), 5)
		require.Len(t, segments, 1)
		assert.Len(t, []rune(segments[0]), 270)
	})

	t.Run("empty content yields no segments", func(t *testing.T) {
		assert.Nil(t, SplitThread("   ", 5))
	})

	t.Run("zero max uses default", func(t *testing.T) {
		content := strings.TrimSpace(strings.Repeat("word ", 2000))
		segments := SplitThread(content, 0)
		assert.Len(t, segments, DefaultMaxTweets)
	})
}
