package social

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveLength(t *testing.T) {
	longURL := "https://rideuta.example.com/" + strings.Repeat("x", 52) // 80 chars literal

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"plain text counts literally", "Red Line delayed", 16},
		{"empty", "", 0},
		{"short url counts as 23", "https://x.co", 23},
		{"long url counts as 23", longURL, 23},
		{"text plus long url", "Check " + longURL, 29},
		{"two urls", "https://a.example https://b.example", 47},
		{"unicode counts by rune", "día", 3},
		{"whitespace counts literally", "a  b", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveLength(tt.content))
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL("http://example.com/path?q=1"))
	assert.True(t, IsURL("HTTPS://EXAMPLE.COM"))
	assert.False(t, IsURL("example.com"))
	assert.False(t, IsURL("ftp://example.com"))
	assert.False(t, IsURL("see https://example.com"))
}

func TestValidateContentEffectiveLimit(t *testing.T) {
	a := New(nil)

	t.Run("exactly 280 effective chars is valid", func(t *testing.T) {
		content := strings.Repeat("a", 280)
		assert.True(t, a.ValidateContent(content).Valid)
	})

	t.Run("281 effective chars is invalid", func(t *testing.T) {
		content := strings.Repeat("a", 281)
		result := a.ValidateContent(content)
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("long url keeps content under the limit", func(t *testing.T) {
		// 256 literal chars, a space, and a 100-char URL weighing 23:
		// 256 + 1 + 23 = 280 effective.
		content := strings.Repeat("a", 256) + " https://rideuta.example.com/" + strings.Repeat("x", 71)
		assert.Equal(t, 280, EffectiveLength(content))
		assert.True(t, a.ValidateContent(content).Valid)
	})
}
