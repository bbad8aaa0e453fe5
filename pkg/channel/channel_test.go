package channel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

func TestDefaultValidateContent(t *testing.T) {
	constraints := Constraints{MaxLength: 10}

	tests := []struct {
		name    string
		content string
		valid   bool
	}{
		{"valid content", "hello", true},
		{"exactly at limit", strings.Repeat("a", 10), true},
		{"over limit", strings.Repeat("a", 11), false},
		{"empty", "", false},
		{"whitespace only", "   \n\t", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DefaultValidateContent(tt.content, constraints)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}

	t.Run("zero max length means unlimited", func(t *testing.T) {
		result := DefaultValidateContent(strings.Repeat("a", 100000), Constraints{})
		assert.True(t, result.Valid)
	})
}

func TestDefaultFormatContent(t *testing.T) {
	constraints := Constraints{MaxLength: 10}

	t.Run("identity below limit", func(t *testing.T) {
		assert.Equal(t, "short", DefaultFormatContent("short", constraints))
	})

	t.Run("identity at limit", func(t *testing.T) {
		content := strings.Repeat("a", 10)
		assert.Equal(t, content, DefaultFormatContent(content, constraints))
	})

	t.Run("truncates with ellipsis over limit", func(t *testing.T) {
		got := DefaultFormatContent(strings.Repeat("a", 20), constraints)
		assert.Equal(t, strings.Repeat("a", 7)+"...", got)
		assert.Len(t, []rune(got), 10)
	})

	t.Run("multibyte runes counted as characters", func(t *testing.T) {
		got := DefaultFormatContent(strings.Repeat("日", 20), constraints)
		assert.Len(t, []rune(got), 10)
	})
}

func TestConfigRequireCredentials(t *testing.T) {
	cfg := &Config{Credentials: map[string]string{"api_key": "k"}}

	assert.NoError(t, cfg.RequireCredentials("api_key"))

	err := cfg.RequireCredentials("api_key", "from_address")
	assert.Error(t, err)
	assert.Equal(t, errors.CodeMissingCredentials, errors.GetCode(err))
	assert.Contains(t, err.Error(), "from_address")
}

func TestConfigSettings(t *testing.T) {
	cfg := &Config{Settings: map[string]any{
		"name":  "prod",
		"count": 5,
		"ratio": float64(7),
		"flag":  true,
	}}

	assert.Equal(t, "prod", cfg.SettingString("name", "x"))
	assert.Equal(t, "x", cfg.SettingString("missing", "x"))
	assert.Equal(t, 5, cfg.SettingInt("count", 0))
	assert.Equal(t, 7, cfg.SettingInt("ratio", 0))
	assert.Equal(t, 9, cfg.SettingInt("missing", 9))
	assert.True(t, cfg.SettingBool("flag", false))

	var nilCfg *Config
	assert.Equal(t, "d", nilCfg.SettingString("name", "d"))
	assert.Empty(t, nilCfg.Credential("api_key"))
}

func TestConfigIdentity(t *testing.T) {
	a := &Config{Credentials: map[string]string{"k1": "v1", "k2": "v2"}}
	b := &Config{Credentials: map[string]string{"k2": "v2", "k1": "v1"}}
	c := &Config{Credentials: map[string]string{"k1": "other"}}

	assert.Equal(t, a.Identity(), b.Identity(), "identity is order independent")
	assert.NotEqual(t, a.Identity(), c.Identity())
	assert.Equal(t, "empty", (&Config{}).Identity())
}
