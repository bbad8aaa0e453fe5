// Package channel defines the adapter contract that normalizes heterogeneous
// delivery channels (email, SMS, social, push, signage) behind one interface,
// together with the registry that resolves channel types to live adapters.
package channel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

// Type identifies a delivery channel.
type Type string

const (
	TypeEmail   Type = "email"
	TypeSMS     Type = "sms"
	TypeSocial  Type = "social"
	TypePush    Type = "push"
	TypeSignage Type = "signage"
)

// KnownTypes returns every channel type the platform supports.
func KnownTypes() []Type {
	return []Type{TypeEmail, TypeSMS, TypeSocial, TypePush, TypeSignage}
}

// IsKnownType reports whether t names a supported channel.
func IsKnownType(t Type) bool {
	for _, known := range KnownTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Constraints describes a channel's structural limits. One immutable instance
// exists per channel type.
type Constraints struct {
	MaxLength      int      `json:"max_length"`
	SupportsMedia  bool     `json:"supports_media"`
	SupportsHTML   bool     `json:"supports_html"`
	RateLimit      int      `json:"rate_limit"` // requests per minute, 0 means unlimited
	RequiredFields []string `json:"required_fields"`
}

// Config carries per-channel-instance credentials and behavioral settings.
// Adapters treat it as read-only; the only adapter-local mutable state allowed
// is a short-lived cache keyed by the config's Identity.
type Config struct {
	Credentials map[string]string `json:"credentials"`
	Settings    map[string]any    `json:"settings"`
	TestMode    bool              `json:"test_mode"`
}

// Credential returns the named credential, or the empty string.
func (c *Config) Credential(key string) string {
	if c == nil || c.Credentials == nil {
		return ""
	}
	return c.Credentials[key]
}

// RequireCredentials verifies that every named credential is present and
// non-empty. It returns a non-retryable ChannelError listing the missing keys.
func (c *Config) RequireCredentials(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if c.Credential(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.Newf(errors.CodeMissingCredentials, "missing credentials: %v", missing)
	}
	return nil
}

// SettingString returns a string setting, or def when absent.
func (c *Config) SettingString(key, def string) string {
	if c == nil || c.Settings == nil {
		return def
	}
	if v, ok := c.Settings[key].(string); ok && v != "" {
		return v
	}
	return def
}

// SettingInt returns an integer setting, or def when absent. YAML and JSON
// decoders produce different numeric types, so several are accepted.
func (c *Config) SettingInt(key string, def int) int {
	if c == nil || c.Settings == nil {
		return def
	}
	switch v := c.Settings[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// SettingBool returns a boolean setting, or def when absent.
func (c *Config) SettingBool(key string, def bool) bool {
	if c == nil || c.Settings == nil {
		return def
	}
	if v, ok := c.Settings[key].(bool); ok {
		return v
	}
	return def
}

// SettingStrings returns a string-slice setting, or nil when absent.
func (c *Config) SettingStrings(key string) []string {
	if c == nil || c.Settings == nil {
		return nil
	}
	switch v := c.Settings[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Identity returns a stable fingerprint of the config's credentials, used to
// key adapter-local caches such as OAuth2 bearer tokens.
func (c *Config) Identity() string {
	if c == nil || len(c.Credentials) == 0 {
		return "empty"
	}
	keys := make([]string, 0, len(c.Credentials))
	for k := range c.Credentials {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, c.Credentials[k])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
