package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	require.NotNil(t, cfg.Retry.MaxRetries)
	assert.Equal(t, 3, *cfg.Retry.MaxRetries)
	assert.Equal(t, []time.Duration{5 * time.Minute, 15 * time.Minute, 60 * time.Minute}, cfg.Retry.Backoff)
	assert.Equal(t, 30*time.Second, cfg.Retry.PollInterval)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Empty(t, cfg.ConfiguredChannels())
}

func TestOptions(t *testing.T) {
	cfg, err := New(
		WithLogLevel("debug"),
		WithTestMode(),
		WithSMS(SMSConfig{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+18015550000"}),
		WithEmail(EmailConfig{APIKey: "k", FromAddress: "alerts@example.com"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TestMode)
	assert.ElementsMatch(t, []channel.Type{channel.TypeEmail, channel.TypeSMS}, cfg.ConfiguredChannels())
}

func TestValidate(t *testing.T) {
	t.Run("incomplete sms block rejected", func(t *testing.T) {
		_, err := New(WithSMS(SMSConfig{AccountSID: "AC1"}))
		assert.Error(t, err)
	})

	t.Run("incomplete social block rejected", func(t *testing.T) {
		_, err := New(WithSocial(SocialConfig{ConsumerKey: "ck"}))
		assert.Error(t, err)
	})

	t.Run("mailgun requires domain", func(t *testing.T) {
		_, err := New(WithEmail(EmailConfig{Provider: "mailgun", APIKey: "k", FromAddress: "a@b.c"}))
		assert.Error(t, err)
	})

	t.Run("email provider defaults to sendgrid", func(t *testing.T) {
		cfg, err := New(WithEmail(EmailConfig{APIKey: "k", FromAddress: "a@b.c"}))
		require.NoError(t, err)
		assert.Equal(t, "sendgrid", cfg.Email.Provider)
	})

	t.Run("signage requires endpoint", func(t *testing.T) {
		_, err := New(WithSignage(SignageConfig{Vendor: "generic"}))
		assert.Error(t, err)
	})

	t.Run("explicit zero retries survives validation", func(t *testing.T) {
		zero := 0
		cfg, err := New(WithRetry(RetryConfig{MaxRetries: &zero}))
		require.NoError(t, err)
		require.NotNil(t, cfg.Retry.MaxRetries)
		assert.Equal(t, 0, *cfg.Retry.MaxRetries)
	})
}

func TestChannelConfig(t *testing.T) {
	cfg, err := New(
		WithTestMode(),
		WithSMS(SMSConfig{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+18015550000", APIBase: "http://sms.local"}),
		WithSignage(SignageConfig{Vendor: "daktronics", Endpoint: "http://sign.local", Username: "u", Password: "p", DurationSeconds: 90}),
	)
	require.NoError(t, err)

	t.Run("sms mapping", func(t *testing.T) {
		cc := cfg.ChannelConfig(channel.TypeSMS)
		require.NotNil(t, cc)
		assert.Equal(t, "AC1", cc.Credential("account_sid"))
		assert.Equal(t, "http://sms.local", cc.SettingString("api_base", ""))
		assert.True(t, cc.TestMode)
	})

	t.Run("signage mapping", func(t *testing.T) {
		cc := cfg.ChannelConfig(channel.TypeSignage)
		require.NotNil(t, cc)
		assert.Equal(t, "daktronics", cc.SettingString("vendor", ""))
		assert.Equal(t, 90, cc.SettingInt("duration_seconds", 0))
	})

	t.Run("unconfigured channel is nil", func(t *testing.T) {
		assert.Nil(t, cfg.ChannelConfig(channel.TypePush))
	})
}

func TestLoadFile(t *testing.T) {
	yaml := `
log_level: warn
test_mode: true
redis:
  addr: localhost:6379
  db: 2
retry:
  max_retries: 5
sms:
  account_sid: AC1
  auth_token: tok
  from_number: "+18015550000"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.TestMode)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	require.NotNil(t, cfg.Retry.MaxRetries)
	assert.Equal(t, 5, *cfg.Retry.MaxRetries)
	assert.NotEmpty(t, cfg.Retry.Backoff, "defaults still applied after load")

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid block in file rejected", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("sms:\n  account_sid: AC1\n"), 0o600))
		_, err := LoadFile(bad)
		assert.Error(t, err)
	})
}
