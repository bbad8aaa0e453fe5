// Package config assembles the runtime configuration for the notification
// core: one typed block per channel plus the shared delivery, redis and
// telemetry settings. Construction goes through functional options or a YAML
// file; Validate fills defaults and rejects incomplete channel blocks.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/telemetry"
)

// Config is the root configuration.
type Config struct {
	LogLevel  string           `yaml:"log_level"`
	TestMode  bool             `yaml:"test_mode"`
	Redis     *RedisConfig     `yaml:"redis,omitempty"`
	Retry     RetryConfig      `yaml:"retry"`
	Telemetry telemetry.Config `yaml:"telemetry"`

	Email   *EmailConfig   `yaml:"email,omitempty"`
	SMS     *SMSConfig     `yaml:"sms,omitempty"`
	Social  *SocialConfig  `yaml:"social,omitempty"`
	Push    *PushConfig    `yaml:"push,omitempty"`
	Signage *SignageConfig `yaml:"signage,omitempty"`
}

// RedisConfig selects the shared delivery store. Absent means in-memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RetryConfig bounds the delivery retry schedule.
type RetryConfig struct {
	// MaxRetries caps retry attempts per delivery. Nil takes the default of
	// three; an explicit zero disables retries.
	MaxRetries   *int            `yaml:"max_retries"`
	Backoff      []time.Duration `yaml:"backoff"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	SendTimeout  time.Duration   `yaml:"send_timeout"`
}

// EmailConfig configures the email channel.
type EmailConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
	Domain      string `yaml:"domain"`
	APIBase     string `yaml:"api_base"`
}

// SMSConfig configures the SMS channel.
type SMSConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
	APIBase    string `yaml:"api_base"`
}

// SocialConfig configures the social-post channel.
type SocialConfig struct {
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	AccessToken    string `yaml:"access_token"`
	TokenSecret    string `yaml:"token_secret"`
	MaxTweets      int    `yaml:"max_tweets"`
	APIBase        string `yaml:"api_base"`
}

// PushConfig configures the push channel.
type PushConfig struct {
	ClientEmail   string `yaml:"client_email"`
	PrivateKey    string `yaml:"private_key"`
	ProjectID     string `yaml:"project_id"`
	Platform      string `yaml:"platform"`
	TokenEndpoint string `yaml:"token_endpoint"`
	APIBase       string `yaml:"api_base"`
}

// SignageConfig configures the signage channel.
type SignageConfig struct {
	Vendor          string `yaml:"vendor"`
	Endpoint        string `yaml:"endpoint"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	APIToken        string `yaml:"api_token"`
	APIKey          string `yaml:"api_key"`
	DurationSeconds int    `yaml:"duration_seconds"`
}

// Option customizes a Config.
type Option func(*Config)

// New builds a config from options and validates it.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) Option { return func(c *Config) { c.LogLevel = level } }

// WithTestMode routes every channel through the simulated adapter.
func WithTestMode() Option { return func(c *Config) { c.TestMode = true } }

// WithRedis selects the Redis delivery store.
func WithRedis(addr, password string, db int) Option {
	return func(c *Config) { c.Redis = &RedisConfig{Addr: addr, Password: password, DB: db} }
}

// WithRetry overrides the retry schedule.
func WithRetry(r RetryConfig) Option { return func(c *Config) { c.Retry = r } }

// WithTelemetry enables telemetry with the given settings.
func WithTelemetry(t telemetry.Config) Option { return func(c *Config) { c.Telemetry = t } }

// WithEmail configures the email channel.
func WithEmail(e EmailConfig) Option { return func(c *Config) { c.Email = &e } }

// WithSMS configures the SMS channel.
func WithSMS(s SMSConfig) Option { return func(c *Config) { c.SMS = &s } }

// WithSocial configures the social channel.
func WithSocial(s SocialConfig) Option { return func(c *Config) { c.Social = &s } }

// WithPush configures the push channel.
func WithPush(p PushConfig) Option { return func(c *Config) { c.Push = &p } }

// WithSignage configures the signage channel.
func WithSignage(s SignageConfig) Option { return func(c *Config) { c.Signage = &s } }

// LoadFile reads and validates a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults and rejects incomplete channel blocks.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Retry.MaxRetries == nil {
		defaultRetries := 3
		c.Retry.MaxRetries = &defaultRetries
	}
	if len(c.Retry.Backoff) == 0 {
		c.Retry.Backoff = []time.Duration{5 * time.Minute, 15 * time.Minute, 60 * time.Minute}
	}
	if c.Retry.PollInterval <= 0 {
		c.Retry.PollInterval = 30 * time.Second
	}
	if c.Retry.SendTimeout <= 0 {
		c.Retry.SendTimeout = 30 * time.Second
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry = telemetry.DefaultConfig()
	}

	if c.Email != nil {
		if c.Email.Provider == "" {
			c.Email.Provider = "sendgrid"
		}
		if c.Email.APIKey == "" || c.Email.FromAddress == "" {
			return fmt.Errorf("email config requires api_key and from_address")
		}
		if c.Email.Provider == "mailgun" && c.Email.Domain == "" {
			return fmt.Errorf("email config with the mailgun provider requires a domain")
		}
	}
	if c.SMS != nil {
		if c.SMS.AccountSID == "" || c.SMS.AuthToken == "" || c.SMS.FromNumber == "" {
			return fmt.Errorf("sms config requires account_sid, auth_token and from_number")
		}
	}
	if c.Social != nil {
		if c.Social.ConsumerKey == "" || c.Social.ConsumerSecret == "" ||
			c.Social.AccessToken == "" || c.Social.TokenSecret == "" {
			return fmt.Errorf("social config requires the four OAuth credentials")
		}
	}
	if c.Push != nil {
		if c.Push.ClientEmail == "" || c.Push.PrivateKey == "" || c.Push.ProjectID == "" {
			return fmt.Errorf("push config requires client_email, private_key and project_id")
		}
	}
	if c.Signage != nil {
		if c.Signage.Endpoint == "" {
			return fmt.Errorf("signage config requires an endpoint")
		}
		if c.Signage.Vendor == "" {
			c.Signage.Vendor = "generic"
		}
	}
	return nil
}

// ChannelConfig materializes the credential/setting map for one channel type,
// or nil when the channel is not configured.
func (c *Config) ChannelConfig(t channel.Type) *channel.Config {
	var cfg *channel.Config
	switch t {
	case channel.TypeEmail:
		if c.Email == nil {
			return nil
		}
		cfg = &channel.Config{
			Credentials: map[string]string{
				"api_key":      c.Email.APIKey,
				"from_address": c.Email.FromAddress,
			},
			Settings: map[string]any{
				"provider":  c.Email.Provider,
				"from_name": c.Email.FromName,
			},
		}
		setIfPresent(cfg.Settings, "domain", c.Email.Domain)
		setIfPresent(cfg.Settings, "api_base", c.Email.APIBase)

	case channel.TypeSMS:
		if c.SMS == nil {
			return nil
		}
		cfg = &channel.Config{
			Credentials: map[string]string{
				"account_sid": c.SMS.AccountSID,
				"auth_token":  c.SMS.AuthToken,
				"from_number": c.SMS.FromNumber,
			},
			Settings: map[string]any{},
		}
		setIfPresent(cfg.Settings, "api_base", c.SMS.APIBase)

	case channel.TypeSocial:
		if c.Social == nil {
			return nil
		}
		cfg = &channel.Config{
			Credentials: map[string]string{
				"consumer_key":    c.Social.ConsumerKey,
				"consumer_secret": c.Social.ConsumerSecret,
				"access_token":    c.Social.AccessToken,
				"token_secret":    c.Social.TokenSecret,
			},
			Settings: map[string]any{},
		}
		if c.Social.MaxTweets > 0 {
			cfg.Settings["max_tweets"] = c.Social.MaxTweets
		}
		setIfPresent(cfg.Settings, "api_base", c.Social.APIBase)

	case channel.TypePush:
		if c.Push == nil {
			return nil
		}
		cfg = &channel.Config{
			Credentials: map[string]string{
				"client_email": c.Push.ClientEmail,
				"private_key":  c.Push.PrivateKey,
				"project_id":   c.Push.ProjectID,
			},
			Settings: map[string]any{},
		}
		setIfPresent(cfg.Settings, "platform", c.Push.Platform)
		setIfPresent(cfg.Settings, "token_endpoint", c.Push.TokenEndpoint)
		setIfPresent(cfg.Settings, "api_base", c.Push.APIBase)

	case channel.TypeSignage:
		if c.Signage == nil {
			return nil
		}
		cfg = &channel.Config{
			Credentials: map[string]string{
				"username":  c.Signage.Username,
				"password":  c.Signage.Password,
				"api_token": c.Signage.APIToken,
				"api_key":   c.Signage.APIKey,
			},
			Settings: map[string]any{
				"vendor":   c.Signage.Vendor,
				"endpoint": c.Signage.Endpoint,
			},
		}
		if c.Signage.DurationSeconds > 0 {
			cfg.Settings["duration_seconds"] = c.Signage.DurationSeconds
		}

	default:
		return nil
	}

	cfg.TestMode = c.TestMode
	return cfg
}

// ConfiguredChannels lists the channel types with a config block present.
func (c *Config) ConfiguredChannels() []channel.Type {
	var out []channel.Type
	for _, t := range channel.KnownTypes() {
		if c.ChannelConfig(t) != nil {
			out = append(out, t)
		}
	}
	return out
}

func setIfPresent(settings map[string]any, key, value string) {
	if value != "" {
		settings[key] = value
	}
}
