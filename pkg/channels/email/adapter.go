// Package email provides the email channel adapter. The subject is derived
// from the content's first line, the body is escaped and wrapped in a branded
// HTML template with a plain-text part alongside, and delivery goes through
// one of several named REST providers selected by configuration.
package email

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

const maxLength = 10000

// Adapter implements the channel adapter contract for email.
type Adapter struct {
	client *http.Client
	logger logger.Logger
}

// New creates an email adapter.
func New(log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Discard
	}
	return &Adapter{
		client: &http.Client{Timeout: 20 * time.Second},
		logger: log,
	}
}

// Name returns the email channel type.
func (a *Adapter) Name() channel.Type {
	return channel.TypeEmail
}

// Constraints returns the email channel limits.
func (a *Adapter) Constraints() channel.Constraints {
	return channel.Constraints{
		MaxLength:      maxLength,
		SupportsMedia:  true,
		SupportsHTML:   true,
		RequiredFields: []string{"api_key", "from_address"},
	}
}

// Capabilities reports email capability flags.
func (a *Adapter) Capabilities() channel.Capabilities {
	return channel.Capabilities{
		SupportsHealthCheck: true,
		SupportsBatch:       true,
	}
}

// ValidateContent applies the shared validation rule.
func (a *Adapter) ValidateContent(content string) channel.ValidationResult {
	return channel.DefaultValidateContent(content, a.Constraints())
}

// FormatContent applies the shared truncation rule; the HTML wrapping happens
// at send time since it needs the extracted subject.
func (a *Adapter) FormatContent(content string) string {
	return channel.DefaultFormatContent(content, a.Constraints())
}

// Send renders the HTML and plain-text parts and hands them to the configured
// provider backend in a single call covering all recipients.
func (a *Adapter) Send(ctx context.Context, msg *message.Message, recipients []string, cfg *channel.Config) *channel.SendResult {
	if err := cfg.RequireCredentials("api_key"); err != nil {
		return channel.FailureResult(err)
	}
	from := cfg.Credential("from_address")
	if from == "" {
		from = cfg.SettingString("from_address", "")
	}
	if from == "" {
		return channel.FailureResult(errors.New(errors.CodeMissingField, "email config requires a from_address"))
	}
	if len(recipients) == 0 {
		return channel.FailureResult(errors.New(errors.CodeNoRecipients, "email send requires at least one recipient"))
	}
	for _, to := range recipients {
		if !strings.Contains(to, "@") {
			return channel.FailureResult(errors.Newf(errors.CodeInvalidRecipient, "invalid email address %q", to))
		}
	}

	backend, err := resolveProvider(cfg)
	if err != nil {
		return channel.FailureResult(err)
	}

	content := a.FormatContent(msg.Content)
	subject := ExtractSubject(content)
	htmlBody, err := RenderHTML(subject, content)
	if err != nil {
		return channel.FailureResult(errors.Wrap(err, errors.CodeInternal, "failed to render email template"))
	}

	mail := &outboundEmail{
		From:     from,
		FromName: cfg.SettingString("from_name", "Transit Alerts"),
		To:       recipients,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: content,
	}

	providerID, err := backend.send(ctx, a.client, cfg, mail)
	if err != nil {
		return channel.FailureResult(err)
	}

	a.logger.Info("Email dispatched",
		"messageID", msg.ID,
		"provider", backend.name(),
		"recipients", len(recipients))

	result := channel.SuccessResult(providerID, len(recipients))
	result.Response = fmt.Sprintf("provider=%s", backend.name())
	return result
}

// HealthCheck verifies that credentials and a resolvable provider are
// configured. Email providers expose no uniform ping endpoint, so the check
// stops at configuration.
func (a *Adapter) HealthCheck(ctx context.Context, cfg *channel.Config) channel.HealthStatus {
	if err := cfg.RequireCredentials("api_key"); err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	if _, err := resolveProvider(cfg); err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return channel.HealthStatus{Healthy: true, Message: "provider configured"}
}
