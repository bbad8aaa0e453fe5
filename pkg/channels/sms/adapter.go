// Package sms provides the SMS channel adapter. Messages are sent through a
// Twilio-compatible REST API, one HTTP call per recipient, fanned out
// concurrently and aggregated under the lenient batch policy.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

const (
	maxLength = 1600

	// brandPrefix is inserted on short messages when absent so recipients
	// can identify the sender.
	brandPrefix = "UTA: "

	// brandableLimit is the longest message that still receives the brand
	// prefix; longer alerts need every character for content.
	brandableLimit = 300

	defaultAPIBase = "https://api.twilio.com/2010-04-01"
	sendWorkers    = 8
)

// Adapter implements the channel adapter contract for SMS.
type Adapter struct {
	client *http.Client
	logger logger.Logger
}

// New creates an SMS adapter.
func New(log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Discard
	}
	return &Adapter{
		client: &http.Client{Timeout: 15 * time.Second},
		logger: log,
	}
}

// Name returns the SMS channel type.
func (a *Adapter) Name() channel.Type {
	return channel.TypeSMS
}

// Constraints returns the SMS channel limits.
func (a *Adapter) Constraints() channel.Constraints {
	return channel.Constraints{
		MaxLength:      maxLength,
		SupportsMedia:  false,
		SupportsHTML:   false,
		RateLimit:      60,
		RequiredFields: []string{"account_sid", "auth_token", "from_number"},
	}
}

// Capabilities reports SMS capability flags.
func (a *Adapter) Capabilities() channel.Capabilities {
	return channel.Capabilities{
		SupportsStatusQuery: true,
		SupportsHealthCheck: true,
		SupportsBatch:       true,
	}
}

// ValidateContent applies the shared validation rule.
func (a *Adapter) ValidateContent(content string) channel.ValidationResult {
	return channel.DefaultValidateContent(content, a.Constraints())
}

// FormatContent truncates to the channel limit and inserts the brand prefix
// on short messages that lack it.
func (a *Adapter) FormatContent(content string) string {
	formatted := channel.DefaultFormatContent(content, a.Constraints())

	if utf8.RuneCountInString(formatted) <= brandableLimit && !strings.HasPrefix(formatted, brandPrefix) {
		formatted = brandPrefix + formatted
	}
	return formatted
}

// Send normalizes each recipient to E.164 and fans out one provider call per
// recipient, joining on all of them before aggregating.
func (a *Adapter) Send(ctx context.Context, msg *message.Message, recipients []string, cfg *channel.Config) *channel.SendResult {
	if err := cfg.RequireCredentials("account_sid", "auth_token", "from_number"); err != nil {
		return channel.FailureResult(err)
	}
	if len(recipients) == 0 {
		return channel.FailureResult(errors.New(errors.CodeNoRecipients, "sms send requires at least one recipient"))
	}

	body := a.FormatContent(msg.Content)
	segments := SegmentCount(body)

	a.logger.Debug("Dispatching SMS",
		"messageID", msg.ID,
		"recipients", len(recipients),
		"segments", segments)

	results := channel.FanOut(ctx, recipients, sendWorkers, func(ctx context.Context, recipient string) (string, error) {
		normalized, err := NormalizePhone(recipient)
		if err != nil {
			return "", err
		}
		return a.sendOne(ctx, body, normalized, cfg)
	})

	result := channel.AggregateResults(results)
	if result.Response == "" {
		result.Response = fmt.Sprintf("segments=%d", segments)
	}
	return result
}

// sendOne posts a single message to the provider and returns its SID.
func (a *Adapter) sendOne(ctx context.Context, body, to string, cfg *channel.Config) (string, error) {
	accountSID := cfg.Credential("account_sid")
	apiBase := cfg.SettingString("api_base", defaultAPIBase)

	form := url.Values{}
	form.Set("From", cfg.Credential("from_number"))
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(accountSID, cfg.Credential("auth_token"))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConnectionFailed, "failed to read sms provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.FromHTTPStatus(resp.StatusCode, string(respBody)).WithChannel(string(channel.TypeSMS)).WithRecipient(to)
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// Provider accepted the message; a malformed body only loses the SID.
		a.logger.Warn("Unparseable sms provider response", "error", err)
		return "", nil
	}
	return parsed.SID, nil
}

// HealthCheck verifies the account endpoint answers with the configured
// credentials.
func (a *Adapter) HealthCheck(ctx context.Context, cfg *channel.Config) channel.HealthStatus {
	if err := cfg.RequireCredentials("account_sid", "auth_token"); err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}

	accountSID := cfg.Credential("account_sid")
	apiBase := cfg.SettingString("api_base", defaultAPIBase)
	endpoint := fmt.Sprintf("%s/Accounts/%s.json", apiBase, accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	req.SetBasicAuth(accountSID, cfg.Credential("auth_token"))

	resp, err := a.client.Do(req)
	if err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return channel.HealthStatus{Healthy: true}
	}
	return channel.HealthStatus{Healthy: false, Message: fmt.Sprintf("sms provider returned status %d", resp.StatusCode)}
}

// classifyTransportError maps transport failures into the error taxonomy.
// Timeouts and connection failures are retryable.
func classifyTransportError(err error) *errors.ChannelError {
	if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
		return errors.Wrap(err, errors.CodeNetworkTimeout, "sms provider call timed out")
	}
	return errors.Wrap(err, errors.CodeConnectionFailed, "sms provider call failed")
}
