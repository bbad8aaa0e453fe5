// Package push provides the push-notification channel adapter. Sends
// authenticate with a service-account JWT exchanged for a short-lived bearer
// token, and fan out one provider call per device token or topic.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

const (
	maxLength = 305 // title limit plus body limit

	defaultAPIBase = "https://fcm.googleapis.com"
	sendWorkers    = 16
)

// Adapter implements the channel adapter contract for push notifications.
type Adapter struct {
	client *http.Client
	tokens *tokenSource
	logger logger.Logger
}

// New creates a push adapter.
func New(log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Discard
	}
	client := &http.Client{Timeout: 15 * time.Second}
	return &Adapter{
		client: client,
		tokens: newTokenSource(client),
		logger: log,
	}
}

// Name returns the push channel type.
func (a *Adapter) Name() channel.Type {
	return channel.TypePush
}

// Constraints returns the push channel limits.
func (a *Adapter) Constraints() channel.Constraints {
	return channel.Constraints{
		MaxLength:      maxLength,
		SupportsMedia:  true,
		SupportsHTML:   false,
		RequiredFields: []string{"client_email", "private_key", "project_id"},
	}
}

// Capabilities reports push capability flags.
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

// FormatContent applies the shared truncation rule; the title/body split
// happens at send time.
func (a *Adapter) FormatContent(content string) string {
	return channel.DefaultFormatContent(content, a.Constraints())
}

// Send exchanges credentials for a bearer token once, then fans out one call
// per device token or topic recipient.
func (a *Adapter) Send(ctx context.Context, msg *message.Message, recipients []string, cfg *channel.Config) *channel.SendResult {
	if err := cfg.RequireCredentials("client_email", "private_key", "project_id"); err != nil {
		return channel.FailureResult(err)
	}
	if len(recipients) == 0 {
		return channel.FailureResult(errors.New(errors.CodeNoRecipients, "push send requires at least one recipient"))
	}

	bearer, err := a.tokens.bearerToken(ctx, cfg)
	if err != nil {
		return channel.FailureResult(err)
	}

	title, body := SplitTitleBody(a.FormatContent(msg.Content))
	platform := cfg.SettingString("platform", "mobile")

	data := map[string]string{"incident_id": msg.IncidentID}
	if msg.Priority() != "" {
		data["priority"] = msg.Priority()
	}

	a.logger.Debug("Dispatching push",
		"messageID", msg.ID,
		"recipients", len(recipients),
		"platform", platform)

	results := channel.FanOut(ctx, recipients, sendWorkers, func(ctx context.Context, recipient string) (string, error) {
		payload := buildPayload(recipient, title, body, platform, data)
		return a.sendOne(ctx, payload, bearer, cfg)
	})

	return channel.AggregateResults(results)
}

// sendOne posts a single notification envelope to the provider.
func (a *Adapter) sendOne(ctx context.Context, payload map[string]any, bearer string, cfg *channel.Config) (string, error) {
	apiBase := cfg.SettingString("api_base", defaultAPIBase)
	projectID := cfg.Credential("project_id")
	endpoint := fmt.Sprintf("%s/v1/projects/%s/messages:send", apiBase, projectID)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal push payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build push request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := a.client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return "", errors.Wrap(err, errors.CodeNetworkTimeout, "push provider call timed out")
		}
		return "", errors.Wrap(err, errors.CodeConnectionFailed, "push provider call failed")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConnectionFailed, "failed to read push provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.FromHTTPStatus(resp.StatusCode, string(respBody)).WithChannel(string(channel.TypePush))
	}

	var parsed struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		a.logger.Warn("Unparseable push provider response", "error", err)
		return "", nil
	}
	return parsed.Name, nil
}

// HealthCheck exercises the token exchange, which validates both the key
// material and connectivity to the auth endpoint.
func (a *Adapter) HealthCheck(ctx context.Context, cfg *channel.Config) channel.HealthStatus {
	if err := cfg.RequireCredentials("client_email", "private_key", "project_id"); err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	if _, err := a.tokens.bearerToken(ctx, cfg); err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return channel.HealthStatus{Healthy: true, Message: "token exchange succeeded"}
}
