// Package signage provides the digital-signage channel adapter. Alert text is
// reshaped for physical displays and pushed to a vendor-specific sign
// controller; the controller addresses the signs, so a send is one call
// regardless of how many displays it reaches.
package signage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

// Adapter implements the channel adapter contract for digital signage.
type Adapter struct {
	client *http.Client
	logger logger.Logger
}

// New creates a signage adapter.
func New(log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Discard
	}
	return &Adapter{
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log,
	}
}

// Name returns the signage channel type.
func (a *Adapter) Name() channel.Type {
	return channel.TypeSignage
}

// Constraints returns the signage channel limits.
func (a *Adapter) Constraints() channel.Constraints {
	return channel.Constraints{
		MaxLength:     maxLength,
		SupportsMedia: false,
		SupportsHTML:  false,
	}
}

// Capabilities reports signage capability flags.
func (a *Adapter) Capabilities() channel.Capabilities {
	return channel.Capabilities{
		SupportsHealthCheck: true,
	}
}

// ValidateContent applies the shared validation rule against the display
// rendering of the content, since stripping URLs can shorten it under the
// limit.
func (a *Adapter) ValidateContent(content string) channel.ValidationResult {
	return channel.DefaultValidateContent(FormatForDisplay(content), a.Constraints())
}

// FormatContent reshapes content for a physical sign.
func (a *Adapter) FormatContent(content string) string {
	return FormatForDisplay(content)
}

// Send pushes the display text to the configured sign controller. Affected
// route codes from message metadata lead the text when they fit.
func (a *Adapter) Send(ctx context.Context, msg *message.Message, recipients []string, cfg *channel.Config) *channel.SendResult {
	text := PrefixRoutes(FormatForDisplay(msg.Content), msg.AffectedRoutes())
	if text == "" {
		return channel.FailureResult(errors.New(errors.CodeInvalidContent, "content is empty after display formatting"))
	}

	update := &displayUpdate{
		Text:      text,
		Priority:  PriorityCode(msg.Priority()),
		MessageID: msg.ID,
		Duration:  cfg.SettingInt("duration_seconds", 0),
	}

	backend := resolveVendor(cfg)
	providerID, err := backend.send(ctx, a.client, cfg, update)
	if err != nil {
		return channel.FailureResult(err)
	}

	a.logger.Info("Signage update posted",
		"messageID", msg.ID,
		"vendor", backend.name(),
		"priority", update.Priority)

	result := channel.SuccessResult(providerID, 1)
	result.Response = fmt.Sprintf("vendor=%s", backend.name())
	return result
}

// HealthCheck probes the controller endpoint with a HEAD request.
func (a *Adapter) HealthCheck(ctx context.Context, cfg *channel.Config) channel.HealthStatus {
	endpoint := cfg.SettingString("endpoint", "")
	if endpoint == "" {
		return channel.HealthStatus{Healthy: false, Message: "no controller endpoint configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return channel.HealthStatus{Healthy: false, Message: fmt.Sprintf("controller returned status %d", resp.StatusCode)}
	}
	return channel.HealthStatus{Healthy: true}
}
