package channel

import (
	"context"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

// Adapter is the capability set every channel implementation exposes.
//
// ValidateContent and FormatContent are pre-send checks and may be combined
// with the shared defaults in this package. Send never returns a Go error for
// expected failure conditions (missing credentials, provider rejection,
// network errors); it always returns a SendResult whose Retryable flag
// classifies the failure for the delivery scheduler.
type Adapter interface {
	// Name returns the channel type this adapter serves.
	Name() Type

	// Constraints returns the channel's structural limits.
	Constraints() Constraints

	// Capabilities returns the adapter's optional capability flags.
	Capabilities() Capabilities

	// ValidateContent checks content against the channel's rules.
	ValidateContent(content string) ValidationResult

	// FormatContent reshapes content to fit the channel.
	FormatContent(content string) string

	// Send delivers the message to the recipients using the given config.
	Send(ctx context.Context, msg *message.Message, recipients []string, cfg *Config) *SendResult

	// HealthCheck probes provider connectivity best-effort.
	HealthCheck(ctx context.Context, cfg *Config) HealthStatus
}

// StatusQuerier is implemented by adapters whose provider supports
// asynchronous delivery-status queries. Callers must check the
// SupportsStatusQuery capability flag before asserting this interface;
// absence means unsupported, not an error.
type StatusQuerier interface {
	GetStatus(ctx context.Context, externalID string, cfg *Config) (*StatusInfo, error)
}

// Capabilities describes the optional capabilities of an adapter, so callers
// can branch on flags instead of runtime presence checks.
type Capabilities struct {
	SupportsStatusQuery bool `json:"supports_status_query"`
	SupportsHealthCheck bool `json:"supports_health_check"`
	SupportsBatch       bool `json:"supports_batch"`
	MaxRecipients       int  `json:"max_recipients"` // 0 means unbounded
}

// ValidationResult is the outcome of a content validation.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// HealthStatus is the outcome of a connectivity probe.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// StatusInfo is a provider-reported delivery status for a single send.
type StatusInfo struct {
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SendResult is the typed outcome of one Send call. Produced fresh per call
// and never mutated afterwards.
type SendResult struct {
	Success bool `json:"success"`

	// MessageID is the provider-assigned identifier when available.
	MessageID string `json:"message_id,omitempty"`

	// Error describes the failure, or a partial-failure summary when
	// Success is true but some recipients failed.
	Error string `json:"error,omitempty"`

	// Retryable is meaningful only when Success is false.
	Retryable bool `json:"retryable,omitempty"`

	// RecipientCount is the number of recipients that were delivered.
	RecipientCount int `json:"recipient_count,omitempty"`

	// Response is an opaque diagnostic payload from the provider.
	Response string `json:"response,omitempty"`
}

// SuccessResult builds a successful SendResult.
func SuccessResult(providerID string, recipients int) *SendResult {
	return &SendResult{
		Success:        true,
		MessageID:      providerID,
		RecipientCount: recipients,
	}
}

// FailureResult builds a failed SendResult from an error, carrying over the
// error taxonomy's retryability classification.
func FailureResult(err error) *SendResult {
	return &SendResult{
		Success:   false,
		Error:     err.Error(),
		Retryable: errors.IsRetryable(err),
	}
}
