// Package errors provides structured error types for the channel delivery core.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ChannelError represents a delivery failure with structured information.
type ChannelError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Channel   string    `json:"channel,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Cause is the original error, not serialized.
	Cause error `json:"-"`

	// Retryable classifies whether a delivery scheduler may retry the failure.
	Retryable bool `json:"retryable"`

	// StatusCode is the provider HTTP status when the failure came from an
	// HTTP response, zero otherwise.
	StatusCode int `json:"status_code,omitempty"`
}

// Error implements the error interface.
func (e *ChannelError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("%s: %s (channel: %s)", e.Code, e.Message, e.Channel)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ChannelError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error by code.
func (e *ChannelError) Is(target error) bool {
	if targetErr, ok := target.(*ChannelError); ok {
		return e.Code == targetErr.Code
	}
	return false
}

// WithCause adds a cause error.
func (e *ChannelError) WithCause(cause error) *ChannelError {
	e.Cause = cause
	return e
}

// WithChannel sets the channel.
func (e *ChannelError) WithChannel(channel string) *ChannelError {
	e.Channel = channel
	return e
}

// WithRecipient sets the recipient.
func (e *ChannelError) WithRecipient(recipient string) *ChannelError {
	e.Recipient = recipient
	return e
}

// WithStatusCode records the provider HTTP status.
func (e *ChannelError) WithStatusCode(status int) *ChannelError {
	e.StatusCode = status
	return e
}

// New creates a new ChannelError with retryability derived from the code.
func New(code ErrorCode, message string) *ChannelError {
	return &ChannelError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: CodeIsRetryable(code),
	}
}

// Newf creates a new ChannelError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *ChannelError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a ChannelError.
func Wrap(err error, code ErrorCode, message string) *ChannelError {
	return New(code, message).WithCause(err)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *ChannelError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// FromHTTPStatus classifies a provider HTTP status into a ChannelError.
// 5xx and 429 are retryable; 401/403 are authentication failures; other 4xx
// are non-retryable provider rejections.
func FromHTTPStatus(status int, body string) *ChannelError {
	switch {
	case status == http.StatusTooManyRequests:
		return Newf(CodeRateLimited, "provider rate limited the request: %s", truncateBody(body)).WithStatusCode(status)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return Newf(CodeInvalidCredentials, "provider rejected credentials (status %d)", status).WithStatusCode(status)
	case status >= 500:
		return Newf(CodeProviderUnavailable, "provider returned server error %d: %s", status, truncateBody(body)).WithStatusCode(status)
	case status >= 400:
		return Newf(CodeProviderRejected, "provider rejected request with status %d: %s", status, truncateBody(body)).WithStatusCode(status)
	default:
		return Newf(CodeInternal, "unexpected provider status %d", status).WithStatusCode(status)
	}
}

// IsRetryable reports whether an error may be retried. Non-ChannelError
// values are treated as retryable internal faults so transient plumbing
// failures do not become terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var chErr *ChannelError
	if stderrors.As(err, &chErr) {
		return chErr.Retryable
	}
	return true
}

// GetCode extracts the error code from an error, unwrapping as needed and
// defaulting to CodeInternal.
func GetCode(err error) ErrorCode {
	var chErr *ChannelError
	if stderrors.As(err, &chErr) {
		return chErr.Code
	}
	return CodeInternal
}

const maxBodyInError = 200

func truncateBody(body string) string {
	if len(body) > maxBodyInError {
		return body[:maxBodyInError] + "..."
	}
	return body
}
