// Package errors provides the error taxonomy for the channel delivery core.
package errors

// ErrorCode identifies a class of delivery failure.
type ErrorCode string

// Validation error codes. Raised synchronously before any network call and
// never retryable.
const (
	// CodeInvalidContent indicates malformed or empty message content.
	CodeInvalidContent ErrorCode = "INVALID_CONTENT"

	// CodeContentTooLong indicates content exceeds the channel's length limit.
	CodeContentTooLong ErrorCode = "CONTENT_TOO_LONG"

	// CodeMissingField indicates a required configuration field is absent.
	CodeMissingField ErrorCode = "MISSING_FIELD"

	// CodeNoRecipients indicates no recipients were provided.
	CodeNoRecipients ErrorCode = "NO_RECIPIENTS"

	// CodeInvalidRecipient indicates a recipient address failed validation.
	CodeInvalidRecipient ErrorCode = "INVALID_RECIPIENT"
)

// Authentication error codes. Require operator intervention, never retryable.
const (
	// CodeMissingCredentials indicates required provider credentials are absent.
	CodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"

	// CodeInvalidCredentials indicates the provider rejected the credentials.
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// CodeTokenExchangeFailed indicates an OAuth2 token exchange failed.
	CodeTokenExchangeFailed ErrorCode = "TOKEN_EXCHANGE_FAILED"
)

// External service error codes.
const (
	// CodeProviderRejected indicates the provider returned a 4xx client error.
	CodeProviderRejected ErrorCode = "PROVIDER_REJECTED"

	// CodeProviderUnavailable indicates the provider returned a 5xx server error.
	CodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"

	// CodeRateLimited indicates the provider returned a 429 response.
	CodeRateLimited ErrorCode = "RATE_LIMITED"

	// CodeNetworkTimeout indicates the network call exceeded its deadline.
	CodeNetworkTimeout ErrorCode = "NETWORK_TIMEOUT"

	// CodeConnectionFailed indicates the network call could not connect.
	CodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// Dispatch error codes.
const (
	// CodeNoAdapter indicates no adapter resolved for the channel type.
	CodeNoAdapter ErrorCode = "NO_ADAPTER"

	// CodePartialFailure indicates a batch send where some recipients failed.
	CodePartialFailure ErrorCode = "PARTIAL_FAILURE"

	// CodeRetryExhausted indicates the delivery exceeded its retry budget.
	CodeRetryExhausted ErrorCode = "RETRY_EXHAUSTED"

	// CodeInternal indicates an internal error in the delivery core.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// retryableCodes classifies which error codes a delivery scheduler may retry.
var retryableCodes = map[ErrorCode]bool{
	CodeProviderUnavailable: true,
	CodeRateLimited:         true,
	CodeNetworkTimeout:      true,
	CodeConnectionFailed:    true,
	CodeInternal:            true,
}

// categories groups error codes for reporting.
var categories = map[ErrorCode]string{
	CodeInvalidContent:      "validation",
	CodeContentTooLong:      "validation",
	CodeMissingField:        "validation",
	CodeNoRecipients:        "validation",
	CodeInvalidRecipient:    "validation",
	CodeMissingCredentials:  "authentication",
	CodeInvalidCredentials:  "authentication",
	CodeTokenExchangeFailed: "authentication",
	CodeProviderRejected:    "external_service",
	CodeProviderUnavailable: "external_service",
	CodeRateLimited:         "external_service",
	CodeNetworkTimeout:      "network",
	CodeConnectionFailed:    "network",
	CodeNoAdapter:           "dispatch",
	CodePartialFailure:      "dispatch",
	CodeRetryExhausted:      "dispatch",
	CodeInternal:            "system",
}

// CodeIsRetryable reports whether an error code is retryable.
func CodeIsRetryable(code ErrorCode) bool {
	return retryableCodes[code]
}

// Category returns the category of an error code, or "unknown".
func Category(code ErrorCode) string {
	if c, ok := categories[code]; ok {
		return c
	}
	return "unknown"
}
