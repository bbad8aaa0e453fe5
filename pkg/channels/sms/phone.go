package sms

import (
	"strings"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

// NormalizePhone converts a raw phone number to E.164. All non-digit
// characters except a leading '+' are stripped; a bare 10-digit number is
// assumed to be North American and gets +1 prepended; an 11-digit number
// starting with 1 gets only '+' prepended.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New(errors.CodeInvalidRecipient, "phone number cannot be empty")
	}

	hasPlus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()

	if hasPlus {
		if len(number) < 8 || len(number) > 15 {
			return "", errors.Newf(errors.CodeInvalidRecipient, "invalid E.164 number %q", raw)
		}
		return "+" + number, nil
	}

	switch {
	case len(number) == 10:
		return "+1" + number, nil
	case len(number) == 11 && number[0] == '1':
		return "+" + number, nil
	default:
		return "", errors.Newf(errors.CodeInvalidRecipient, "cannot normalize phone number %q", raw)
	}
}
