package push

import (
	"strings"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
)

const (
	// maxTitleLength and maxBodyLength are the notification field limits most
	// mobile platforms render without clipping.
	maxTitleLength = 65
	maxBodyLength  = 240

	// topicPrefix marks a recipient as a broadcast topic instead of a device
	// token.
	topicPrefix = "topic:"
)

// SplitTitleBody divides alert content into a notification title and body.
// The first line becomes the title, the remainder the body; the body falls
// back to the title when the remainder is empty.
func SplitTitleBody(content string) (title, body string) {
	trimmed := strings.TrimSpace(content)
	first, rest, _ := strings.Cut(trimmed, "\n")

	title = channel.TruncateRunes(strings.TrimSpace(first), maxTitleLength)
	body = channel.TruncateRunes(strings.TrimSpace(rest), maxBodyLength)
	if body == "" {
		body = channel.TruncateRunes(title, maxBodyLength)
	}
	return title, body
}

// isTopic reports whether a recipient names a broadcast topic.
func isTopic(recipient string) bool {
	return strings.HasPrefix(recipient, topicPrefix)
}

// buildPayload assembles the provider message envelope for one recipient.
// Topic recipients target a named topic, everything else is a device token.
// The web platform variant carries a webpush block so browsers receive a
// displayable notification.
func buildPayload(recipient, title, body, platform string, data map[string]string) map[string]any {
	msg := map[string]any{
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
	}
	if isTopic(recipient) {
		msg["topic"] = strings.TrimPrefix(recipient, topicPrefix)
	} else {
		msg["token"] = recipient
	}
	if len(data) > 0 {
		msg["data"] = data
	}

	switch platform {
	case "web":
		msg["webpush"] = map[string]any{
			"notification": map[string]string{
				"title": title,
				"body":  body,
			},
		}
	default:
		msg["android"] = map[string]any{"priority": "high"}
	}

	return map[string]any{"message": msg}
}
