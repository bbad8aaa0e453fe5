package push

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTitleBody(t *testing.T) {
	t.Run("first line becomes title", func(t *testing.T) {
		title, body := SplitTitleBody("Red Line Delays\nExpect 20 minute delays.")
		assert.Equal(t, "Red Line Delays", title)
		assert.Equal(t, "Expect 20 minute delays.", body)
	})

	t.Run("body falls back to title", func(t *testing.T) {
		title, body := SplitTitleBody("Service restored")
		assert.Equal(t, "Service restored", title)
		assert.Equal(t, "Service restored", body)
	})

	t.Run("title truncated to 65", func(t *testing.T) {
		title, _ := SplitTitleBody(strings.Repeat("a", 100) + "\nbody")
		assert.Len(t, []rune(title), 65)
	})

	t.Run("body truncated to 240", func(t *testing.T) {
		_, body := SplitTitleBody("title\n" + strings.Repeat("b", 500))
		assert.Len(t, []rune(body), 240)
	})
}

func TestBuildPayload(t *testing.T) {
	t.Run("device token recipient", func(t *testing.T) {
		payload := buildPayload("devicetoken123", "T", "B", "mobile", nil)
		msg := payload["message"].(map[string]any)

		assert.Equal(t, "devicetoken123", msg["token"])
		assert.NotContains(t, msg, "topic")
		assert.Contains(t, msg, "android")
		assert.NotContains(t, msg, "webpush")
	})

	t.Run("topic recipient", func(t *testing.T) {
		payload := buildPayload("topic:red-line-alerts", "T", "B", "mobile", nil)
		msg := payload["message"].(map[string]any)

		assert.Equal(t, "red-line-alerts", msg["topic"])
		assert.NotContains(t, msg, "token")
	})

	t.Run("web platform carries webpush block", func(t *testing.T) {
		payload := buildPayload("tok", "T", "B", "web", nil)
		msg := payload["message"].(map[string]any)

		require.Contains(t, msg, "webpush")
		assert.NotContains(t, msg, "android")
	})

	t.Run("data attached when present", func(t *testing.T) {
		payload := buildPayload("tok", "T", "B", "mobile", map[string]string{"incident_id": "inc_1"})
		msg := payload["message"].(map[string]any)

		data := msg["data"].(map[string]string)
		assert.Equal(t, "inc_1", data["incident_id"])
	})

	t.Run("notification fields", func(t *testing.T) {
		payload := buildPayload("tok", "Title", "Body", "mobile", nil)
		msg := payload["message"].(map[string]any)
		notif := msg["notification"].(map[string]string)

		assert.Equal(t, "Title", notif["title"])
		assert.Equal(t, "Body", notif["body"])
	})
}
