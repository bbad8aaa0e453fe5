package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

func emailConfig(provider, apiBase string) *channel.Config {
	cfg := &channel.Config{
		Credentials: map[string]string{
			"api_key":      "key",
			"from_address": "alerts@rideuta.example.com",
		},
		Settings: map[string]any{
			"provider": provider,
			"api_base": apiBase,
		},
	}
	if provider == "mailgun" {
		cfg.Settings["domain"] = "mg.rideuta.example.com"
	}
	return cfg
}

func TestEmailSendProviders(t *testing.T) {
	msg := message.New("inc_1", 1, "Red Line Delays\n\nExpect 20 minute delays through the evening.")
	recipients := []string{"rider@example.com", "ops@example.com"}

	t.Run("sendgrid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v3/mail/send", r.URL.Path)
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "Red Line Delays", payload["subject"])

			w.Header().Set("X-Message-Id", "sg-1")
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		a := New(nil)
		result := a.Send(context.Background(), msg, recipients, emailConfig("sendgrid", srv.URL))

		require.True(t, result.Success, result.Error)
		assert.Equal(t, "sg-1", result.MessageID)
		assert.Equal(t, 2, result.RecipientCount)
	})

	t.Run("mailgun", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v3/mg.rideuta.example.com/messages", r.URL.Path)
			user, _, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "api", user)

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "rider@example.com,ops@example.com", r.PostForm.Get("to"))
			assert.NotEmpty(t, r.PostForm.Get("html"))

			fmt.Fprint(w, `{"id":"<mg-1@mg.rideuta.example.com>"}`)
		}))
		defer srv.Close()

		a := New(nil)
		result := a.Send(context.Background(), msg, recipients, emailConfig("mailgun", srv.URL))

		require.True(t, result.Success, result.Error)
		assert.Equal(t, "mg-1@mg.rideuta.example.com", result.MessageID)
	})

	t.Run("postmark", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/email", r.URL.Path)
			assert.Equal(t, "key", r.Header.Get("X-Postmark-Server-Token"))
			fmt.Fprint(w, `{"MessageID":"pm-1"}`)
		}))
		defer srv.Close()

		a := New(nil)
		result := a.Send(context.Background(), msg, recipients, emailConfig("postmark", srv.URL))

		require.True(t, result.Success, result.Error)
		assert.Equal(t, "pm-1", result.MessageID)
	})
}

func TestEmailSendValidation(t *testing.T) {
	msg := message.New("inc_1", 1, "Service alert")
	a := New(nil)

	t.Run("unknown provider is a config error", func(t *testing.T) {
		result := a.Send(context.Background(), msg, []string{"r@example.com"}, emailConfig("pigeonpost", "http://unused"))
		assert.False(t, result.Success)
		assert.False(t, result.Retryable)
	})

	t.Run("mailgun without domain fails", func(t *testing.T) {
		cfg := emailConfig("mailgun", "http://unused")
		delete(cfg.Settings, "domain")
		result := a.Send(context.Background(), msg, []string{"r@example.com"}, cfg)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "domain")
	})

	t.Run("invalid recipient rejected", func(t *testing.T) {
		result := a.Send(context.Background(), msg, []string{"not-an-address"}, emailConfig("sendgrid", "http://unused"))
		assert.False(t, result.Success)
		assert.False(t, result.Retryable)
	})

	t.Run("missing credentials rejected", func(t *testing.T) {
		result := a.Send(context.Background(), msg, []string{"r@example.com"}, &channel.Config{})
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "missing credentials")
	})

	t.Run("provider 503 is retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		result := a.Send(context.Background(), msg, []string{"r@example.com"}, emailConfig("sendgrid", srv.URL))
		assert.False(t, result.Success)
		assert.True(t, result.Retryable)
	})
}

func TestEmailHealthCheck(t *testing.T) {
	a := New(nil)

	healthy := a.HealthCheck(context.Background(), emailConfig("sendgrid", "http://unused"))
	assert.True(t, healthy.Healthy)

	unhealthy := a.HealthCheck(context.Background(), &channel.Config{})
	assert.False(t, unhealthy.Healthy)
}

func TestEmailFormatContent(t *testing.T) {
	a := New(nil)
	long := strings.Repeat("a", 20000)
	got := a.FormatContent(long)
	assert.Len(t, []rune(got), 10000)
}
