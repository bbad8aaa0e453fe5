package signage

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

func signageMessage() *message.Message {
	return message.New("inc_1", 1, "Red Line delayed 20 min. Details: https://rideuta.example.com/alerts").
		WithMetadata("routes", []string{"701", "704"}).
		WithMetadata("priority", "high")
}

func TestSignageSendGeneric(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &channel.Config{
		Credentials: map[string]string{"api_key": "secret"},
		Settings:    map[string]any{"endpoint": srv.URL},
	}

	a := New(nil)
	result := a.Send(context.Background(), signageMessage(), nil, cfg)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.RecipientCount)

	text := received["text"].(string)
	assert.Contains(t, text, "[701, 704]")
	assert.NotContains(t, text, "https://")
	assert.Equal(t, float64(1), received["priority"], "high maps to code 1")
}

func TestSignageSendDaktronics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "operator", user)
		assert.Equal(t, "pw", pass)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var doc daktronicsDoc
		require.NoError(t, xml.Unmarshal(body, &doc))
		assert.NotEmpty(t, doc.Text)
		assert.Equal(t, 1, doc.Priority)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &channel.Config{
		Credentials: map[string]string{"username": "operator", "password": "pw"},
		Settings:    map[string]any{"vendor": "daktronics", "endpoint": srv.URL},
	}

	a := New(nil)
	result := a.Send(context.Background(), signageMessage(), nil, cfg)
	require.True(t, result.Success, result.Error)
}

func TestSignageSendErrors(t *testing.T) {
	a := New(nil)

	t.Run("missing endpoint", func(t *testing.T) {
		result := a.Send(context.Background(), signageMessage(), nil, &channel.Config{})
		assert.False(t, result.Success)
		assert.False(t, result.Retryable)
	})

	t.Run("content empty after stripping", func(t *testing.T) {
		msg := message.New("inc_2", 1, "https://only-a-url.example.com")
		cfg := &channel.Config{Settings: map[string]any{"endpoint": "http://unused"}}
		result := a.Send(context.Background(), msg, nil, cfg)
		assert.False(t, result.Success)
	})

	t.Run("controller 500 is retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		cfg := &channel.Config{Settings: map[string]any{"endpoint": srv.URL}}
		result := a.Send(context.Background(), signageMessage(), nil, cfg)
		assert.False(t, result.Success)
		assert.True(t, result.Retryable)
	})
}

func TestSignageValidateContent(t *testing.T) {
	a := New(nil)

	t.Run("url-only content invalid for display", func(t *testing.T) {
		assert.False(t, a.ValidateContent("https://example.com/alert").Valid)
	})

	t.Run("long content valid once urls are stripped", func(t *testing.T) {
		content := "Short alert https://a-very-long-url.example.com/with/lots/of/path/segments"
		assert.True(t, a.ValidateContent(content).Valid)
	})
}
