// Package message provides the formatted message model handed to channel
// adapters by the incident layer.
package message

import (
	"strings"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/idgen"
)

// Message is one outbound formatted message derived from an incident record.
// It is created once per dispatch and must not be mutated afterwards.
type Message struct {
	ID              string         `json:"id"`
	Content         string         `json:"content"`
	IncidentID      string         `json:"incident_id"`
	IncidentVersion int            `json:"incident_version"`
	MediaURLs       []string       `json:"media_urls,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// New creates a message for an incident with a generated ID.
func New(incidentID string, incidentVersion int, content string) *Message {
	return &Message{
		ID:              idgen.MessageID(),
		Content:         content,
		IncidentID:      incidentID,
		IncidentVersion: incidentVersion,
		CreatedAt:       time.Now(),
	}
}

// WithMediaURLs sets the ordered media attachments.
func (m *Message) WithMediaURLs(urls ...string) *Message {
	m.MediaURLs = urls
	return m
}

// WithMetadata sets a metadata entry.
func (m *Message) WithMetadata(key string, value any) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
	return m
}

// Validate checks the structural requirements of the message.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Content) == "" {
		return errors.New(errors.CodeInvalidContent, "message content cannot be empty")
	}
	if m.IncidentID == "" {
		return errors.New(errors.CodeMissingField, "message must reference an incident")
	}
	return nil
}

// AffectedRoutes returns the affected-route codes carried in metadata under
// the "routes" key, or nil when absent.
func (m *Message) AffectedRoutes() []string {
	if m.Metadata == nil {
		return nil
	}
	switch v := m.Metadata["routes"].(type) {
	case []string:
		return v
	case []any:
		routes := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				routes = append(routes, s)
			}
		}
		return routes
	default:
		return nil
	}
}

// Priority returns the incident priority carried in metadata under the
// "priority" key, defaulting to "normal".
func (m *Message) Priority() string {
	if m.Metadata != nil {
		if p, ok := m.Metadata["priority"].(string); ok && p != "" {
			return p
		}
	}
	return "normal"
}
