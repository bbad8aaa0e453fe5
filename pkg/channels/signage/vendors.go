package signage

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

// displayUpdate is the vendor-independent description of one sign update.
type displayUpdate struct {
	Text      string
	Priority  int
	MessageID string
	Duration  int // seconds the message stays on the sign, 0 means vendor default
}

// vendor translates a displayUpdate into one controller's wire shape.
type vendor interface {
	name() string
	send(ctx context.Context, client *http.Client, cfg *channel.Config, update *displayUpdate) (string, error)
}

// resolveVendor selects the controller backend from config. Unknown names get
// the generic JSON envelope; unlike email providers, sign deployments often
// run bespoke controllers that only speak the generic shape.
func resolveVendor(cfg *channel.Config) vendor {
	switch cfg.SettingString("vendor", "generic") {
	case "daktronics":
		return &daktronicsVendor{}
	case "samsungmagicinfo":
		return &magicInfoVendor{}
	case "brightsign":
		return &brightSignVendor{}
	default:
		return &genericVendor{}
	}
}

// doRequest runs one controller request and classifies failures through the
// shared taxonomy.
func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return nil, errors.Wrap(err, errors.CodeNetworkTimeout, "signage controller call timed out")
		}
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "signage controller call failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "failed to read signage controller response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.FromHTTPStatus(resp.StatusCode, string(body)).WithChannel(string(channel.TypeSignage))
	}
	return body, nil
}

// daktronicsVendor posts an XML message document with HTTP Basic auth, the
// shape Venus-series controllers ingest.
type daktronicsVendor struct{}

func (v *daktronicsVendor) name() string { return "daktronics" }

type daktronicsDoc struct {
	XMLName  xml.Name `xml:"DisplayMessage"`
	ID       string   `xml:"MessageId"`
	Text     string   `xml:"Text"`
	Priority int      `xml:"Priority"`
	Duration int      `xml:"DurationSeconds,omitempty"`
	Created  string   `xml:"Created"`
}

func (v *daktronicsVendor) send(ctx context.Context, client *http.Client, cfg *channel.Config, update *displayUpdate) (string, error) {
	endpoint := cfg.SettingString("endpoint", "")
	if endpoint == "" {
		return "", errors.New(errors.CodeMissingField, "daktronics requires an endpoint setting")
	}

	doc := daktronicsDoc{
		ID:       update.MessageID,
		Text:     update.Text,
		Priority: update.Priority,
		Duration: update.Duration,
		Created:  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal daktronics document")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(append([]byte(xml.Header), body...)))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build daktronics request")
	}
	req.Header.Set("Content-Type", "application/xml")
	req.SetBasicAuth(cfg.Credential("username"), cfg.Credential("password"))

	if _, err := doRequest(client, req); err != nil {
		return "", err
	}
	return update.MessageID, nil
}

// magicInfoVendor posts the MagicINFO REST shape with a bearer token.
type magicInfoVendor struct{}

func (v *magicInfoVendor) name() string { return "samsungmagicinfo" }

func (v *magicInfoVendor) send(ctx context.Context, client *http.Client, cfg *channel.Config, update *displayUpdate) (string, error) {
	endpoint := cfg.SettingString("endpoint", "")
	if endpoint == "" {
		return "", errors.New(errors.CodeMissingField, "samsungmagicinfo requires an endpoint setting")
	}

	payload := map[string]any{
		"messageId": update.MessageID,
		"text":      update.Text,
		"priority":  update.Priority,
		"duration":  update.Duration,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal magicinfo payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/restapi/v1.0/cms/contents/messages", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build magicinfo request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Credential("api_token"))

	respBody, err := doRequest(client, req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.ID == "" {
		return update.MessageID, nil
	}
	return parsed.ID, nil
}

// brightSignVendor posts JSON with an API-key header.
type brightSignVendor struct{}

func (v *brightSignVendor) name() string { return "brightsign" }

func (v *brightSignVendor) send(ctx context.Context, client *http.Client, cfg *channel.Config, update *displayUpdate) (string, error) {
	endpoint := cfg.SettingString("endpoint", "")
	if endpoint == "" {
		return "", errors.New(errors.CodeMissingField, "brightsign requires an endpoint setting")
	}

	payload := map[string]any{
		"id":       update.MessageID,
		"message":  update.Text,
		"priority": update.Priority,
		"ttl":      update.Duration,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal brightsign payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint+"/api/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build brightsign request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", cfg.Credential("api_key"))

	if _, err := doRequest(client, req); err != nil {
		return "", err
	}
	return update.MessageID, nil
}

// genericVendor posts a plain JSON envelope, the fallback for bespoke
// controllers.
type genericVendor struct{}

func (v *genericVendor) name() string { return "generic" }

func (v *genericVendor) send(ctx context.Context, client *http.Client, cfg *channel.Config, update *displayUpdate) (string, error) {
	endpoint := cfg.SettingString("endpoint", "")
	if endpoint == "" {
		return "", errors.New(errors.CodeMissingField, "signage requires an endpoint setting")
	}

	payload := map[string]any{
		"message_id": update.MessageID,
		"text":       update.Text,
		"priority":   update.Priority,
		"duration":   update.Duration,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal signage payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build signage request")
	}
	req.Header.Set("Content-Type", "application/json")
	if key := cfg.Credential("api_key"); key != "" {
		req.Header.Set("X-Api-Key", key)
	}

	if _, err := doRequest(client, req); err != nil {
		return "", err
	}
	return fmt.Sprintf("sign-%s", update.MessageID), nil
}
