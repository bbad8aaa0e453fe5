package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

// outboundEmail is the provider-independent description of one email send.
type outboundEmail struct {
	From     string
	FromName string
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// provider translates an outboundEmail into one named REST provider's request
// shape and parses its response into a provider message ID.
type provider interface {
	name() string
	send(ctx context.Context, client *http.Client, cfg *channel.Config, mail *outboundEmail) (string, error)
}

// resolveProvider selects the provider backend from config. Unknown names
// are a configuration error, not a retryable failure.
func resolveProvider(cfg *channel.Config) (provider, error) {
	name := cfg.SettingString("provider", "sendgrid")
	switch name {
	case "sendgrid":
		return &sendgridProvider{}, nil
	case "mailgun":
		return &mailgunProvider{}, nil
	case "postmark":
		return &postmarkProvider{}, nil
	default:
		return nil, errors.Newf(errors.CodeMissingField, "unknown email provider %q", name)
	}
}

// doJSONRequest runs an HTTP request and classifies the response through the
// shared error taxonomy.
func doJSONRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return nil, errors.Wrap(err, errors.CodeNetworkTimeout, "email provider call timed out")
		}
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "email provider call failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "failed to read email provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.FromHTTPStatus(resp.StatusCode, string(body)).WithChannel(string(channel.TypeEmail))
	}
	return body, nil
}

// sendgridProvider posts the v3 mail/send shape with bearer auth.
type sendgridProvider struct{}

func (p *sendgridProvider) name() string { return "sendgrid" }

func (p *sendgridProvider) send(ctx context.Context, client *http.Client, cfg *channel.Config, mail *outboundEmail) (string, error) {
	apiBase := cfg.SettingString("api_base", "https://api.sendgrid.com")

	recipients := make([]map[string]string, 0, len(mail.To))
	for _, to := range mail.To {
		recipients = append(recipients, map[string]string{"email": to})
	}

	payload := map[string]any{
		"personalizations": []map[string]any{{"to": recipients}},
		"from":             map[string]string{"email": mail.From, "name": mail.FromName},
		"subject":          mail.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": mail.TextBody},
			{"type": "text/html", "value": mail.HTMLBody},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal sendgrid payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build sendgrid request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Credential("api_key"))

	resp, err := client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return "", errors.Wrap(err, errors.CodeNetworkTimeout, "email provider call timed out")
		}
		return "", errors.Wrap(err, errors.CodeConnectionFailed, "email provider call failed")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.FromHTTPStatus(resp.StatusCode, string(respBody)).WithChannel(string(channel.TypeEmail))
	}

	// SendGrid returns the message id in a header with an empty body.
	return resp.Header.Get("X-Message-Id"), nil
}

// mailgunProvider posts the form-encoded v3 messages shape with basic auth.
type mailgunProvider struct{}

func (p *mailgunProvider) name() string { return "mailgun" }

func (p *mailgunProvider) send(ctx context.Context, client *http.Client, cfg *channel.Config, mail *outboundEmail) (string, error) {
	apiBase := cfg.SettingString("api_base", "https://api.mailgun.net")
	domain := cfg.SettingString("domain", "")
	if domain == "" {
		return "", errors.New(errors.CodeMissingField, "mailgun requires a domain setting")
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("%s <%s>", mail.FromName, mail.From))
	form.Set("to", strings.Join(mail.To, ","))
	form.Set("subject", mail.Subject)
	form.Set("text", mail.TextBody)
	form.Set("html", mail.HTMLBody)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", apiBase, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build mailgun request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", cfg.Credential("api_key"))

	respBody, err := doJSONRequest(client, req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", nil
	}
	return strings.Trim(parsed.ID, "<>"), nil
}

// postmarkProvider posts the JSON email shape with a server-token header.
type postmarkProvider struct{}

func (p *postmarkProvider) name() string { return "postmark" }

func (p *postmarkProvider) send(ctx context.Context, client *http.Client, cfg *channel.Config, mail *outboundEmail) (string, error) {
	apiBase := cfg.SettingString("api_base", "https://api.postmarkapp.com")

	payload := map[string]any{
		"From":     fmt.Sprintf("%s <%s>", mail.FromName, mail.From),
		"To":       strings.Join(mail.To, ","),
		"Subject":  mail.Subject,
		"HtmlBody": mail.HTMLBody,
		"TextBody": mail.TextBody,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal postmark payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/email", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build postmark request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", cfg.Credential("api_key"))

	respBody, err := doJSONRequest(client, req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		MessageID string `json:"MessageID"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", nil
	}
	return parsed.MessageID, nil
}
