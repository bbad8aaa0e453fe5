package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

// GetStatus queries the provider for the delivery status of a previously sent
// message by its SID. Implements channel.StatusQuerier.
func (a *Adapter) GetStatus(ctx context.Context, externalID string, cfg *channel.Config) (*channel.StatusInfo, error) {
	if externalID == "" {
		return nil, errors.New(errors.CodeMissingField, "status query requires a provider message id")
	}
	if err := cfg.RequireCredentials("account_sid", "auth_token"); err != nil {
		return nil, err
	}

	accountSID := cfg.Credential("account_sid")
	apiBase := cfg.SettingString("api_base", defaultAPIBase)
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages/%s.json", apiBase, accountSID, externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build status request")
	}
	req.SetBasicAuth(accountSID, cfg.Credential("auth_token"))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.FromHTTPStatus(resp.StatusCode, "").WithChannel(string(channel.TypeSMS))
	}

	var parsed struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		DateUpdated  string `json:"date_updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.CodeConnectionFailed, "failed to decode status response")
	}

	info := &channel.StatusInfo{
		Status:    parsed.Status,
		Detail:    parsed.ErrorMessage,
		UpdatedAt: time.Now().UTC(),
	}
	if t, err := time.Parse(time.RFC1123Z, parsed.DateUpdated); err == nil {
		info.UpdatedAt = t
	}
	return info, nil
}
