// Package social provides the social-post channel adapter for a Twitter-like
// platform: URL-weighted character accounting, thread splitting for long
// alerts, and OAuth 1.0a request signing.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/idgen"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

const (
	// maxEffectiveLength is the platform's post limit in effective characters.
	maxEffectiveLength = 280

	brandHashtag = "#UTAAlerts"

	defaultAPIBase = "https://api.twitter.com"
)

// Adapter implements the channel adapter contract for social posts.
type Adapter struct {
	client *http.Client
	logger logger.Logger

	// now and nonce are injectable for signing tests.
	now   func() time.Time
	nonce func() string
}

// New creates a social adapter.
func New(log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Discard
	}
	return &Adapter{
		client: &http.Client{Timeout: 15 * time.Second},
		logger: log,
		now:    time.Now,
		nonce:  idgen.Nonce,
	}
}

// Name returns the social channel type.
func (a *Adapter) Name() channel.Type {
	return channel.TypeSocial
}

// Constraints returns the social channel limits. MaxLength is expressed in
// effective characters, not literal ones.
func (a *Adapter) Constraints() channel.Constraints {
	return channel.Constraints{
		MaxLength:      maxEffectiveLength,
		SupportsMedia:  true,
		SupportsHTML:   false,
		RateLimit:      30,
		RequiredFields: []string{"consumer_key", "consumer_secret", "access_token", "token_secret"},
	}
}

// Capabilities reports social capability flags.
func (a *Adapter) Capabilities() channel.Capabilities {
	return channel.Capabilities{
		SupportsHealthCheck: true,
	}
}

// ValidateContent validates using the platform's URL-weighted length metric:
// a message whose effective count is exactly the limit is valid.
func (a *Adapter) ValidateContent(content string) channel.ValidationResult {
	var errs []string

	if strings.TrimSpace(content) == "" {
		errs = append(errs, "content cannot be empty")
	}
	if effective := EffectiveLength(content); effective > maxEffectiveLength {
		errs = append(errs, fmt.Sprintf("content effective length %d exceeds limit of %d", effective, maxEffectiveLength))
	}

	return channel.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// FormatContent appends the brand hashtag when room remains under the
// effective limit. Content that already carries the hashtag is unchanged.
func (a *Adapter) FormatContent(content string) string {
	if strings.Contains(content, brandHashtag) {
		return content
	}
	candidate := content + " " + brandHashtag
	if EffectiveLength(candidate) <= maxEffectiveLength {
		return candidate
	}
	return content
}

// Send posts the message, splitting into a reply thread when the content
// exceeds the effective limit. Missing OAuth credentials fail fast without a
// network call.
func (a *Adapter) Send(ctx context.Context, msg *message.Message, recipients []string, cfg *channel.Config) *channel.SendResult {
	creds, err := a.credentials(cfg)
	if err != nil {
		return channel.FailureResult(err)
	}

	content := a.FormatContent(msg.Content)

	var segments []string
	if EffectiveLength(content) <= maxEffectiveLength {
		segments = []string{content}
	} else {
		segments = SplitThread(msg.Content, cfg.SettingInt("max_tweets", DefaultMaxTweets))
		if len(segments) == 0 {
			return channel.FailureResult(errors.New(errors.CodeInvalidContent, "content produced no postable segments"))
		}
	}

	apiBase := cfg.SettingString("api_base", defaultAPIBase)

	var firstID, previousID string
	for i, segment := range segments {
		postID, err := a.postTweet(ctx, apiBase, segment, previousID, creds)
		if err != nil {
			if i == 0 {
				return channel.FailureResult(err)
			}
			// A partially posted thread still informed riders; report the
			// split rather than fail the whole send.
			return &channel.SendResult{
				Success:        true,
				MessageID:      firstID,
				RecipientCount: 1,
				Error:          fmt.Sprintf("%d of %d thread segments failed", len(segments)-i, len(segments)),
			}
		}
		if i == 0 {
			firstID = postID
		}
		previousID = postID
	}

	a.logger.Info("Social post published", "messageID", msg.ID, "segments", len(segments), "postID", firstID)

	result := channel.SuccessResult(firstID, 1)
	result.Response = fmt.Sprintf("segments=%d", len(segments))
	return result
}

// postTweet signs and posts one segment, optionally as a reply to the
// previous segment in the thread.
func (a *Adapter) postTweet(ctx context.Context, apiBase, text, inReplyTo string, creds oauthCredentials) (string, error) {
	endpoint := apiBase + "/2/tweets"

	payload := map[string]any{"text": text}
	if inReplyTo != "" {
		payload["reply"] = map[string]any{"in_reply_to_tweet_id": inReplyTo}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to marshal post payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to build post request")
	}
	req.Header.Set("Content-Type", "application/json")

	// JSON bodies are excluded from the OAuth 1.0a parameter string; only
	// the oauth_* parameters participate in the signature.
	header := buildOAuthHeader(http.MethodPost, endpoint, nil, creds, a.nonce(), a.now().Unix())
	req.Header.Set("Authorization", header)

	resp, err := a.client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return "", errors.Wrap(err, errors.CodeNetworkTimeout, "social post timed out")
		}
		return "", errors.Wrap(err, errors.CodeConnectionFailed, "social post failed")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConnectionFailed, "failed to read social provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.FromHTTPStatus(resp.StatusCode, string(respBody)).WithChannel(string(channel.TypeSocial))
	}

	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		a.logger.Warn("Unparseable social provider response", "error", err)
		return "", nil
	}
	return parsed.Data.ID, nil
}

// HealthCheck verifies credentials are present; the platform offers no cheap
// unauthenticated probe, so presence is the best-effort answer.
func (a *Adapter) HealthCheck(ctx context.Context, cfg *channel.Config) channel.HealthStatus {
	if _, err := a.credentials(cfg); err != nil {
		return channel.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return channel.HealthStatus{Healthy: true, Message: "credentials configured"}
}

// credentials extracts the OAuth credential set, failing with a non-retryable
// error naming the missing keys.
func (a *Adapter) credentials(cfg *channel.Config) (oauthCredentials, error) {
	creds := oauthCredentials{
		ConsumerKey:    cfg.Credential("consumer_key"),
		ConsumerSecret: cfg.Credential("consumer_secret"),
		AccessToken:    cfg.Credential("access_token"),
		TokenSecret:    cfg.Credential("token_secret"),
	}

	var missing []string
	if creds.ConsumerKey == "" {
		missing = append(missing, "consumer_key")
	}
	if creds.ConsumerSecret == "" {
		missing = append(missing, "consumer_secret")
	}
	if creds.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if creds.TokenSecret == "" {
		missing = append(missing, "token_secret")
	}
	if len(missing) > 0 {
		return oauthCredentials{}, errors.Newf(errors.CodeMissingCredentials, "missing OAuth credentials: %s", strings.Join(missing, ", "))
	}
	return creds, nil
}
