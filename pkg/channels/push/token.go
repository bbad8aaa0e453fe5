package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

const (
	defaultTokenEndpoint = "https://oauth2.googleapis.com/token"
	defaultScope         = "https://www.googleapis.com/auth/firebase.messaging"

	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// expirySkew forces a refresh shortly before the provider-reported expiry
	// so an in-flight send never rides a token that lapses mid-request.
	expirySkew = 60 * time.Second
)

// cachedToken is one exchanged access token with its refresh deadline.
type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// tokenSource mints service-account JWTs, exchanges them for bearer tokens,
// and caches the result per config identity. Concurrent refreshes for the
// same identity are tolerated; the last writer wins.
type tokenSource struct {
	client *http.Client
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedToken
}

func newTokenSource(client *http.Client) *tokenSource {
	return &tokenSource{
		client: client,
		now:    time.Now,
		cache:  make(map[string]cachedToken),
	}
}

// cacheKey scopes cached tokens by credential identity plus the settings that
// change what the exchange returns. Two configs sharing a service account but
// pointing at different endpoints or scopes must not share a token.
func cacheKey(cfg *channel.Config) string {
	return cfg.Identity() + "|" +
		cfg.SettingString("token_endpoint", defaultTokenEndpoint) + "|" +
		cfg.SettingString("scope", defaultScope)
}

// bearerToken returns a valid access token for the config, exchanging a fresh
// JWT when the cached token is absent or within the expiry skew.
func (ts *tokenSource) bearerToken(ctx context.Context, cfg *channel.Config) (string, error) {
	identity := cacheKey(cfg)

	ts.mu.Lock()
	cached, ok := ts.cache[identity]
	ts.mu.Unlock()
	if ok && ts.now().Before(cached.expiresAt.Add(-expirySkew)) {
		return cached.accessToken, nil
	}

	token, expiresAt, err := ts.exchange(ctx, cfg)
	if err != nil {
		return "", err
	}

	ts.mu.Lock()
	ts.cache[identity] = cachedToken{accessToken: token, expiresAt: expiresAt}
	ts.mu.Unlock()
	return token, nil
}

// exchange signs a service-account assertion and trades it for an access
// token at the token endpoint.
func (ts *tokenSource) exchange(ctx context.Context, cfg *channel.Config) (string, time.Time, error) {
	clientEmail := cfg.Credential("client_email")
	privateKeyPEM := cfg.Credential("private_key")

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CodeInvalidCredentials, "failed to parse push service-account key")
	}

	endpoint := cfg.SettingString("token_endpoint", defaultTokenEndpoint)
	now := ts.now()

	claims := jwt.MapClaims{
		"iss":   clientEmail,
		"scope": cfg.SettingString("scope", defaultScope),
		"aud":   endpoint,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CodeInternal, "failed to sign push assertion")
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CodeInternal, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return "", time.Time{}, errors.Wrap(err, errors.CodeNetworkTimeout, "push token exchange timed out")
		}
		return "", time.Time{}, errors.Wrap(err, errors.CodeConnectionFailed, "push token exchange failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", time.Time{}, errors.Newf(errors.CodeTokenExchangeFailed, "push token endpoint returned status %d", resp.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CodeTokenExchangeFailed, "unparseable token response")
	}
	if parsed.AccessToken == "" {
		return "", time.Time{}, errors.New(errors.CodeTokenExchangeFailed, "token response carried no access token")
	}

	expiresIn := time.Duration(parsed.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return parsed.AccessToken, now.Add(expiresIn), nil
}
