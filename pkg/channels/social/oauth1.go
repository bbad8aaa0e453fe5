package social

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// oauthCredentials holds the four OAuth 1.0a secrets a post request needs.
type oauthCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	TokenSecret    string
}

// buildOAuthHeader constructs the `Authorization: OAuth ...` header value for
// a signed request: percent-encoded alphabetically sorted parameter string,
// signature base METHOD&url&params, signing key from consumer and token
// secrets, HMAC-SHA1 signature.
func buildOAuthHeader(method, rawURL string, requestParams map[string]string, creds oauthCredentials, nonce string, timestamp int64) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     creds.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        fmt.Sprintf("%d", timestamp),
		"oauth_token":            creds.AccessToken,
		"oauth_version":          "1.0",
	}

	signature := signRequest(method, rawURL, requestParams, oauthParams, creds)
	oauthParams["oauth_signature"] = signature

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", percentEncode(k), percentEncode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(pairs, ", ")
}

// signRequest computes the HMAC-SHA1 request signature.
func signRequest(method, rawURL string, requestParams, oauthParams map[string]string, creds oauthCredentials) string {
	all := make(map[string]string, len(requestParams)+len(oauthParams))
	for k, v := range requestParams {
		all[k] = v
	}
	for k, v := range oauthParams {
		all[k] = v
	}

	encoded := make([]string, 0, len(all))
	for k, v := range all {
		encoded = append(encoded, percentEncode(k)+"="+percentEncode(v))
	}
	sort.Strings(encoded)
	paramString := strings.Join(encoded, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(rawURL) + "&" + percentEncode(paramString)
	signingKey := percentEncode(creds.ConsumerSecret) + "&" + percentEncode(creds.TokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies RFC 3986 percent encoding: unreserved characters
// (ALPHA, DIGIT, '-', '.', '_', '~') pass through, everything else becomes
// %XX with uppercase hex.
func percentEncode(s string) string {
	var out strings.Builder
	for _, b := range []byte(s) {
		if isUnreserved(b) {
			out.WriteByte(b)
		} else {
			out.WriteString(fmt.Sprintf("%%%02X", b))
		}
	}
	return out.String()
}

func isUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-', b == '.', b == '_', b == '~':
		return true
	}
	return false
}
