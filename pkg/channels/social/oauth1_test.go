package social

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = oauthCredentials{
	ConsumerKey:    "xvz1evFS4wEEPTGEFPHBog",
	ConsumerSecret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
	AccessToken:    "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
	TokenSecret:    "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
}

func TestBuildOAuthHeader(t *testing.T) {
	header := buildOAuthHeader("POST", "https://api.twitter.com/2/tweets", nil, testCreds, "abc123nonce", 1318622958)

	require.True(t, strings.HasPrefix(header, "OAuth "))

	for _, param := range []string{
		`oauth_consumer_key="xvz1evFS4wEEPTGEFPHBog"`,
		`oauth_nonce="abc123nonce"`,
		`oauth_signature_method="HMAC-SHA1"`,
		`oauth_timestamp="1318622958"`,
		`oauth_version="1.0"`,
		`oauth_signature="`,
	} {
		assert.Contains(t, header, param)
	}

	t.Run("deterministic for fixed inputs", func(t *testing.T) {
		again := buildOAuthHeader("POST", "https://api.twitter.com/2/tweets", nil, testCreds, "abc123nonce", 1318622958)
		assert.Equal(t, header, again)
	})

	t.Run("signature changes with nonce", func(t *testing.T) {
		other := buildOAuthHeader("POST", "https://api.twitter.com/2/tweets", nil, testCreds, "othernonce", 1318622958)
		assert.NotEqual(t, header, other)
	})

	t.Run("parameters sorted alphabetically", func(t *testing.T) {
		body := strings.TrimPrefix(header, "OAuth ")
		var keys []string
		for _, pair := range strings.Split(body, ", ") {
			keys = append(keys, strings.SplitN(pair, "=", 2)[0])
		}
		for i := 1; i < len(keys); i++ {
			assert.LessOrEqual(t, keys[i-1], keys[i])
		}
	})
}

func TestSignRequest(t *testing.T) {
	oauthParams := map[string]string{
		"oauth_consumer_key":     testCreds.ConsumerKey,
		"oauth_nonce":            "abc123nonce",
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        "1318622958",
		"oauth_token":            testCreds.AccessToken,
		"oauth_version":          "1.0",
	}

	sig := signRequest("POST", "https://api.twitter.com/2/tweets", nil, oauthParams, testCreds)
	assert.NotEmpty(t, sig)

	// Request parameters participate in the signature base.
	withParams := signRequest("POST", "https://api.twitter.com/2/tweets",
		map[string]string{"status": "hello"}, oauthParams, testCreds)
	assert.NotEqual(t, sig, withParams)
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"with space", "with%20space"},
		{"a+b", "a%2Bb"},
		{"key=value&x", "key%3Dvalue%26x"},
		{"unreserved-._~", "unreserved-._~"},
		{"ümlaut", "%C3%BCmlaut"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, percentEncode(tt.in))
	}
}
