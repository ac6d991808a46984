package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKid = "test-key-1"

// newTestStrategy wires a fake Google: discovery, JWKS and token endpoint
// all served from one httptest server. The token endpoint signs an id_token
// with the given claims under the server's RSA key.
func newTestStrategy(t *testing.T, claims jwtv5.MapClaims) *Strategy {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 "https://accounts.google.com",
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"kid": testKid,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString([]byte{1, 0, 1}),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))

		tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
		tok.Header["kid"] = testKid
		signed, err := tok.SignedString(key)
		require.NoError(t, err)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "ya29.test",
			"refresh_token": "1//refresh",
			"id_token":      signed,
			"token_type":    "Bearer",
			"expires_in":    3599,
		})
	})

	s := New("cid.apps.googleusercontent.com", "csec", "https://auth.example.com/v1/auth/social/google/callback", nil)
	s.discoveryURL = srv.URL + "/.well-known/openid-configuration"
	return s
}

func googleClaims() jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            "cid.apps.googleusercontent.com",
		"sub":            "10769150350006150715113082367",
		"email":          "ana@example.com",
		"email_verified": true,
		"name":           "Ana García",
		"given_name":     "Ana",
		"picture":        "https://lh3.example.com/photo.jpg",
		"nonce":          "the-nonce",
		"exp":            float64(time.Now().Add(time.Hour).Unix()),
		"iat":            float64(time.Now().Unix()),
	}
}

func TestAuthURLWithNonce(t *testing.T) {
	s := newTestStrategy(t, googleClaims())

	raw, err := s.AuthURLWithNonce(context.Background(), "signed-state", "the-nonce")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "cid.apps.googleusercontent.com", q.Get("client_id"))
	assert.Equal(t, "signed-state", q.Get("state"))
	assert.Equal(t, "the-nonce", q.Get("nonce"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "openid")
}

func TestExchangeWithNonce_MapsClaims(t *testing.T) {
	s := newTestStrategy(t, googleClaims())

	p, err := s.ExchangeWithNonce(context.Background(), "the-code", "the-nonce")
	require.NoError(t, err)

	assert.Equal(t, "google", p.Provider)
	assert.Equal(t, "10769150350006150715113082367", p.ProviderUserID)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, "Ana García", p.DisplayName)
	assert.Equal(t, "Ana", p.Nickname)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", p.AvatarURL)
	assert.Equal(t, "ya29.test", p.AccessToken)
	assert.Equal(t, "1//refresh", p.RefreshToken)
}

func TestExchangeWithNonce_NonceMismatch(t *testing.T) {
	s := newTestStrategy(t, googleClaims())

	_, err := s.ExchangeWithNonce(context.Background(), "the-code", "a-different-nonce")
	require.Error(t, err)
}

func TestExchangeWithNonce_WrongAudience(t *testing.T) {
	claims := googleClaims()
	claims["aud"] = "someone-else"
	s := newTestStrategy(t, claims)

	_, err := s.ExchangeWithNonce(context.Background(), "the-code", "the-nonce")
	require.Error(t, err)
}

func TestExchangeWithNonce_MissingSubRejected(t *testing.T) {
	claims := googleClaims()
	delete(claims, "sub")
	s := newTestStrategy(t, claims)

	_, err := s.ExchangeWithNonce(context.Background(), "the-code", "the-nonce")
	require.Error(t, err)
}
