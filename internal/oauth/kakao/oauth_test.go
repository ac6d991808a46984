package kakao

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStrategy(t *testing.T, me any) *Strategy {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "kid", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "kakao_at",
			"refresh_token": "kakao_rt",
			"token_type":    "bearer",
		})
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer kakao_at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(me)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := New("kid", "ksec", "https://auth.example.com/v1/auth/social/kakao/callback", nil)
	s.tokenEndpoint = srv.URL + "/oauth/token"
	s.userEndpoint = srv.URL + "/v2/user/me"
	return s
}

func TestAuthURL_CommaScopes(t *testing.T) {
	s := New("kid", "ksec", "https://auth.example.com/cb", nil)

	raw, err := s.AuthURL(context.Background(), "signed-state")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "kid", q.Get("client_id"))
	assert.Equal(t, "signed-state", q.Get("state"))
	assert.Equal(t, "account_email,profile_nickname,profile_image", q.Get("scope"))
}

func TestExchange_NormalizesKakaoAccount(t *testing.T) {
	s := newTestStrategy(t, map[string]any{
		"id": 123456789,
		"kakao_account": map[string]any{
			"email":             "kim@example.com",
			"is_email_valid":    true,
			"is_email_verified": true,
			"profile": map[string]any{
				"nickname":          "kim",
				"profile_image_url": "https://k.kakaocdn.net/img.jpg",
			},
		},
	})

	p, err := s.Exchange(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "kakao", p.Provider)
	assert.Equal(t, "123456789", p.ProviderUserID)
	assert.Equal(t, "kim@example.com", p.Email)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, "kim", p.Nickname)
	assert.Equal(t, "kakao_at", p.AccessToken)
	assert.Equal(t, "kakao_rt", p.RefreshToken)
}

func TestExchange_MissingEmailStillLogsIn(t *testing.T) {
	// Kakao only returns email when the account_email scope was consented.
	s := newTestStrategy(t, map[string]any{
		"id": 987,
		"kakao_account": map[string]any{
			"profile": map[string]any{"nickname": "anon"},
		},
	})

	p, err := s.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "987", p.ProviderUserID)
	assert.Empty(t, p.Email)
	assert.False(t, p.EmailVerified)
}

func TestExchange_NoStableID(t *testing.T) {
	s := newTestStrategy(t, map[string]any{
		"kakao_account": map[string]any{"email": "x@example.com"},
	})

	_, err := s.Exchange(context.Background(), "the-code")
	require.Error(t, err)
}
