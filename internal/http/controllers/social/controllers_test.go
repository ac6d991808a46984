package social_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	socialctl "github.com/dropDatabas3/sesamo/internal/http/controllers/social"
	"github.com/dropDatabas3/sesamo/internal/http/router"
	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
	"github.com/dropDatabas3/sesamo/internal/jwt"
)

// ---- fakes de la capa de servicios ----

type fakeProviders struct {
	names []string
}

func (f *fakeProviders) List(context.Context) (*svc.ProvidersResult, error) {
	infos := make([]svc.ProviderInfo, 0, len(f.names))
	for _, n := range f.names {
		infos = append(infos, svc.ProviderInfo{Name: n})
	}
	return &svc.ProvidersResult{Providers: infos}, nil
}

func (f *fakeProviders) Enabled(name string) (bool, []string) {
	for _, n := range f.names {
		if n == name {
			return true, f.names
		}
	}
	return false, f.names
}

type fakeStart struct {
	res *svc.StartResult
	err error
	got svc.StartRequest
}

func (f *fakeStart) Start(_ context.Context, req svc.StartRequest) (*svc.StartResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeCallback struct {
	res *svc.CallbackResult
	err error
	got svc.CallbackRequest
}

func (f *fakeCallback) Callback(_ context.Context, req svc.CallbackRequest) (*svc.CallbackResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeExchange struct {
	res *svc.LoginPayload
	err error
}

func (f *fakeExchange) Exchange(context.Context, string) (*svc.LoginPayload, error) {
	return f.res, f.err
}

type fakeLogin struct {
	res   *svc.LoginPayload
	err   error
	calls int
	got   svc.LoginRequest
}

func (f *fakeLogin) Login(_ context.Context, req svc.LoginRequest) (*svc.LoginPayload, error) {
	f.calls++
	f.got = req
	return f.res, f.err
}

type fakeSession struct {
	res         *svc.LoginPayload
	err         error
	logoutErr   error
	logoutCalls int
	gotToken    string
}

func (f *fakeSession) Refresh(_ context.Context, token string) (*svc.LoginPayload, error) {
	f.gotToken = token
	return f.res, f.err
}

func (f *fakeSession) Logout(_ context.Context, token string) error {
	f.logoutCalls++
	f.gotToken = token
	return f.logoutErr
}

type fakeSigner struct {
	claims jwt.StateClaims
	err    error
}

func (f *fakeSigner) SignState(jwt.StateClaims) (string, error) { return "signed", nil }
func (f *fakeSigner) ParseState(string) (jwt.StateClaims, error) {
	return f.claims, f.err
}

type world struct {
	providers *fakeProviders
	start     *fakeStart
	callback  *fakeCallback
	exchange  *fakeExchange
	login     *fakeLogin
	session   *fakeSession
	signer    *fakeSigner
	handler   http.Handler
}

func newWorld() *world {
	w := &world{
		providers: &fakeProviders{names: []string{"github", "google"}},
		start:     &fakeStart{res: &svc.StartResult{RedirectURL: "https://idp.example.com/authorize?x=1"}},
		callback:  &fakeCallback{},
		exchange:  &fakeExchange{},
		login:     &fakeLogin{},
		session:   &fakeSession{},
		signer:    &fakeSigner{},
	}
	ctl := socialctl.NewControllers(svc.Services{
		Providers:   w.providers,
		Start:       w.start,
		Callback:    w.callback,
		Exchange:    w.exchange,
		Login:       w.login,
		Session:     w.session,
		StateSigner: w.signer,
	})
	w.handler = router.New(router.Deps{Social: ctl})
	return w
}

func (w *world) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	w.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (code string) {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

// ---- providers ----

func TestProvidersList(t *testing.T) {
	w := newWorld()

	rec := w.do(t, http.MethodGet, "/v1/auth/providers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var res svc.ProvidersResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Providers, 2)
	assert.Equal(t, "github", res.Providers[0].Name)
}

// ---- start ----

func TestStart_RedirectsToProvider(t *testing.T) {
	w := newWorld()

	rec := w.do(t, http.MethodGet, "/v1/auth/social/github/start?return_to=https://app.example.com/done", nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/authorize?x=1", rec.Header().Get("Location"))
	assert.Equal(t, "github", w.start.got.Provider)
	assert.Equal(t, "https://app.example.com/done", w.start.got.ReturnTo)
}

func TestStart_JSONMode(t *testing.T) {
	w := newWorld()

	rec := w.do(t, http.MethodGet, "/v1/auth/social/github/start?mode=json", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://idp.example.com/authorize?x=1", body["auth_url"])
}

func TestStart_UnknownProviderNamesAlternatives(t *testing.T) {
	w := newWorld()

	rec := w.do(t, http.MethodGet, "/v1/auth/social/kakao/start", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PROVIDER_UNKNOWN", body.Code)
	assert.Contains(t, body.Detail, "github")
	assert.Contains(t, body.Detail, "google")
}

// ---- callback ----

func TestCallback_RedirectsWithLoginCode(t *testing.T) {
	w := newWorld()
	w.callback.res = &svc.CallbackResult{RedirectURL: "https://app.example.com/done?code=abc"}

	rec := w.do(t, http.MethodGet, "/v1/auth/social/github/callback?state=st&code=cd", nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://app.example.com/done?code=abc", rec.Header().Get("Location"))
	assert.Equal(t, "st", w.callback.got.State)
	assert.Equal(t, "cd", w.callback.got.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestCallback_DirectJSONWhenNoReturnTo(t *testing.T) {
	w := newWorld()
	w.callback.res = &svc.CallbackResult{Payload: &svc.LoginPayload{
		UserID:    "u-1",
		IsNewUser: true,
		Tokens:    jwt.TokenPair{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"},
	}}

	rec := w.do(t, http.MethodGet, "/v1/auth/social/github/callback?state=st&code=cd", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload svc.LoginPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "u-1", payload.UserID)
	assert.True(t, payload.IsNewUser)
	assert.Equal(t, "at", payload.Tokens.AccessToken)
}

func TestCallback_TamperedStateIsUnauthorized(t *testing.T) {
	w := newWorld()
	w.callback.err = svc.ErrCallbackInvalidState

	rec := w.do(t, http.MethodGet, "/v1/auth/social/github/callback?state=bad&code=cd", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallback_ProviderErrorBouncesToReturnTo(t *testing.T) {
	w := newWorld()
	w.signer.claims = jwt.StateClaims{Provider: "github", ReturnTo: "https://app.example.com/done"}

	rec := w.do(t, http.MethodGet,
		"/v1/auth/social/github/callback?state=st&error=access_denied&error_description=user+cancelled", nil)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", loc.Host)
	assert.Equal(t, "access_denied", loc.Query().Get("error"))
	assert.Equal(t, "user cancelled", loc.Query().Get("error_description"))
}

// ---- exchange ----

func TestExchange_ReturnsParkedPayload(t *testing.T) {
	w := newWorld()
	w.exchange.res = &svc.LoginPayload{UserID: "u-9", Tokens: jwt.TokenPair{AccessToken: "at"}}

	rec := w.do(t, http.MethodPost, "/v1/auth/social/exchange", map[string]string{"code": "abc"})

	require.Equal(t, http.StatusOK, rec.Code)
	var payload svc.LoginPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "u-9", payload.UserID)
}

func TestExchange_InvalidCodeIsUnauthorized(t *testing.T) {
	w := newWorld()
	w.exchange.err = svc.ErrExchangeCodeInvalid

	rec := w.do(t, http.MethodPost, "/v1/auth/social/exchange", map[string]string{"code": "consumed"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec))
}

// ---- social-login ----

func TestSocialLogin_DelegatesToService(t *testing.T) {
	w := newWorld()
	w.login.res = &svc.LoginPayload{UserID: "u-3", IsNewUser: false}

	rec := w.do(t, http.MethodPost, "/v1/auth/social-login", svc.LoginRequest{
		Provider: "GitHub", // el controller normaliza a minúsculas
		Profile:  svc.SocialUserProfile{ProviderUserID: "gh-1"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "github", w.login.got.Provider)
	assert.Equal(t, 1, w.login.calls)
}

func TestSocialLogin_UnknownProviderNeverReachesService(t *testing.T) {
	w := newWorld()

	rec := w.do(t, http.MethodPost, "/v1/auth/social-login", svc.LoginRequest{
		Provider: "kakao",
		Profile:  svc.SocialUserProfile{ProviderUserID: "k-1"},
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, w.login.calls)
}

// ---- refresh / logout ----

func TestRefresh_ReturnsRotatedPair(t *testing.T) {
	w := newWorld()
	w.session.res = &svc.LoginPayload{
		UserID: "u-1",
		Tokens: jwt.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2", TokenType: "Bearer"},
	}

	rec := w.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refreshToken": "rt-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rt-1", w.session.gotToken)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var payload svc.LoginPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "rt-2", payload.Tokens.RefreshToken)
}

func TestRefresh_MissingTokenIsBadRequest(t *testing.T) {
	w := newWorld()
	w.session.err = svc.ErrSessionTokenMissing

	rec := w.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec))
}

func TestRefresh_InvalidTokenIsUnauthorized(t *testing.T) {
	w := newWorld()
	w.session.err = svc.ErrSessionTokenInvalid

	rec := w.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refreshToken": "rt-dead"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec))
}

func TestLogout_NoContentOnSuccess(t *testing.T) {
	w := newWorld()

	rec := w.do(t, http.MethodPost, "/v1/auth/logout", map[string]string{"refreshToken": "rt-1"})

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, w.session.logoutCalls)
	assert.Empty(t, rec.Body.Bytes())
}

func TestLogout_InvalidTokenIsUnauthorized(t *testing.T) {
	w := newWorld()
	w.session.logoutErr = svc.ErrSessionTokenInvalid

	rec := w.do(t, http.MethodPost, "/v1/auth/logout", map[string]string{"refreshToken": "rt-dead"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSocialLogin_InvalidJSON(t *testing.T) {
	w := newWorld()

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/social-login", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	w.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", decodeError(t, rec))
}
