// Package github implements the GitHub OAuth 2.0 strategy. GitHub issues
// no ID token, so the profile comes from the REST API after the exchange,
// with a secondary call to /user/emails when the account email is private.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/sesamo/internal/oauth"
)

const (
	defaultAuthEndpoint  = "https://github.com/login/oauth/authorize"
	defaultTokenEndpoint = "https://github.com/login/oauth/access_token"
	defaultUserEndpoint  = "https://api.github.com/user"
	defaultEmailEndpoint = "https://api.github.com/user/emails"
)

// Strategy is the GitHub OAuth 2.0 client.
type Strategy struct {
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string

	http *http.Client

	// endpoint overrides for tests
	authEndpoint  string
	tokenEndpoint string
	userEndpoint  string
	emailEndpoint string
}

// New creates a GitHub strategy.
func New(clientID, clientSecret, redirectURL string, scopes []string) *Strategy {
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}
	return &Strategy{
		clientID:      clientID,
		clientSecret:  clientSecret,
		redirectURL:   redirectURL,
		scopes:        scopes,
		http:          &http.Client{Timeout: 10 * time.Second},
		authEndpoint:  defaultAuthEndpoint,
		tokenEndpoint: defaultTokenEndpoint,
		userEndpoint:  defaultUserEndpoint,
		emailEndpoint: defaultEmailEndpoint,
	}
}

func (g *Strategy) Name() string { return "github" }

// AuthURL builds the authorization URL. GitHub has no nonce support; the
// anti-replay guarantee lives entirely in the signed state.
func (g *Strategy) AuthURL(_ context.Context, state string) (string, error) {
	u, _ := url.Parse(g.authEndpoint)
	q := u.Query()
	q.Set("client_id", g.clientID)
	q.Set("redirect_uri", g.redirectURL)
	q.Set("scope", strings.Join(g.scopes, " "))
	q.Set("state", state)
	q.Set("allow_signup", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

func (g *Strategy) exchangeCode(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", g.redirectURL)

	req, err := http.NewRequestWithContext(ctx, "POST", g.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if tr.Error != "" {
		return nil, fmt.Errorf("%w: %s - %s", oauth.ErrExchangeFailed, tr.Error, tr.ErrorDesc)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access_token in response", oauth.ErrExchangeFailed)
	}
	return &tr, nil
}

type userInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type emailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *Strategy) getUserInfo(ctx context.Context, accessToken string) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.userEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api error: status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// FetchEmail resolves the account email when /user returned none.
// Preference order: primary+verified, any verified, any at all.
func (g *Strategy) FetchEmail(ctx context.Context, accessToken string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.emailEndpoint, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("github api error: status %d", resp.StatusCode)
	}

	var emails []emailInfo
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", false, fmt.Errorf("failed to decode emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, emails[0].Verified, nil
	}
	return "", false, fmt.Errorf("no email found")
}

// Exchange trades the code for an access token and normalizes the profile.
func (g *Strategy) Exchange(ctx context.Context, code string) (oauth.Profile, error) {
	tr, err := g.exchangeCode(ctx, code)
	if err != nil {
		return oauth.Profile{}, err
	}

	info, err := g.getUserInfo(ctx, tr.AccessToken)
	if err != nil {
		return oauth.Profile{}, err
	}

	p := oauth.Profile{
		Provider:       g.Name(),
		ProviderUserID: strconv.FormatInt(info.ID, 10),
		Email:          info.Email,
		DisplayName:    info.Name,
		Nickname:       info.Login,
		AvatarURL:      info.AvatarURL,
		AccessToken:    tr.AccessToken,
	}
	if info.ID == 0 {
		p.ProviderUserID = ""
	}
	if p.Email != "" {
		// /user only exposes a public email; GitHub does not say whether it
		// is verified, so leave EmailVerified false unless /user/emails says so.
		p.EmailVerified = false
	}

	if p.Email == "" {
		email, verified, err := g.FetchEmail(ctx, tr.AccessToken)
		if err != nil {
			return oauth.Profile{}, fmt.Errorf("failed to get email: %w", err)
		}
		p.Email = email
		p.EmailVerified = verified
	}

	if err := p.Validate(); err != nil {
		return oauth.Profile{}, err
	}
	return p, nil
}
