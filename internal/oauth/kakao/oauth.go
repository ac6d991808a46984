// Package kakao implements the Kakao OAuth 2.0 strategy. Like GitHub it is
// plain OAuth2: tokens from kauth.kakao.com, profile from the kapi user
// endpoint, identity nested under kakao_account.
package kakao

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
	defaultAuthEndpoint  = "https://kauth.kakao.com/oauth/authorize"
	defaultTokenEndpoint = "https://kauth.kakao.com/oauth/token"
	defaultUserEndpoint  = "https://kapi.kakao.com/v2/user/me"
)

// Strategy is the Kakao OAuth 2.0 client.
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
}

// New creates a Kakao strategy.
func New(clientID, clientSecret, redirectURL string, scopes []string) *Strategy {
	if len(scopes) == 0 {
		scopes = []string{"account_email", "profile_nickname", "profile_image"}
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
	}
}

func (k *Strategy) Name() string { return "kakao" }

// AuthURL builds the authorization URL. Kakao scopes are comma separated.
func (k *Strategy) AuthURL(_ context.Context, state string) (string, error) {
	u, _ := url.Parse(k.authEndpoint)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", k.clientID)
	q.Set("redirect_uri", k.redirectURL)
	q.Set("scope", strings.Join(k.scopes, ","))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

func (k *Strategy) exchangeCode(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", k.clientID)
	form.Set("client_secret", k.clientSecret)
	form.Set("redirect_uri", k.redirectURL)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, "POST", k.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := k.http.Do(req)
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

// userMe mirrors the kapi /v2/user/me response shape.
type userMe struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email           string `json:"email"`
		IsEmailValid    bool   `json:"is_email_valid"`
		IsEmailVerified bool   `json:"is_email_verified"`
		Profile         struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (k *Strategy) getUserMe(ctx context.Context, accessToken string) (*userMe, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", k.userEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := k.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kakao api error: status %d", resp.StatusCode)
	}

	var me userMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("failed to decode user me: %w", err)
	}
	return &me, nil
}

// Exchange trades the code for tokens and normalizes the kakao_account
// payload into a profile.
func (k *Strategy) Exchange(ctx context.Context, code string) (oauth.Profile, error) {
	tr, err := k.exchangeCode(ctx, code)
	if err != nil {
		return oauth.Profile{}, err
	}

	me, err := k.getUserMe(ctx, tr.AccessToken)
	if err != nil {
		return oauth.Profile{}, err
	}

	p := oauth.Profile{
		Provider:       k.Name(),
		Email:          me.KakaoAccount.Email,
		EmailVerified:  me.KakaoAccount.IsEmailValid && me.KakaoAccount.IsEmailVerified,
		DisplayName:    me.KakaoAccount.Profile.Nickname,
		Nickname:       me.KakaoAccount.Profile.Nickname,
		AvatarURL:      me.KakaoAccount.Profile.ProfileImageURL,
		AccessToken:    tr.AccessToken,
		RefreshToken:   tr.RefreshToken,
	}
	if me.ID != 0 {
		p.ProviderUserID = strconv.FormatInt(me.ID, 10)
	}

	if err := p.Validate(); err != nil {
		return oauth.Profile{}, err
	}
	return p, nil
}
