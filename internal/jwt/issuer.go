// Package jwt issues the service's own credentials: EdDSA access tokens,
// opaque refresh tokens, and the short-lived signed state that rides the
// OAuth redirect round-trip.
package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	sectoken "github.com/dropDatabas3/sesamo/internal/security/token"
)

// StateAudience marks state JWTs so they can never pass as access tokens.
const StateAudience = "social-state"

// expGrace tolerates small clock skew when validating exp.
const expGrace = 30 * time.Second

var (
	ErrInvalidState = errors.New("jwt: invalid state token")
	ErrInvalidToken = errors.New("jwt: invalid token")
)

// Issuer signs and verifies every token the service mints. Safe for
// concurrent use.
type Issuer struct {
	issuer     string
	audience   string
	accessTTL  time.Duration
	stateTTL   time.Duration
	refreshLen int

	priv ed25519.PrivateKey
	pub  ed25519.PublicKey

	now func() time.Time
}

// Options configures an Issuer.
type Options struct {
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	StateTTL  time.Duration
	// SeedB64 is a base64 32-byte ed25519 seed. Empty means an ephemeral
	// per-process key: fine for dev, every restart invalidates tokens.
	SeedB64 string
}

// New builds an Issuer from options.
func New(opts Options) (*Issuer, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwt: issuer required")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = 5 * time.Minute
	}

	var priv ed25519.PrivateKey
	if opts.SeedB64 != "" {
		seed, err := base64.StdEncoding.DecodeString(opts.SeedB64)
		if err != nil {
			return nil, fmt.Errorf("jwt: decode ed25519 seed: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("jwt: ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		priv = ed25519.NewKeyFromSeed(seed)
	} else {
		_, p, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		priv = p
	}

	return &Issuer{
		issuer:     opts.Issuer,
		audience:   opts.Audience,
		accessTTL:  opts.AccessTTL,
		stateTTL:   opts.StateTTL,
		refreshLen: 32,
		priv:       priv,
		pub:        priv.Public().(ed25519.PublicKey),
		now:        time.Now,
	}, nil
}

// TokenPair is what a successful login hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// GenerateTokens mints an EdDSA access token plus an opaque refresh token
// for the user. The refresh token returned here is the cleartext value;
// persistence stores only its hash.
func (i *Issuer) GenerateTokens(userID, email string) (TokenPair, error) {
	if userID == "" {
		return TokenPair{}, errors.New("jwt: empty user id")
	}
	now := i.now()

	claims := jwtv5.MapClaims{
		"iss": i.issuer,
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(i.accessTTL).Unix(),
		"jti": uuid.NewString(),
	}
	if i.audience != "" {
		claims["aud"] = i.audience
	}
	if email != "" {
		claims["email"] = email
	}

	access, err := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims).SignedString(i.priv)
	if err != nil {
		return TokenPair{}, fmt.Errorf("jwt: sign access token: %w", err)
	}

	refresh, err := sectoken.GenerateOpaqueToken(i.refreshLen)
	if err != nil {
		return TokenPair{}, fmt.Errorf("jwt: refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

// StateClaims is the payload carried through the OAuth redirect.
type StateClaims struct {
	Provider string `json:"prv"`
	Nonce    string `json:"nnc"`
	// ReturnTo is the optional client URL to bounce back to after the
	// callback completes.
	ReturnTo string `json:"rto,omitempty"`
}

// SignState mints a short-lived state JWT bound to the provider and nonce.
func (i *Issuer) SignState(sc StateClaims) (string, error) {
	if sc.Provider == "" {
		return "", errors.New("jwt: state without provider")
	}
	now := i.now()
	claims := jwtv5.MapClaims{
		"iss": i.issuer,
		"aud": StateAudience,
		"iat": now.Unix(),
		"exp": now.Add(i.stateTTL).Unix(),
		"jti": uuid.NewString(),
		"prv": sc.Provider,
		"nnc": sc.Nonce,
	}
	if sc.ReturnTo != "" {
		claims["rto"] = sc.ReturnTo
	}
	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims).SignedString(i.priv)
	if err != nil {
		return "", fmt.Errorf("jwt: sign state: %w", err)
	}
	return s, nil
}

// ParseState verifies a state JWT (signature, iss, aud, exp with grace)
// and returns its claims.
func (i *Issuer) ParseState(raw string) (StateClaims, error) {
	tok, err := jwtv5.Parse(raw,
		func(t *jwtv5.Token) (any, error) { return i.pub, nil },
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(i.issuer),
		jwtv5.WithAudience(StateAudience),
		jwtv5.WithLeeway(expGrace),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return StateClaims{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return StateClaims{}, ErrInvalidState
	}
	sc := StateClaims{
		Provider: strClaim(mc, "prv"),
		Nonce:    strClaim(mc, "nnc"),
		ReturnTo: strClaim(mc, "rto"),
	}
	if sc.Provider == "" {
		return StateClaims{}, fmt.Errorf("%w: missing provider", ErrInvalidState)
	}
	return sc, nil
}

// VerifyAccess parses and validates an access token, returning the subject.
func (i *Issuer) VerifyAccess(raw string) (userID string, err error) {
	parseOpts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(i.issuer),
		jwtv5.WithLeeway(expGrace),
		jwtv5.WithTimeFunc(i.now),
	}
	if i.audience != "" {
		parseOpts = append(parseOpts, jwtv5.WithAudience(i.audience))
	}
	tok, err := jwtv5.Parse(raw, func(t *jwtv5.Token) (any, error) { return i.pub, nil }, parseOpts...)
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mc, _ := tok.Claims.(jwtv5.MapClaims)
	sub := strClaim(mc, "sub")
	if sub == "" {
		return "", fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	// un access token nunca debe portar la audiencia de state
	if aud, _ := mc.GetAudience(); contains(aud, StateAudience) {
		return "", fmt.Errorf("%w: state token used as access token", ErrInvalidToken)
	}
	return sub, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}

func contains(ss jwtv5.ClaimStrings, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
