package jwt

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := New(Options{
		Issuer:    "https://auth.example.com",
		Audience:  "sesamo-api",
		AccessTTL: 15 * time.Minute,
		StateTTL:  5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return i
}

func TestNew_SeedIsDeterministic(t *testing.T) {
	seed := base64.StdEncoding.EncodeToString(make([]byte, ed25519.SeedSize))

	a, err := New(Options{Issuer: "iss", SeedB64: seed})
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Options{Issuer: "iss", SeedB64: seed})
	if err != nil {
		t.Fatal(err)
	}
	if !a.pub.Equal(b.pub) {
		t.Fatal("same seed must derive the same key")
	}
}

func TestNew_RejectsBadSeed(t *testing.T) {
	if _, err := New(Options{Issuer: "iss", SeedB64: "no-es-base64!!"}); err == nil {
		t.Fatal("want error for invalid base64 seed")
	}
	short := base64.StdEncoding.EncodeToString([]byte("corto"))
	if _, err := New(Options{Issuer: "iss", SeedB64: short}); err == nil {
		t.Fatal("want error for short seed")
	}
}

func TestGenerateTokens(t *testing.T) {
	i := newTestIssuer(t)

	pair, err := i.GenerateTokens("u-1", "ana@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != int64((15*time.Minute).Seconds()) {
		t.Fatalf("unexpected pair metadata: %+v", pair)
	}
	if strings.Count(pair.AccessToken, ".") != 2 {
		t.Fatalf("access token is not a JWT: %q", pair.AccessToken)
	}

	sub, err := i.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if sub != "u-1" {
		t.Fatalf("sub: got %q", sub)
	}
}

func TestGenerateTokens_RefreshIsUnique(t *testing.T) {
	i := newTestIssuer(t)

	a, _ := i.GenerateTokens("u-1", "")
	b, _ := i.GenerateTokens("u-1", "")
	if a.RefreshToken == b.RefreshToken {
		t.Fatal("refresh tokens must be unique per issuance")
	}
}

func TestStateRoundTrip(t *testing.T) {
	i := newTestIssuer(t)

	raw, err := i.SignState(StateClaims{Provider: "github", Nonce: "n-123", ReturnTo: "https://app/cb"})
	if err != nil {
		t.Fatalf("SignState: %v", err)
	}

	sc, err := i.ParseState(raw)
	if err != nil {
		t.Fatalf("ParseState: %v", err)
	}
	if sc.Provider != "github" || sc.Nonce != "n-123" || sc.ReturnTo != "https://app/cb" {
		t.Fatalf("claims: %+v", sc)
	}
}

func TestParseState_RejectsExpiredBeyondGrace(t *testing.T) {
	i := newTestIssuer(t)

	i.now = func() time.Time { return time.Now().Add(-10 * time.Minute) }
	raw, err := i.SignState(StateClaims{Provider: "google", Nonce: "n"})
	if err != nil {
		t.Fatal(err)
	}
	i.now = time.Now

	if _, err := i.ParseState(raw); err == nil {
		t.Fatal("state older than ttl+grace must be rejected")
	}
}

func TestParseState_AcceptsWithinGrace(t *testing.T) {
	i := newTestIssuer(t)

	// expired 10s ago, inside the 30s grace window
	i.now = func() time.Time { return time.Now().Add(-5*time.Minute - 10*time.Second) }
	raw, err := i.SignState(StateClaims{Provider: "google", Nonce: "n"})
	if err != nil {
		t.Fatal(err)
	}
	i.now = time.Now

	if _, err := i.ParseState(raw); err != nil {
		t.Fatalf("state inside the grace window must verify: %v", err)
	}
}

func TestVerifyAccess_RejectsStateToken(t *testing.T) {
	i := newTestIssuer(t)

	raw, err := i.SignState(StateClaims{Provider: "google", Nonce: "n"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := i.VerifyAccess(raw); err == nil {
		t.Fatal("a state token must never verify as an access token")
	}
}

func TestParseState_RejectsForeignKey(t *testing.T) {
	a := newTestIssuer(t)
	b := newTestIssuer(t)

	raw, err := a.SignState(StateClaims{Provider: "kakao", Nonce: "n"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ParseState(raw); err == nil {
		t.Fatal("state signed by another key must be rejected")
	}
}
