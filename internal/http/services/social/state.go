package social

import "github.com/dropDatabas3/sesamo/internal/jwt"

// StateSigner signs and verifies the state JWT carried through the OAuth
// redirect. Implemented by internal/jwt.Issuer.
type StateSigner interface {
	SignState(sc jwt.StateClaims) (string, error)
	ParseState(raw string) (jwt.StateClaims, error)
}
