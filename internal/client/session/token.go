package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiresWithin reports whether the bearer token's exp claim falls
// within the given window from now. The token is parsed without signature
// verification; the client has no key material and only needs the
// timestamp; the server remains the authority on validity.
//
// Opaque (non-JWT) tokens and tokens without an exp claim report false:
// absent better knowledge the token is assumed live until the server
// rejects it.
func TokenExpiresWithin(token string, window time.Duration) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < window
}
