package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims carries the opaque session id as the token's jti. The
// identity itself is held server-side under that id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session id carried by the token.
func (c *SessionClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
