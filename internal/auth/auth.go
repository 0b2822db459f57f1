// internal/auth/auth.go
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the subset of the backend's access-token payload the console reads.
// The signature is never checked here: the backend is the only verifier.
type AccessClaims struct {
	Username        string `json:"username"`
	CognitoUsername string `json:"cognito:username"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	jwt.RegisteredClaims
}

// InspectToken decodes an access token without verifying it.
func InspectToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	return claims, nil
}

// Name picks the most specific user name the token carries.
func (c *AccessClaims) Name() string {
	switch {
	case c.Username != "":
		return c.Username
	case c.CognitoUsername != "":
		return c.CognitoUsername
	}
	return c.Subject
}

// Attributes flattens the claims into the credential record's userAttributes.
func (c *AccessClaims) Attributes() map[string]string {
	attrs := map[string]string{}
	if c.Subject != "" {
		attrs["sub"] = c.Subject
	}
	if c.Email != "" {
		attrs["email"] = c.Email
	}
	if c.Role != "" {
		attrs["role"] = c.Role
	}
	if c.ExpiresAt != nil {
		attrs["exp"] = strconv.FormatInt(c.ExpiresAt.Unix(), 10)
	}
	return attrs
}

// ExpiredAt reports whether the token's exp is at or before now. Tokens without exp never expire.
func (c *AccessClaims) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}
