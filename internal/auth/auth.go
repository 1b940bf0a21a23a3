// Package auth verifies bearer tokens and extracts the tenant identity.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier resolves a bearer token to a tenant id.
type Verifier interface {
	Verify(token string) (tenantID string, err error)
}

// Claims is the token payload. TenantID scopes every data access the
// request performs.
type Claims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256-signed tokens against a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier builds a verifier for the given secret.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: secret is required")
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

// Verify parses and validates the token and returns its tenant id.
func (v *JWTVerifier) Verify(token string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if strings.TrimSpace(claims.TenantID) == "" {
		return "", fmt.Errorf("auth: token has no tenant_id claim")
	}
	return claims.TenantID, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
