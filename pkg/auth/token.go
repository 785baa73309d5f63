package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the payload the backend places inside its bearer tokens.
type Claims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a token the client holds without verifying its
// signature. The signing secret lives on the backend only, so the decoded
// claims are display and expiry hints, never an authentication decision.
func ParseClaims(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token's exp claim has passed, shrinking the
// window by leeway so a token about to die is treated as dead.
func (c *Claims) Expired(now time.Time, leeway time.Duration) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Add(leeway).Before(c.ExpiresAt.Time)
}
