package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Role     string    `json:"role,omitempty"`
	Type     string    `json:"type"`
	Version  int       `json:"ver,omitempty"`
}

// IsAdmin reports whether the token was issued to an administrator.
func (c *TokenClaims) IsAdmin() bool {
	return c.Role == "admin"
}
