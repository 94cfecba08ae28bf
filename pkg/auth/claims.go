package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/playpalm/playpalm-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   int64
	Username string
	Role     enums.Role
}

// AccessTokenClaims represents the typed JWT issued to clients. The user id
// travels in the "id" claim so existing API consumers keep working.
type AccessTokenClaims struct {
	UserID   int64      `json:"id"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
	jwt.RegisteredClaims
}
