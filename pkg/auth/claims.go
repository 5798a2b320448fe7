package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/northfarm/sales-backend/pkg/enums"
)

// AccessTokenPayload carries the identity fields minted into an access token.
type AccessTokenPayload struct {
	Username string
	Role     enums.ActorRole
	JTI      string
}

// AccessTokenClaims is the JWT claim set for a logged-in venue user.
type AccessTokenClaims struct {
	Username string          `json:"username"`
	Role     enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
