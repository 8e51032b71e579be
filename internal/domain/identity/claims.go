package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid identity token")

// Claims mirrors the token payload minted by the auth service.
type Claims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	ClientID string `json:"client_id,omitempty"`
	KamID    string `json:"kam_id,omitempty"`
	jwt.RegisteredClaims
}

// VerifyToken parses and validates an HMAC-signed bearer token and returns
// the caller identity. Token issuance lives outside this service.
func VerifyToken(tokenStr string, secret []byte) (*Identity, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	role := ParseRole(claims.Role)
	if !role.Known() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return &Identity{
		Email:    claims.Email,
		Role:     role,
		ClientID: claims.ClientID,
		KamID:    claims.KamID,
	}, nil
}
