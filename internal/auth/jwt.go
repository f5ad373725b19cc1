// Package auth issues and validates the portal's access tokens and tracks
// tokens revoked by logout.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"codeceylon/portal/internal/model"
)

// Claims is the payload carried in an access token. The role is fixed at
// issue time: a session keeps the role it was resolved with until it ends.
type Claims struct {
	Email string     `json:"email"`
	Name  string     `json:"name,omitempty"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 token for the given user. The jti is a
// fresh uuid so individual tokens can be revoked on logout.
func NewAccessToken(secret, issuer string, ttl time.Duration, userID string, email, name string, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Name:  name,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature, expiry and issuer, and returns the claims.
func ParseToken(secret, issuer, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("parse token: unknown role %q", claims.Role)
	}
	return claims, nil
}
