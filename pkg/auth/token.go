// Package auth issues and verifies the signed session tokens carried as a
// bearer header or cookie.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/opticstore/pkg/apperrors"
)

// Claims asserts the authenticated identity on every request.
type Claims struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) Issue(id, role, username, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:       id,
		Role:     role,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Unauthorized("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.Unauthorized("invalid or expired session token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, apperrors.Unauthorized("invalid session token claims")
	}
	return claims, nil
}
