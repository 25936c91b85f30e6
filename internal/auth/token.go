package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenManager signs opaque session tokens for transport in cookies and
// bearer headers, so a client cannot forge a token it was never issued.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes the signed payload.
type Claims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// SignToken wraps the session token in an HS256 JWT expiring with the session.
func (tm *TokenManager) SignToken(sessionToken string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ParseToken validates a signed value and returns the session token inside it.
func (tm *TokenManager) ParseToken(signed string) (string, error) {
	parsed, err := jwt.ParseWithClaims(signed, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionToken == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.SessionToken, nil
}
