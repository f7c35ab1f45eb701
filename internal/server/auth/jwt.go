// Package auth issues and verifies the access tokens handed out on login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/duet/internal/common"
)

// Claims identifies the logged-in profile and its partner.
type Claims struct {
	jwt.RegisteredClaims
	Profile string `json:"profile"`
	Partner string `json:"partner"`
}

var now = time.Now

func GenerateToken(profile, partner string, secretKey []byte, validityDuration time.Duration) (string, error) {
	issued := now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(validityDuration)),
		},
		Profile: profile,
		Partner: partner,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString. Expired tokens yield
// common.ErrTokenExpired; anything else invalid wraps common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Profile == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
