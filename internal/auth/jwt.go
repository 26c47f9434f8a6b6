package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const adminAudience = "recruiter-chat-admin"

var ErrInvalidToken = errors.New("invalid or expired admin token")

type Claims struct {
	jwt.RegisteredClaims
}

// SignJWT issues an HS256 admin token for subject valid for ttl.
func SignJWT(subject, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{adminAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseJWT validates signature, expiry and audience and returns the subject.
func ParseJWT(tokenString, secret string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(adminAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
