// Package auth verifies the access tokens minted by the main Amora API.
// Token issuance lives there; this service only needs to resolve a bearer
// token to a validated user identity at connection time.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned for malformed, unsigned, or tampered tokens.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Claims mirrors the claim set the Amora API signs into access tokens.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed access tokens.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier for tokens signed with the given shared
// secret. If issuer is non-empty, the token's iss claim must match.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates a token string and returns the user identity
// it carries.
func (v *Verifier) Verify(tokenString string) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrTokenInvalid
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}

// Sign mints a token for the given user identity. It exists for tests and
// local development; production tokens come from the Amora API.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}
