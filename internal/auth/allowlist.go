// Package auth enforces who may call privileged back office operations.
// Tokens are issued by the hosted auth provider and signed with its shared
// HMAC secret; the allow-list of staff emails is the single place that
// decides admin access.
package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotAllowed   = errors.New("account is not allowed to use the back office")
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	admins map[string]struct{}
}

func NewVerifier(secret string, adminEmails []string) *Verifier {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Verifier{secret: []byte(secret), admins: admins}
}

// VerifyAdmin validates the bearer token and checks its email against the
// allow-list.
func (v *Verifier) VerifyAdmin(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if len(v.secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if !v.IsAdmin(claims.Email) {
		return nil, ErrNotAllowed
	}
	return claims, nil
}

func (v *Verifier) IsAdmin(email string) bool {
	_, ok := v.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
