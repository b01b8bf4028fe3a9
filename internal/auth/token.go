package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the payload of a session token.
type Claims struct {
	UserId int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier issues and checks HS256 session tokens.
type TokenVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenVerifierOpt func(*TokenVerifier)

func WithTokenTTL(d time.Duration) TokenVerifierOpt {
	return func(v *TokenVerifier) {
		v.ttl = d
	}
}

func WithNow(now func() time.Time) TokenVerifierOpt {
	return func(v *TokenVerifier) {
		v.now = now
	}
}

func NewTokenVerifier(secret string, opts ...TokenVerifierOpt) *TokenVerifier {
	v := &TokenVerifier{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Issue signs a token for the user.
func (v *TokenVerifier) Issue(userId int64, email string) (string, error) {
	now := v.now()
	claims := Claims{
		UserId: userId,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id a token was issued for.
func (v *TokenVerifier) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, ErrTokenExpired
	case err != nil:
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case claims.UserId <= 0:
		return 0, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}

	return claims.UserId, nil
}
