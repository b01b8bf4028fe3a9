package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/auth"
)

type AuthConfig struct {
	JwtSecret string `json:"jwt_secret"`
	TokenTTL  string `json:"token_ttl"`
}

func (c *AuthConfig) validate() error {
	el := errors.NewErrorList()

	if c.secret() == "" {
		el.Add(fmt.Errorf("auth.jwt_secret is required"))
	}
	_, err := parseDuration("auth.token_ttl", c.TokenTTL, auth.DefaultTokenTTL)
	el.Add(err)

	return el.Err()
}

func (c *AuthConfig) secret() string {
	if c.JwtSecret != "" {
		return c.JwtSecret
	}
	return os.Getenv("JWT_SECRET")
}

func (c *AuthConfig) buildVerifier() (*auth.TokenVerifier, error) {
	ttl, err := parseDuration("auth.token_ttl", c.TokenTTL, auth.DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	return auth.NewTokenVerifier(c.secret(), auth.WithTokenTTL(ttl)), nil
}
