package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Token is an access/refresh token pair issued by the backend.
// A Token is never modified after creation; updates replace it wholesale.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Validate reports whether the pair is usable.
func (t *Token) Validate() error {
	if t == nil {
		return errors.New("token is nil")
	}
	if t.AccessToken == "" {
		return errors.New("missing access token")
	}
	if t.RefreshToken == "" {
		return errors.New("missing refresh token")
	}
	return nil
}

// AccessCredential returns the access token as a bearer credential.
func (t *Token) AccessCredential() *oauth2.Token {
	return &oauth2.Token{AccessToken: t.AccessToken, TokenType: "Bearer"}
}

// RefreshCredential returns the refresh token as a bearer credential.
func (t *Token) RefreshCredential() *oauth2.Token {
	return &oauth2.Token{AccessToken: t.RefreshToken, TokenType: "Bearer"}
}

// AccessExpiry reads the exp claim of a JWT access token without verifying
// its signature. ok is false when the token is not a JWT or carries no expiry.
func (t *Token) AccessExpiry() (expiry time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func marshalToken(t *Token) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding token: %w", err)
	}
	return string(data), nil
}

func unmarshalToken(value string) (*Token, error) {
	var t Token
	if err := json.Unmarshal([]byte(value), &t); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
