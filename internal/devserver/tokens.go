package devserver

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/florianilch/taskconsole/internal/session"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var errTokenKind = errors.New("wrong token kind")

type tokenClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies the server's access and refresh tokens.
type tokenIssuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

func newTokenIssuer(key []byte, accessTTL, refreshTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		key:        key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(now),
		),
	}
}

// issue returns a fresh token pair for userID.
func (t *tokenIssuer) issue(userID int64) (*session.Token, error) {
	access, err := t.sign(userID, kindAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(userID, kindRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &session.Token{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *tokenIssuer) sign(userID int64, kind string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// verify checks raw's signature, expiry and kind and returns its user id.
func (t *tokenIssuer) verify(raw, kind string) (int64, error) {
	if raw == "" {
		return 0, jwt.ErrTokenMalformed
	}

	claims := &tokenClaims{}
	_, err := t.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	})
	if err != nil {
		return 0, err
	}
	if claims.Kind != kind {
		return 0, errTokenKind
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject: %w", err)
	}
	return userID, nil
}
