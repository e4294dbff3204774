package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"afrochain-auth-go/internal/domain/users"
	platformerrors "afrochain-auth-go/internal/platform/errors"
)

// DefaultTokenTTL is the fixed session validity window. There is no refresh
// mechanism; clients re-authenticate by signing a fresh challenge.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims carried by a session token. Downstream services validate these
// against the same shared secret.
type Claims struct {
	WalletAddress string `json:"wallet"`
	IsFarmer      bool   `json:"is_farmer"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenIssuer builds a token helper using the provided secret. Secret
// validation against insecure defaults happens at config load; an empty
// secret here is still a hard error.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, platformerrors.New(
			platformerrors.KindConfig,
			"auth.token",
			"session token secret must not be empty",
		)
	}
	return &TokenIssuer{
		secretKey: []byte(secret),
		ttl:       DefaultTokenTTL,
		now:       time.Now,
	}, nil
}

// WithTTL customizes the expiration duration.
func (ti *TokenIssuer) WithTTL(ttl time.Duration) *TokenIssuer {
	if ttl > 0 {
		ti.ttl = ttl
	}
	return ti
}

// WithClock overrides the time source, for tests.
func (ti *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	if now != nil {
		ti.now = now
	}
	return ti
}

// Issue mints a signed session token for the user.
func (ti *TokenIssuer) Issue(user users.User) (string, error) {
	issuedAt := ti.now()
	claims := Claims{
		WalletAddress: user.WalletAddress,
		IsFarmer:      user.IsFarmer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify validates a session token and returns its claims.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secretKey, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	if claims.WalletAddress == "" || claims.Subject == "" {
		return nil, errors.New("session token missing identity claims")
	}
	return claims, nil
}
