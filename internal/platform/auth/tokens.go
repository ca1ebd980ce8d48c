package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by both access and refresh tokens.
// TokenType distinguishes the two so a refresh token can never be used
// as a bearer credential and vice versa.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
}

// TokenIssuer issues and validates HMAC-signed access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer. secret should be a strong random
// string; accessTTL is short (minutes), refreshTTL long (days).
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess returns a signed short-lived access token for the user.
func (t *TokenIssuer) IssueAccess(userID uuid.UUID, username string) (string, error) {
	return t.issue(userID, username, tokenTypeAccess, t.accessTTL)
}

// IssueRefresh returns a signed long-lived refresh token for the user.
func (t *TokenIssuer) IssueRefresh(userID uuid.UUID, username string) (string, error) {
	return t.issue(userID, username, tokenTypeRefresh, t.refreshTTL)
}

func (t *TokenIssuer) issue(userID uuid.UUID, username, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		Username:  username,
		TokenType: typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// ValidateAccess parses an access token and returns its claims.
func (t *TokenIssuer) ValidateAccess(tokenStr string) (*Claims, error) {
	return t.validate(tokenStr, tokenTypeAccess)
}

// ValidateRefresh parses a refresh token and returns its claims.
func (t *TokenIssuer) ValidateRefresh(tokenStr string) (*Claims, error) {
	return t.validate(tokenStr, tokenTypeRefresh)
}

func (t *TokenIssuer) validate(tokenStr, typ string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != typ {
		return nil, fmt.Errorf("token is not a %s token", typ)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return claims, nil
}

// UserID returns the subject claim as a UUID. validate has already
// checked that it parses.
func (c *Claims) UserID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}
