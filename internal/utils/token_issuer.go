package utils

import (
	"fmt"
	"time"
)

// TokenPair is what a login hands out
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer mints and verifies access and refresh tokens, each class against
// its own secret. Knowing one secret never lets a caller forge the other class.
type TokenIssuer struct {
	access  *JWTUtil
	refresh *JWTUtil
}

// NewTokenIssuer creates a TokenIssuer from two independent secrets
func NewTokenIssuer(accessSecret string, accessTTL time.Duration, refreshSecret string, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		access:  NewJWTUtil(accessSecret, accessTTL),
		refresh: NewJWTUtil(refreshSecret, refreshTTL),
	}
}

// IssuePair mints a fresh access and refresh token for a user
func (ti *TokenIssuer) IssuePair(userID int, role string) (TokenPair, error) {
	access, err := ti.access.GenerateToken(userID, role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("access token: %w", err)
	}
	refresh, err := ti.refresh.GenerateToken(userID, role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess mints a single access token
func (ti *TokenIssuer) IssueAccess(userID int, role string) (string, error) {
	return ti.access.GenerateToken(userID, role)
}

// VerifyAccess checks an access token against the access secret
func (ti *TokenIssuer) VerifyAccess(token string) (*JWTClaims, error) {
	return ti.access.ValidateToken(token)
}

// VerifyRefresh checks a refresh token against the refresh secret
func (ti *TokenIssuer) VerifyRefresh(token string) (*JWTClaims, error) {
	return ti.refresh.ValidateToken(token)
}
