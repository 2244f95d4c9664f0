package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid covers bad signatures, malformed tokens and expired tokens alike
var ErrTokenInvalid = errors.New("invalid token")

// JWTClaims custom claims for JWT
type JWTClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTUtil signs and validates tokens with a single secret
type JWTUtil struct {
	secretKey string
	ttl       time.Duration
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(secretKey string, ttl time.Duration) *JWTUtil {
	return &JWTUtil{secretKey: secretKey, ttl: ttl}
}

// GenerateToken generates a new JWT token. Every token carries a unique ID, so
// two tokens minted for the same user within one second still differ.
func (ju *JWTUtil) GenerateToken(userID int, role string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ju.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.Itoa(userID),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ju.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates the JWT token. Any failure wraps ErrTokenInvalid.
func (ju *JWTUtil) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ju.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.UserID > 0 {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
