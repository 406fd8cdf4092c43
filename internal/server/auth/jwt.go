// Package auth implements the signed-credential codec used by every
// authenticated handler: compact HS256 JWTs carrying the subject user ID and
// an expiry. Tokens are self-contained bearer capabilities; there is no
// server-side session or revocation list, so a token stays valid until its
// natural expiry.
package auth

import (
	"errors"
	"time"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTypeAccess marks short-lived tokens presented on API requests.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks long-lived tokens accepted only by the refresh
	// endpoint. They carry a random token ID (jti).
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
}

// GenerateToken mints an access token for userID with the given validity.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return generate(userID, TokenTypeAccess, "", secretKey, validityDuration)
}

// GenerateRefreshToken mints a refresh token for userID. Each refresh token
// gets a random jti so two tokens minted in the same second still differ.
func GenerateRefreshToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return generate(userID, TokenTypeRefresh, uuid.NewString(), secretKey, validityDuration)
}

func generate(userID, tokenType, id string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", errors.New("signing secret is not configured")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:    userID,
		TokenType: tokenType,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns its
// claims. Expired tokens yield common.ErrTokenExpired; anything else wrong
// with the token (malformed payload, bad signature, wrong algorithm) yields
// common.ErrInvalidToken, so callers can message the two cases differently.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// GetUserIDFromToken verifies an access token and returns its subject.
// Refresh tokens are rejected here: they are not valid API credentials.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeAccess {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}

// GetUserIDFromRefreshToken verifies a refresh token and returns its subject.
func GetUserIDFromRefreshToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", common.ErrRefreshTokenExpired
		}
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}
