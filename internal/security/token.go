package security

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"siteforge/api/internal/ids"
)

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

var (
	ErrTokenInvalid      = errors.New("token invalid")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenKindMismatch = errors.New("token kind mismatch")
)

// Claims is the payload carried by both access and refresh tokens. The two
// kinds are signed with different secrets, so a leaked access token can never
// pass verification as a refresh token.
type Claims struct {
	UserID         string    `json:"uid"`
	OrganizationID string    `json:"org"`
	Role           string    `json:"role"`
	Kind           TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

func IssueToken(secret string, kind TokenKind, userID, orgID, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Kind:           kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   userID,
			// Unique jti: two tokens minted in the same second must still
			// differ, otherwise their at-rest hashes would collide.
			ID: ids.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, exp, nil
}

func VerifyToken(tokenStr, secret string, expected TokenKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != expected {
		return nil, ErrTokenKindMismatch
	}
	return claims, nil
}

// HashRefreshToken is the at-rest form of a refresh token; sessions store
// this digest, never the raw value.
func HashRefreshToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
