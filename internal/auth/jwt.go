// Package auth issues and validates the bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer   = "fitness-api"
	Audience = "fitness-client"

	tokenTTL = 7 * 24 * time.Hour
)

var (
	ErrMissingSecret = errors.New("JWT secret not configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Claims carries the authenticated identity. The subject repeats the user id.
type Claims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) subjectID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	if c.UserID != 0 && c.UserID != uint(id) {
		return 0, fmt.Errorf("subject %q does not match id %d", c.Subject, c.UserID)
	}
	return uint(id), nil
}

// IssueToken signs an HS256 token for the given user.
func IssueToken(secret string, userID uint, username, email string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature, issuer, audience and expiry, returning the user id.
func ParseToken(secret, tokenString string) (uint, *Claims, error) {
	if secret == "" {
		return 0, nil, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, nil, ErrInvalidToken
	}

	userID, err := claims.subjectID()
	if err != nil {
		return 0, nil, ErrInvalidToken
	}
	return userID, claims, nil
}
