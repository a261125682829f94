package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	RegulatorID string    `json:"regulator_id"`
	Type        TokenType `json:"typ"`
	jwt.RegisteredClaims
}

func GenerateToken(regulatorID string, expiration time.Duration, secret string) (string, error) {
	return generate(regulatorID, AccessToken, expiration, secret)
}

func GenerateRefreshToken(regulatorID string, expiration time.Duration, secret string) (string, error) {
	return generate(regulatorID, RefreshToken, expiration, secret)
}

func generate(regulatorID string, typ TokenType, expiration time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegulatorID: regulatorID,
		Type:        typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   regulatorID,
			Issuer:    "profile-registry",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token of any type.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateTokenOfType is ValidateToken plus a check on the token's purpose.
func ValidateTokenOfType(tokenString, secret string, typ TokenType) (*Claims, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
