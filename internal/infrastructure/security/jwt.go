// Package security provides JWT and password utilities for editor and
// operator access.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type Role string

const (
	RoleEditor   Role = "editor"
	RoleOperator Role = "operator"
)

// Allows reports whether a holder of r may act as required. Operators may do
// anything editors may.
func (r Role) Allows(required Role) bool {
	switch required {
	case RoleEditor:
		return r == RoleEditor || r == RoleOperator
	case RoleOperator:
		return r == RoleOperator
	}
	return false
}

var ErrInvalidToken = errors.New("invalid token")

// IssueRoleToken signs an HS256 token carrying role.
func IssueRoleToken(role Role, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"role": string(role),
		"type": "faq_admin",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// RoleFromToken validates tokenString and returns its role claim.
func RoleFromToken(tokenString, jwtSecret string) (Role, error) {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return "", err
	}
	role, _ := claims["role"].(string)
	switch Role(role) {
	case RoleEditor, RoleOperator:
		return Role(role), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
}
