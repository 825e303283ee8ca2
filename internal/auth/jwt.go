// File: internal/auth/jwt.go
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/partshub/chat-service/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what this subsystem reads out of a bearer token. User tokens
// are issued by the external auth service with the same secret; anonymous
// tokens are issued here when a visitor record is created.
type Claims struct {
	Subject   string
	Role      domain.UserRole
	Anonymous bool
}

const anonymousTokenTTL = 180 * 24 * time.Hour

// GenerateAnonymousToken issues a long-lived token for an anonymous
// visitor record.
func GenerateAnonymousToken(anonymousUserID string, secretKey []byte) (string, error) {
	if anonymousUserID == "" {
		return "", errors.New("anonymous user ID cannot be empty")
	}

	claims := jwt.MapClaims{
		"sub":  anonymousUserID,
		"anon": true,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(anonymousTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ValidateToken checks the signature and expiry and extracts the claims.
func ValidateToken(tokenString string, secretKey []byte) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{Subject: sub, Role: domain.RoleCustomer}
	if anon, ok := claims["anon"].(bool); ok && anon {
		out.Anonymous = true
		return out, nil
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		out.Role = domain.UserRole(role)
	}
	return out, nil
}
