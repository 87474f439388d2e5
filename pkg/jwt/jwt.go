package jwt

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrMissingToken  = errors.New("no token provided")
	ErrInvalidScheme = errors.New("invalid authentication scheme")
)

// Role identifies the access level a token grants
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Claims represents the verified identity embedded in a JWT token.
// The UserID here is the single source of truth for "who is sending";
// callers must never trust an identity supplied in a request body.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims grant the given role.
// Admins implicitly hold the user role.
func (c *Claims) HasRole(role Role) bool {
	if c.Role == role {
		return true
	}
	return c.Role == RoleAdmin && role == RoleUser
}

// GenerateToken signs a new token for a user with the given secret and lifetime
func GenerateToken(userID, email string, role Role, secret string, expiry time.Duration) (string, error) {
	if secret == "" {
		secret = getSecretKey()
	}
	if role == "" {
		role = RoleUser
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies a token's signature and expiry and returns its claims
func ValidateToken(tokenString, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if secret == "" {
		secret = getSecretKey()
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(secret), nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// StripBearer extracts the raw token from an "Authorization: Bearer <token>"
// value. A missing or unexpected scheme tag is an error.
func StripBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}

	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", ErrInvalidScheme
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidScheme
	}

	return parts[1], nil
}

// getSecretKey gets the JWT secret key from environment variables
func getSecretKey() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Fallback to a default secret for development (not recommended for production)
		secret = "devJwtSecretDoNotUseInProduction"
	}
	return secret
}
