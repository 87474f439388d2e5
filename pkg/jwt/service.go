package jwt

import (
	"time"
)

// Service issues and verifies tokens with a fixed secret and lifetime
type Service struct {
	secretKey string
	expiry    time.Duration
}

// NewService creates a new JWT service
func NewService(secretKey string, expiry time.Duration) *Service {
	if secretKey == "" {
		secretKey = getSecretKey()
	}
	if expiry == 0 {
		expiry = 30 * time.Minute
	}

	return &Service{
		secretKey: secretKey,
		expiry:    expiry,
	}
}

// GenerateToken generates a JWT token for a user
func (s *Service) GenerateToken(userID, email string, role Role) (string, error) {
	return GenerateToken(userID, email, role, s.secretKey, s.expiry)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(tokenString, s.secretKey)
}

// VerifyHeader validates a full "Bearer <token>" header value
func (s *Service) VerifyHeader(header string) (*Claims, error) {
	token, err := StripBearer(header)
	if err != nil {
		return nil, err
	}
	return s.ValidateToken(token)
}
