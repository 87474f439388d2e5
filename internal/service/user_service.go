package service

import (
	"errors"
	"fmt"
	"time"

	"university-chat/backend/internal/models"
	"university-chat/backend/internal/repository"
	"university-chat/backend/pkg/cache"
	"university-chat/backend/pkg/jwt"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService handles account creation, login, and user CRUD
type UserService struct {
	repo       repository.UserRepository
	jwtService *jwt.Service
	cache      *cache.Cache
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, jwtService *jwt.Service) *UserService {
	return &UserService{
		repo:       repo,
		jwtService: jwtService,
		cache:      cache.New(5*time.Minute, 10*time.Minute),
	}
}

// CreateUser registers a new account with a hashed password
func (s *UserService) CreateUser(req *models.CreateUserRequest) (*models.User, error) {
	if existing, err := s.repo.GetByEmail(req.Email); err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return user, nil
}

// Login verifies the password and issues a bearer token
func (s *UserService) Login(req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if !models.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, jwt.Role(user.Role))
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUserByID retrieves a user, consulting the lookup cache first
func (s *UserService) GetUserByID(id string) (*models.User, error) {
	if cached, found := s.cache.Get(id); found {
		if user, ok := cached.(*models.User); ok {
			return user, nil
		}
	}

	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.cache.Set(id, user)
	return user, nil
}

// ListUsers returns all user accounts
func (s *UserService) ListUsers() ([]models.User, error) {
	users, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return users, nil
}

// UpdateUser changes name and email; the password is not updated here
func (s *UserService) UpdateUser(id string, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	user.FullName = req.FullName
	user.Email = req.Email

	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.cache.Delete(id)
	return user, nil
}

// DeleteUser removes a user account
func (s *UserService) DeleteUser(id string) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.cache.Delete(id)
	return nil
}
