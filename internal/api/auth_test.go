package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"university-chat/backend/internal/models"
	"university-chat/backend/internal/service"
	"university-chat/backend/pkg/jwt"
	"university-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryUserRepo struct {
	users map[string]*models.User
}

func (r *memoryUserRepo) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *memoryUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) List() ([]models.User, error) {
	out := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *memoryUserRepo) Update(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) Delete(id string) (bool, error) {
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &memoryUserRepo{users: make(map[string]*models.User)}
	jwtService := jwt.NewService("auth-test-secret", time.Hour)
	users := service.NewUserService(repo, jwtService)
	log := logger.New(logger.Config{Level: "error"})

	_, err := users.CreateUser(&models.CreateUserRequest{
		FullName: "Alice Jones",
		Email:    "alice@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	handler := NewAuthHandler(users, log)
	r := gin.New()
	r.POST("/auth/login", handler.Login)
	return r, jwtService
}

func TestLoginIssuesBearerToken(t *testing.T) {
	r, jwtService := newAuthTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success  bool                 `json:"success"`
		Response models.TokenResponse `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "bearer", envelope.Response.TokenType)

	claims, err := jwtService.ValidateToken(envelope.Response.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	for _, body := range []string{
		`{"email":"alice@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"s3cret"}`,
	} {
		w := doJSON(r, http.MethodPost, "/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var envelope models.GenericResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.False(t, envelope.Success)
		assert.Equal(t, "Invalid email or password", envelope.Detail)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
