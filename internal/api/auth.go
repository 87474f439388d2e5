package api

import (
	"errors"
	"net/http"

	"university-chat/backend/internal/models"
	"university-chat/backend/internal/service"
	"university-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users *service.UserService
	log   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *service.UserService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// Login authenticates an email/password pair and issues a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(http.StatusBadRequest, "Invalid request format"))
		return
	}

	user, token, err := h.users.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// The detail never reveals whether the email exists
			c.JSON(http.StatusUnauthorized, models.Fail(http.StatusUnauthorized, "Invalid email or password"))
			return
		}
		h.log.LogError(err, "login failed")
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "An error occurred during login"))
		return
	}

	h.log.Info("user logged in", "user_id", user.ID, "email", user.Email)

	c.JSON(http.StatusOK, models.OK(models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}))
}
