package api

import (
	"errors"
	"net/http"

	"university-chat/backend/internal/models"
	"university-chat/backend/internal/service"
	"university-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user account CRUD
type UserHandler struct {
	users *service.UserService
	log   *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// CreateUser registers a new account
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(http.StatusBadRequest, "Invalid request format"))
		return
	}

	user, err := h.users.CreateUser(&req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, models.Fail(http.StatusConflict, "A user with this email already exists"))
			return
		}
		h.log.LogError(err, "user creation failed")
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "Failed to create user account"))
		return
	}

	c.JSON(http.StatusOK, models.OK(user.ToResponse()))
}

// ListUsers returns all accounts
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers()
	if err != nil {
		h.log.LogError(err, "user listing failed")
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "Failed to list users"))
		return
	}

	responses := make([]models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}

	c.JSON(http.StatusOK, models.OK(responses))
}

// GetUser returns one account by id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetUserByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.Fail(http.StatusNotFound, "User not found"))
			return
		}
		h.log.LogError(err, "user lookup failed")
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "Failed to retrieve user"))
		return
	}

	c.JSON(http.StatusOK, models.OK(user.ToResponse()))
}

// UpdateUser changes an account's name and email
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(http.StatusBadRequest, "Invalid request format"))
		return
	}

	user, err := h.users.UpdateUser(c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.Fail(http.StatusNotFound, "User not found"))
			return
		}
		h.log.LogError(err, "user update failed")
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "Failed to update user"))
		return
	}

	c.JSON(http.StatusOK, models.OK(user.ToResponse()))
}

// DeleteUser removes an account
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.users.DeleteUser(id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.Fail(http.StatusNotFound, "User not found"))
			return
		}
		h.log.LogError(err, "user deletion failed")
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "Failed to delete user"))
		return
	}

	resp := models.OK(gin.H{"id": id})
	resp.Detail = "User deleted successfully"
	c.JSON(http.StatusOK, resp)
}
