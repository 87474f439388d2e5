package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"university-chat/backend/internal/models"
	"university-chat/backend/internal/service"
	"university-chat/backend/pkg/logger"
	"university-chat/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// RelayNotifier performs best-effort delivery to a currently connected
// recipient; nil disables delivery for this path
type RelayNotifier interface {
	TrySend(identity string, payload []byte) bool
}

// MessageHandler handles the request/response send path and message reads
type MessageHandler struct {
	messages *service.MessageService
	relay    RelayNotifier
	log      *logger.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService, relay RelayNotifier, log *logger.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, relay: relay, log: log}
}

// SendMessage persists a message from the authenticated caller. The sender
// identity is always the verified claim, never a body field.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.Fail(http.StatusUnauthorized, "Invalid token or user data"))
		return
	}

	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(http.StatusBadRequest, "Missing recipient_id or content"))
		return
	}

	message, err := h.messages.Create(claims.UserID, req.RecipientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrMissingParticipant):
			c.JSON(http.StatusBadRequest, models.Fail(http.StatusBadRequest, err.Error()))
		default:
			h.log.LogError(err, "message creation failed", "sender", claims.UserID)
			c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	// Best-effort push to a connected recipient; the response does not
	// report whether delivery happened
	if h.relay != nil {
		if payload, err := json.Marshal(message); err == nil {
			h.relay.TrySend(message.ReceiverID, payload)
		}
	}

	c.JSON(http.StatusOK, models.OK(message))
}

// GetMessage returns a single message; only its participants may read it
func (h *MessageHandler) GetMessage(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.Fail(http.StatusUnauthorized, "Invalid token or user data"))
		return
	}

	message, err := h.messages.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, models.Fail(http.StatusNotFound, "Message not found"))
			return
		}
		h.log.LogError(err, "message lookup failed")
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "Failed to retrieve message"))
		return
	}

	if message.SenderID != claims.UserID && message.ReceiverID != claims.UserID {
		c.JSON(http.StatusForbidden, models.Fail(http.StatusForbidden, "Not a participant of this message"))
		return
	}

	c.JSON(http.StatusOK, models.OK(message))
}

// GetConversation returns the history between the caller and another user
func (h *MessageHandler) GetConversation(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.Fail(http.StatusUnauthorized, "Invalid token or user data"))
		return
	}

	other := c.Param("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.messages.GetConversation(claims.UserID, other, limit, offset)
	if err != nil {
		h.log.LogError(err, "conversation lookup failed", "user", claims.UserID, "other", other)
		c.JSON(http.StatusInternalServerError, models.Fail(http.StatusInternalServerError, "Failed to retrieve conversation"))
		return
	}

	c.JSON(http.StatusOK, models.OK(messages))
}
