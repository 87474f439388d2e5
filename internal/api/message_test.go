package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

type memoryMessageRepo struct {
	messages map[string]*models.Message
}

func (r *memoryMessageRepo) Create(message *models.Message) error {
	r.messages[message.ID] = message
	return nil
}

func (r *memoryMessageRepo) GetByID(id string) (*models.Message, error) {
	message, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return message, nil
}

func (r *memoryMessageRepo) GetConversation(userA, userB string, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, *m)
		}
	}
	return out, nil
}

type recordingRelay struct {
	sentTo   []string
	payloads [][]byte
}

func (r *recordingRelay) TrySend(identity string, payload []byte) bool {
	r.sentTo = append(r.sentTo, identity)
	r.payloads = append(r.payloads, payload)
	return true
}

func asClaims(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("claims", &jwt.Claims{UserID: userID, Role: jwt.RoleUser})
		c.Next()
	}
}

func newMessageTestRouter(userID string) (*gin.Engine, *memoryMessageRepo, *recordingRelay) {
	gin.SetMode(gin.TestMode)
	repo := &memoryMessageRepo{messages: make(map[string]*models.Message)}
	relay := &recordingRelay{}
	log := logger.New(logger.Config{Level: "error"})
	handler := NewMessageHandler(service.NewMessageService(repo), relay, log)

	r := gin.New()
	group := r.Group("/messages", asClaims(userID))
	group.POST("", handler.SendMessage)
	group.GET("/:id", handler.GetMessage)
	group.GET("/conversation/:user_id", handler.GetConversation)
	return r, repo, relay
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessageUsesClaimIdentity(t *testing.T) {
	r, repo, relay := newMessageTestRouter("alice")

	// sender_id in the body must be ignored
	w := doJSON(r, http.MethodPost, "/messages", `{"sender_id":"mallory","recipient_id":"bob","content":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope models.GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)

	require.Len(t, repo.messages, 1)
	for _, m := range repo.messages {
		assert.Equal(t, "alice", m.SenderID)
		assert.Equal(t, "bob", m.ReceiverID)
	}

	// Best-effort push went to the recipient
	require.Len(t, relay.sentTo, 1)
	assert.Equal(t, "bob", relay.sentTo[0])
}

func TestSendMessageRejectsMissingFields(t *testing.T) {
	r, repo, _ := newMessageTestRouter("alice")

	for _, body := range []string{`{}`, `{"recipient_id":"bob"}`, `{"content":"hi"}`} {
		w := doJSON(r, http.MethodPost, "/messages", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
	assert.Empty(t, repo.messages)
}

func TestGetMessageParticipantsOnly(t *testing.T) {
	r, repo, _ := newMessageTestRouter("carol")
	id := uuid.NewString()
	repo.messages[id] = &models.Message{ID: id, SenderID: "alice", ReceiverID: "bob", Content: "private"}

	w := doJSON(r, http.MethodGet, "/messages/"+id, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMessageNotFound(t *testing.T) {
	r, _, _ := newMessageTestRouter("alice")

	w := doJSON(r, http.MethodGet, "/messages/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var envelope models.GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "Message not found", envelope.Detail)
}

func TestGetConversation(t *testing.T) {
	r, repo, _ := newMessageTestRouter("alice")
	for _, m := range []*models.Message{
		{ID: uuid.NewString(), SenderID: "alice", ReceiverID: "bob", Content: "one"},
		{ID: uuid.NewString(), SenderID: "bob", ReceiverID: "alice", Content: "two"},
		{ID: uuid.NewString(), SenderID: "alice", ReceiverID: "carol", Content: "other"},
	} {
		repo.messages[m.ID] = m
	}

	w := doJSON(r, http.MethodGet, "/messages/conversation/bob", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success  bool             `json:"success"`
		Response []models.Message `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Len(t, envelope.Response, 2)
}
