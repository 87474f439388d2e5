package ws

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"university-chat/backend/internal/models"
	"university-chat/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdRecord struct {
	senderID   string
	receiverID string
	content    string
}

type fakeStore struct {
	mu      sync.Mutex
	created []createdRecord
	err     error
}

func (s *fakeStore) Create(senderID, receiverID, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, createdRecord{senderID, receiverID, content})
	return &models.Message{
		ID:         "m1",
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (s *fakeStore) records() []createdRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]createdRecord, len(s.created))
	copy(out, s.created)
	return out
}

type relayFixture struct {
	server     *httptest.Server
	registry   *Registry
	store      *fakeStore
	jwtService *jwt.Service
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testLogger()
	registry := NewRegistry(log)
	store := &fakeStore{}
	jwtService := jwt.NewService("relay-test-secret", time.Hour)
	relay := NewRelay(registry, store, jwtService, nil, nil, log)

	engine := gin.New()
	engine.GET("/ws", relay.ServeWs)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &relayFixture{
		server:     server,
		registry:   registry,
		store:      store,
		jwtService: jwtService,
	}
}

func (f *relayFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := f.jwtService.GenerateToken(userID, userID+"@example.com", jwt.RoleUser)
	require.NoError(t, err)

	url := strings.Replace(f.server.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(raw)
}

func waitForRegistration(t *testing.T, registry *Registry, identity string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if registry.Lookup(identity) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("identity %q never registered", identity)
}

func TestServeWsRejectsMissingToken(t *testing.T) {
	f := newRelayFixture(t)

	url := strings.Replace(f.server.URL, "http", "ws", 1) + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 0, f.registry.Len())
}

func TestServeWsRejectsInvalidToken(t *testing.T) {
	f := newRelayFixture(t)

	url := strings.Replace(f.server.URL, "http", "ws", 1) + "/ws?token=not-a-token"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 0, f.registry.Len())
}

func TestRelayInvalidJSONKeepsSessionAlive(t *testing.T) {
	f := newRelayFixture(t)
	conn := f.dial(t, "alice")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, StatusInvalidFormat, readText(t, conn))

	// Session survives the bad frame
	frame, _ := json.Marshal(map[string]string{"recipient_id": "bob", "content": "hello"})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	assert.Equal(t, StatusSent, readText(t, conn))
}

func TestRelayMissingFields(t *testing.T) {
	f := newRelayFixture(t)
	conn := f.dial(t, "alice")

	for _, payload := range []string{
		`{"content":"hello"}`,
		`{"recipient_id":"bob"}`,
		`{"recipient_id":"","content":""}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
		assert.Equal(t, StatusMissingFields, readText(t, conn))
	}

	assert.Empty(t, f.store.records())
}

func TestRelaySenderComesFromToken(t *testing.T) {
	f := newRelayFixture(t)
	conn := f.dial(t, "alice")

	// A spoofed sender in the payload must be ignored
	frame := []byte(`{"sender_id":"mallory","recipient_id":"bob","content":"hello"}`)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	assert.Equal(t, StatusSent, readText(t, conn))

	records := f.store.records()
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].senderID)
	assert.Equal(t, "bob", records[0].receiverID)
	assert.Equal(t, "hello", records[0].content)
}

func TestRelayPersistenceFailureIsNonFatal(t *testing.T) {
	f := newRelayFixture(t)
	f.store.err = errors.New("database unavailable")
	conn := f.dial(t, "alice")

	frame, _ := json.Marshal(map[string]string{"recipient_id": "bob", "content": "hello"})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	assert.Equal(t, "Failed to create message: database unavailable", readText(t, conn))

	// Next frame still gets processed
	f.store.mu.Lock()
	f.store.err = nil
	f.store.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	assert.Equal(t, StatusSent, readText(t, conn))
}

func TestRelayDeliversToConnectedRecipient(t *testing.T) {
	f := newRelayFixture(t)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")
	waitForRegistration(t, f.registry, "alice")
	waitForRegistration(t, f.registry, "bob")

	frame, _ := json.Marshal(map[string]string{"recipient_id": "bob", "content": "hi bob"})
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, frame))

	assert.Equal(t, StatusSent, readText(t, alice))

	// The recipient receives the raw frame as sent
	got := readText(t, bob)
	var relayed map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &relayed))
	assert.Equal(t, "hi bob", relayed["content"])
}

func TestRelayOfflineRecipientStillSucceedsForSender(t *testing.T) {
	f := newRelayFixture(t)
	alice := f.dial(t, "alice")

	frame, _ := json.Marshal(map[string]string{"recipient_id": "ghost", "content": "anyone there"})
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, frame))

	// No delivery failure leaks back to the sender
	assert.Equal(t, StatusSent, readText(t, alice))
	require.Len(t, f.store.records(), 1)
}

func TestRelayUnregistersOnDisconnect(t *testing.T) {
	f := newRelayFixture(t)
	conn := f.dial(t, "alice")
	waitForRegistration(t, f.registry, "alice")

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !f.registry.Lookup("alice") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("connection never unregistered after disconnect")
}
