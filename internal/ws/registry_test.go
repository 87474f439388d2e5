package ws

import (
	"testing"

	"university-chat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: false})
}

func newTestClient(buffer int) *Client {
	return &Client{
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry(testLogger())
	c := newTestClient(1)

	assert.False(t, r.Lookup("alice"))
	r.Register("alice", c)
	assert.True(t, r.Lookup("alice"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRegisterReplacesPrevious(t *testing.T) {
	r := NewRegistry(testLogger())
	first := newTestClient(1)
	second := newTestClient(1)

	r.Register("alice", first)
	r.Register("alice", second)
	assert.Equal(t, 1, r.Len())

	// Frames must reach the replacement, not the stale session
	assert.True(t, r.TrySend("alice", []byte("hi")))
	select {
	case got := <-second.send:
		assert.Equal(t, "hi", string(got))
	default:
		t.Fatal("expected frame on the replacement connection")
	}
	assert.Empty(t, first.send)
}

func TestRegistryUnregisterOnlyRemovesOwnEntry(t *testing.T) {
	r := NewRegistry(testLogger())
	first := newTestClient(1)
	second := newTestClient(1)

	r.Register("alice", first)
	r.Register("alice", second)

	// The replaced session tearing down must not evict its successor
	r.Unregister("alice", first)
	assert.True(t, r.Lookup("alice"))

	r.Unregister("alice", second)
	assert.False(t, r.Lookup("alice"))

	// Repeated unregister is harmless
	r.Unregister("alice", second)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryTrySendMissingRecipient(t *testing.T) {
	r := NewRegistry(testLogger())
	assert.False(t, r.TrySend("nobody", []byte("hi")))
}

func TestRegistryTrySendSaturatedRecipient(t *testing.T) {
	r := NewRegistry(testLogger())
	c := newTestClient(1)
	r.Register("alice", c)

	assert.True(t, r.TrySend("alice", []byte("one")))
	// Buffer full: the frame is dropped, the caller is not blocked
	assert.False(t, r.TrySend("alice", []byte("two")))

	got := <-c.send
	assert.Equal(t, "one", string(got))
}
