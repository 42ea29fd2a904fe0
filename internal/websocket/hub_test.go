package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id, userID string) *Client {
	return &Client{ID: id, UserID: userID, Send: make(chan []byte, 8)}
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newTestClient("conn-1", "user-1")
	c2 := newTestClient("conn-2", "user-2")
	hub.Register <- c1
	hub.Register <- c2
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast <- []byte(`{"type":"ping"}`)
	assert.JSONEq(t, `{"type":"ping"}`, string(recv(t, c1)))
	assert.JSONEq(t, `{"type":"ping"}`, string(recv(t, c2)))
}

func TestPublishEventSerializesTheEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient("conn-1", "user-1")
	hub.Register <- c
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// the publish is non-blocking, so retry until the hub picks one up
	var raw []byte
	require.Eventually(t, func() bool {
		hub.PublishEvent(Event{
			Type:         "status_changed",
			DocumentType: "material_request",
			DocumentID:   "mr-001",
			Kode:         "IT-HO-0001",
			Status:       "Waiting PO",
			ActorID:      "user-b",
		})
		select {
		case raw = <-c.Send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "status_changed", ev.Type)
	assert.Equal(t, "IT-HO-0001", ev.Kode)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestBroadcastToUserIsScoped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	mine := newTestClient("conn-1", "user-1")
	other := newTestClient("conn-2", "user-2")
	hub.Register <- mine
	hub.Register <- other
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToUser("user-1", []byte("hello"))
	assert.Equal(t, []byte("hello"), recv(t, mine))

	select {
	case msg := <-other.Send:
		t.Fatalf("unexpected message for other user: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient("conn-1", "user-1")
	hub.Register <- c
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister <- c
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}
