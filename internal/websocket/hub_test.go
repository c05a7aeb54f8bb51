package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, &Conn{Conn: conn}, r.URL.Query().Get("session"))
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitConnected(t *testing.T, hub *Hub, sessionID string) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.isConnected(sessionID) }, time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_NotifyDeliversToSession(t *testing.T) {
	hub, srv := setupHub(t)

	alice := dial(t, srv, "alice-session")
	waitConnected(t, hub, "alice-session")

	hub.Notify("alice-session", model.Toast{Type: model.ToastSuccess, Message: "Added to cart"})

	msg := readMessage(t, alice)
	assert.Equal(t, "toast", msg.Type)
	require.NotNil(t, msg.Toast)
	assert.Equal(t, model.ToastSuccess, msg.Toast.Type)
	assert.Equal(t, "Added to cart", msg.Toast.Message)
}

func TestHub_NotifyIsScopedToSession(t *testing.T) {
	hub, srv := setupHub(t)

	alice := dial(t, srv, "alice-session")
	bob := dial(t, srv, "bob-session")
	waitConnected(t, hub, "alice-session")
	waitConnected(t, hub, "bob-session")

	hub.Notify("bob-session", model.Toast{Type: model.ToastInfo, Message: "for bob"})
	hub.Notify("alice-session", model.Toast{Type: model.ToastInfo, Message: "for alice"})

	assert.Equal(t, "for alice", readMessage(t, alice).Toast.Message)
	assert.Equal(t, "for bob", readMessage(t, bob).Toast.Message)
}

func TestHub_NotifyFansOutToEveryTab(t *testing.T) {
	hub, srv := setupHub(t)

	first := dial(t, srv, "s1")
	second := dial(t, srv, "s1")
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["s1"]) == 2
	}, time.Second, 10*time.Millisecond)

	hub.Notify("s1", model.Toast{Type: model.ToastWarning, Message: "Your cart is empty"})

	assert.Equal(t, "Your cart is empty", readMessage(t, first).Toast.Message)
	assert.Equal(t, "Your cart is empty", readMessage(t, second).Toast.Message)
}

func TestHub_NotifyBeforeConnectIsHeld(t *testing.T) {
	hub, srv := setupHub(t)

	hub.Notify("s1", model.Toast{Type: model.ToastSuccess, Message: "Welcome back, alice!"})
	require.Eventually(t, func() bool { return hub.pendingCount("s1") == 1 }, time.Second, 10*time.Millisecond)
	assert.False(t, hub.isConnected("s1"))

	conn := dial(t, srv, "s1")

	msg := readMessage(t, conn)
	require.NotNil(t, msg.Toast)
	assert.Equal(t, "Welcome back, alice!", msg.Toast.Message)
	assert.Zero(t, hub.pendingCount("s1"))
}

func TestHub_PendingToasts(t *testing.T) {
	tests := []struct {
		name     string
		notify   int
		age      time.Duration
		expected int
	}{
		{"single toast", 1, 0, 1},
		{"capped per session", maxPendingPerSession + 5, 0, maxPendingPerSession},
		{"expired toasts pruned", 3, pendingTTL + time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			start := time.Now()
			hub.now = func() time.Time { return start }

			for i := 0; i < tt.notify; i++ {
				hub.dispatch(delivery{sessionID: "s1", message: []byte(`{"type":"toast"}`)})
			}

			hub.now = func() time.Time { return start.Add(tt.age) }
			hub.prunePending()

			assert.Equal(t, tt.expected, hub.pendingCount("s1"))
		})
	}
}

func TestHub_DisconnectSessionDropsPending(t *testing.T) {
	hub := NewHub()
	hub.dispatch(delivery{sessionID: "s1", message: []byte(`{"type":"toast"}`)})
	require.Equal(t, 1, hub.pendingCount("s1"))

	hub.DisconnectSession("s1")

	assert.Zero(t, hub.pendingCount("s1"))
}

func TestHub_PongIsNotHeld(t *testing.T) {
	hub := NewHub()
	client := &Client{SessionID: "s1", Send: make(chan []byte, 1)}

	hub.dispatch(delivery{sessionID: "s1", client: client, message: []byte(`{"type":"pong"}`)})

	assert.Zero(t, hub.pendingCount("s1"))
}

func TestHub_PingIsAnswered(t *testing.T) {
	hub, srv := setupHub(t)

	conn := dial(t, srv, "s1")
	waitConnected(t, hub, "s1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", readMessage(t, conn).Type)
}

func TestHub_DisconnectSession(t *testing.T) {
	hub, srv := setupHub(t)

	conn := dial(t, srv, "s1")
	waitConnected(t, hub, "s1")

	hub.DisconnectSession("s1")

	require.Eventually(t, func() bool { return !hub.isConnected("s1") }, time.Second, 10*time.Millisecond)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_ClientCloseUnregisters(t *testing.T) {
	hub, srv := setupHub(t)

	conn := dial(t, srv, "s1")
	waitConnected(t, hub, "s1")

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return !hub.isConnected("s1") }, 2*time.Second, 10*time.Millisecond)
}
