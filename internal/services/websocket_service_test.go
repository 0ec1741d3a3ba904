package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"emirates-studios/internal/models"
)

func newHubServer(t *testing.T, hub *WebSocketService) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeClient(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketService_BroadcastReachesClients(t *testing.T) {
	hub := NewWebSocketService(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	url := newHubServer(t, hub)
	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(&models.CarouselEvent{Type: models.EventSlideChanged, Showcase: "portfolio", Index: 3})

	for _, conn := range conns {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var event models.CarouselEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, models.EventSlideChanged, event.Type)
		assert.Equal(t, 3, event.Index)
	}
}

func TestWebSocketService_DisconnectUnregisters(t *testing.T) {
	hub := NewWebSocketService(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	conn, _, err := websocket.DefaultDialer.Dial(newHubServer(t, hub), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketService_BroadcastAfterStopReturns(t *testing.T) {
	hub := NewWebSocketService(zap.NewNop())
	go hub.Run()
	hub.Stop()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*sendBuffer; i++ {
			hub.Broadcast(&models.CarouselEvent{Type: models.EventSlideChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after stop")
	}
}
