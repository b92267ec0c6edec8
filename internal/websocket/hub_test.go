package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/internal/operations"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(testLogger())
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, Options{}, w, r)
	}))
	t.Cleanup(srv.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *gorilla.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	// Give the hub a beat to register the client.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("progress", operations.ProgressEvent{
		Stage:   operations.StageParse,
		Percent: 42,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "progress", msg.Type)
	assert.False(t, msg.Timestamp.IsZero())

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "parse", data["stage"])
	assert.Equal(t, 42.0, data["percent"])
}

func TestHubMultipleClients(t *testing.T) {
	hub, srv := startHub(t)
	first := dial(t, srv)
	second := dial(t, srv)

	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("progress", operations.ProgressEvent{Stage: operations.StageEncrypt, Percent: 100})

	for _, conn := range []*gorilla.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(payload), "encrypt")
	}
}

func TestHubShutdownDropsMessages(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	hub.Shutdown()
	// Must not panic or block after shutdown.
	hub.Broadcast("progress", nil)
}

func TestProgressSink(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	time.Sleep(50 * time.Millisecond)

	sink := NewProgressSink(hub)
	sink.Publish(operations.ProgressEvent{Stage: operations.StageExtract, Percent: 10})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), "extract")
}
