package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GianTheRios/league-of-molts/internal/domain"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// feedServer runs a fake match server whose handler is invoked per connection
// after the spectate handshake has been read and verified.
func feedServer(t *testing.T, handler func(conn *websocket.Conn, connNum int64)) *httptest.Server {
	t.Helper()

	var connections atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/spectate/"), "unexpected path %s", r.URL.Path)

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var handshake map[string]string
		require.NoError(t, conn.ReadJSON(&handshake))
		require.Equal(t, "spectate", handshake["type"])

		handler(conn, connections.Add(1))
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func snapshotJSON(t *testing.T, tick int64) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"tick":       tick,
		"match_time": float64(tick),
		"status":     "playing",
		"champions":  []any{},
	})
	require.NoError(t, err)
	return data
}

func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match over")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	// Wait for the client's close response so the frame is not lost
	_, _, _ = conn.ReadMessage()
}

func collect(t *testing.T, c *Client) []domain.Snapshot {
	t.Helper()
	var got []domain.Snapshot
	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap, ok := <-c.Snapshots():
			if !ok {
				return got
			}
			got = append(got, snap)
		case <-timeout:
			t.Fatal("timed out waiting for snapshot stream to end")
		}
	}
}

func TestFeedDeliversSnapshotsInOrder(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn, _ int64) {
		for tick := int64(1); tick <= 3; tick++ {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, snapshotJSON(t, tick)))
		}
		closeNormally(conn)
	})

	client := New(wsURL(server), "match-1", clockwork.NewRealClock(), 3, time.Millisecond)

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(context.Background()) }()

	got := collect(t, client)
	require.Len(t, got, 3)
	for i, snap := range got {
		assert.Equal(t, int64(i+1), snap.Tick)
	}

	assert.NoError(t, <-runErr)
}

func TestFeedSkipsMalformedSnapshots(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn, _ int64) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, snapshotJSON(t, 7)))
		closeNormally(conn)
	})

	client := New(wsURL(server), "match-1", clockwork.NewRealClock(), 3, time.Millisecond)

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(context.Background()) }()

	got := collect(t, client)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Tick)
	assert.NoError(t, <-runErr)
}

func TestFeedReconnectsAfterDrop(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn, connNum int64) {
		if connNum == 1 {
			// Drop the connection without a close frame
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, snapshotJSON(t, 1)))
			_ = conn.Close()
			return
		}
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, snapshotJSON(t, 2)))
		closeNormally(conn)
	})

	client := New(wsURL(server), "match-1", clockwork.NewRealClock(), 5, time.Millisecond)

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(context.Background()) }()

	got := collect(t, client)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Tick)
	assert.Equal(t, int64(2), got[1].Tick)
	assert.NoError(t, <-runErr)
}

func TestFeedGivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "no such match", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := New(wsURL(server), "missing", clockwork.NewRealClock(), 3, time.Millisecond)

	err := client.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, int64(3), hits.Load())

	// Stream must be closed even on failure
	_, ok := <-client.Snapshots()
	assert.False(t, ok)
}

func TestFeedStopsOnContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := feedServer(t, func(conn *websocket.Conn, _ int64) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, snapshotJSON(t, 1)))
		<-release
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	client := New(wsURL(server), "match-1", clockwork.NewRealClock(), 3, time.Millisecond)

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	snap, ok := <-client.Snapshots()
	require.True(t, ok)
	assert.Equal(t, int64(1), snap.Tick)

	cancel()

	select {
	case err := <-runErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}

	_, ok = <-client.Snapshots()
	assert.False(t, ok)
}
