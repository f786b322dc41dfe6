package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/GianTheRios/league-of-molts/internal/domain"
	"github.com/GianTheRios/league-of-molts/internal/metrics"
	"github.com/GianTheRios/league-of-molts/internal/platform/retry"
)

const handshakeTimeout = 10 * time.Second

// spectateHandshake announces this client as a read-only spectator.
type spectateHandshake struct {
	Type string `json:"type"`
}

// Client pulls match snapshots over a spectator WebSocket connection.
type Client struct {
	url       string
	clock     clockwork.Clock
	dialer    *websocket.Dialer
	policy    retry.Policy
	snapshots chan domain.Snapshot
}

// New creates a feed client for one match. baseURL is the ws:// address of
// the match server; maxAttempts and delay bound each (re)connect cycle.
func New(baseURL, matchID string, clock clockwork.Clock, maxAttempts int, delay time.Duration) *Client {
	c := &Client{
		url:       fmt.Sprintf("%s/spectate/%s", baseURL, matchID),
		clock:     clock,
		dialer:    &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		snapshots: make(chan domain.Snapshot),
	}
	c.policy = retry.Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		OnRetry: func(attempt int, err error) {
			metrics.FeedReconnectsTotal.Inc()
			slog.Warn("Match feed connect failed, retrying",
				"attempt", attempt,
				"error", err,
			)
		},
	}
	return c
}

// Snapshots returns the ordered snapshot stream. The channel is closed when
// the feed ends, whether by server close, exhausted retries, or cancellation.
func (c *Client) Snapshots() <-chan domain.Snapshot {
	return c.snapshots
}

// Run connects and pumps snapshots until the server closes the stream, the
// context is cancelled, or reconnection gives up. It returns nil only when
// the server ended the match feed normally.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.snapshots)

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}

	for {
		err := c.consume(ctx, conn)
		_ = conn.Close()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		slog.Warn("Match feed dropped, reconnecting", "url", c.url, "error", err)
		conn, err = c.connect(ctx)
		if err != nil {
			return err
		}
	}
}

// connect dials and performs the spectate handshake under the retry policy.
func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	classify := func(error) retry.Action {
		if ctx.Err() != nil {
			return retry.Stop
		}
		return retry.Retry
	}

	return retry.Do(ctx, c.clock, c.policy, classify, func() (*websocket.Conn, error) {
		conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			metrics.FeedConnectsTotal.WithLabelValues("error").Inc()
			if resp != nil {
				return nil, fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
			}
			return nil, fmt.Errorf("dial %s: %w", c.url, err)
		}

		if err := conn.WriteJSON(spectateHandshake{Type: "spectate"}); err != nil {
			_ = conn.Close()
			metrics.FeedConnectsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("spectate handshake: %w", err)
		}

		metrics.FeedConnectsTotal.WithLabelValues("success").Inc()
		slog.Info("Connected to match feed", "url", c.url)
		return conn, nil
	})
}

// consume reads snapshots until the connection fails or the server closes.
// Returns nil on a normal close, the read error otherwise.
func (c *Client) consume(ctx context.Context, conn *websocket.Conn) error {
	// ReadMessage only unblocks when the connection dies, so tie the
	// connection's lifetime to the context.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("Match feed closed by server")
				return nil
			}
			return err
		}

		var snap domain.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			metrics.FeedSnapshotDecodeFailures.Inc()
			slog.Warn("Dropping malformed snapshot", "error", err)
			continue
		}

		select {
		case c.snapshots <- snap:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
