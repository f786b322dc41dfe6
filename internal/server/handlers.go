package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/GianTheRios/league-of-molts/internal/engine"
	apperrors "github.com/GianTheRios/league-of-molts/internal/errors"
	"github.com/GianTheRios/league-of-molts/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Spectator widgets connect from arbitrary origins (OBS, local pages)
	},
}

// handleCommentaryWebSocket upgrades a spectator connection and hands it to
// the broadcaster. The handler then becomes the connection's read pump:
// spectators are read-only, so inbound frames are discarded and the first
// read error unregisters the spectator.
func (s *Server) handleCommentaryWebSocket(c echo.Context) error {
	if !s.limiter.Acquire() {
		metrics.WebSocketConnectionsRejected.WithLabelValues("global_limit").Inc()
		return apperrors.UnavailableError("spectator limit reached").
			WithContext("limit", s.limiter.Max())
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.limiter.Release()
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		// Upgrade already wrote the HTTP error response.
		slog.Warn("WebSocket upgrade failed", "remote", c.RealIP(), "error", err)
		return nil
	}

	spectatorID := uuid.New()
	if err := s.registry.Register(spectatorID, conn); err != nil {
		s.limiter.Release()
		_ = conn.Close()
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		slog.Warn("Spectator registration rejected",
			"spectator_id", spectatorID.String(),
			"error", err,
		)
		return nil
	}

	metrics.WebSocketConnectionsTotal.WithLabelValues("success").Inc()
	connectedAt := s.clock.Now()
	slog.Info("Spectator connected",
		"spectator_id", spectatorID.String(),
		"remote", c.RealIP(),
	)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.registry.Unregister(spectatorID)
	s.limiter.Release()
	metrics.WebSocketConnectionDuration.Observe(s.clock.Since(connectedAt).Seconds())
	slog.Info("Spectator disconnected", "spectator_id", spectatorID.String())

	return nil
}

// statsResponse is the JSON body of GET /stats.
type statsResponse struct {
	MatchID    string       `json:"match_id"`
	Status     string       `json:"status"`
	Spectators int          `json:"spectators"`
	Pipeline   engine.Stats `json:"pipeline"`
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, statsResponse{
		MatchID:    s.matchID,
		Status:     string(s.stats.MatchStatus()),
		Spectators: s.registry.SpectatorCount(),
		Pipeline:   s.stats.Stats(),
	})
}
