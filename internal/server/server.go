package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/GianTheRios/league-of-molts/internal/config"
	"github.com/GianTheRios/league-of-molts/internal/domain"
	"github.com/GianTheRios/league-of-molts/internal/engine"
)

// spectatorRegistry is the broadcaster surface the server needs: membership
// only, never fan-out. A negative SpectatorCount means the broadcaster actor
// is unresponsive.
type spectatorRegistry interface {
	Register(spectatorID uuid.UUID, conn *websocket.Conn) error
	Unregister(spectatorID uuid.UUID)
	SpectatorCount() int
}

// statsProvider reads the live pipeline counters for the stats endpoint.
type statsProvider interface {
	Stats() engine.Stats
	MatchStatus() domain.MatchStatus
}

type Server struct {
	echo     *echo.Echo
	config   *config.Config
	matchID  string
	registry spectatorRegistry
	stats    statsProvider
	limiter  *GlobalConnectionLimiter
	clock    clockwork.Clock

	startTime time.Time
}

func NewServer(cfg *config.Config, matchID string, registry spectatorRegistry, stats statsProvider, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		matchID:   matchID,
		registry:  registry,
		stats:     stats,
		limiter:   NewGlobalConnectionLimiter(int64(cfg.MaxWebSocketConnections)),
		clock:     clock,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting spectator server", "port", s.config.BroadcastPort, "match_id", s.matchID)
	if err := s.echo.Start(":" + s.config.BroadcastPort); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
