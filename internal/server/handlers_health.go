package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/GianTheRios/league-of-molts/internal/platform/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()

	response := map[string]any{
		"status": "ok",
		"uptime": uptime,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness reports whether the broadcaster actor is responsive. The
// match feed is deliberately not a readiness dependency: the spectator
// surface keeps serving between matches.
func (s *Server) handleReadiness(c echo.Context) error {
	count := s.registry.SpectatorCount()
	if count < 0 {
		response := map[string]any{
			"status":       "unhealthy",
			"failed_check": "broadcaster",
			"error":        "broadcaster did not respond",
		}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to write readiness response: %w", err)
		}
		return nil
	}

	response := map[string]any{
		"status":     "ready",
		"spectators": count,
		"version":    version.Get(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
