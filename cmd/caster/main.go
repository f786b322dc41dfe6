package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/GianTheRios/league-of-molts/internal/broadcast"
	"github.com/GianTheRios/league-of-molts/internal/commentary"
	"github.com/GianTheRios/league-of-molts/internal/config"
	"github.com/GianTheRios/league-of-molts/internal/detect"
	"github.com/GianTheRios/league-of-molts/internal/enhance"
	"github.com/GianTheRios/league-of-molts/internal/engine"
	"github.com/GianTheRios/league-of-molts/internal/feed"
	"github.com/GianTheRios/league-of-molts/internal/logging"
	"github.com/GianTheRios/league-of-molts/internal/metrics"
	"github.com/GianTheRios/league-of-molts/internal/narrate"
	"github.com/GianTheRios/league-of-molts/internal/platform/version"
	"github.com/GianTheRios/league-of-molts/internal/server"
)

const (
	defaultMatchID = "test-match"

	// narrationQueueSize bounds pending speech; lines past it are dropped
	// so narration never backs up the pipeline.
	narrationQueueSize = 8
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caster",
		Short: "Live match commentary engine for League of Molts",
		Long: `caster follows a running League of Molts match, turns game events
(kills, multi-kills, aces, nexus danger) into commentary lines and fans
them out to WebSocket spectators.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [match-id]",
		Short: "Follow a match and serve commentary to spectators",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := defaultMatchID
			if len(args) > 0 {
				matchID = args[0]
			}
			runServe(matchID)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Get().String())
		},
	}
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupEnhancer(cfg *config.Config) engine.Enhancer {
	if !cfg.EnableLLM {
		return nil
	}
	slog.Info("Commentary enhancement enabled", "model", cfg.EnhanceModel)
	return enhance.New(enhance.Config{
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.EnhanceModel,
		Timeout: cfg.EnhanceTimeout,
	})
}

func setupNarrator(cfg *config.Config) *narrate.Speaker {
	if !cfg.EnableTTS {
		return nil
	}
	speaker, err := narrate.New(cfg.NarrateCommand, narrationQueueSize)
	if err != nil {
		slog.Error("Failed to start narration", "error", err)
		os.Exit(1)
	}
	slog.Info("Narration enabled", "command", cfg.NarrateCommand)
	return speaker
}

func runServe(matchID string) {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)
	slog.Info("Caster starting", "env", cfg.AppEnv, "match_id", matchID, "version", info.Version)

	broadcaster := broadcast.NewBroadcaster(clock, cfg.MaxWebSocketConnections)

	enhancer := setupEnhancer(cfg)

	speaker := setupNarrator(cfg)
	var narrator engine.Narrator
	if speaker != nil {
		narrator = speaker
	}

	rng := rand.New(rand.NewSource(clock.Now().UnixNano()))
	eng := engine.New(detect.New(), commentary.NewRenderer(rng), broadcaster, enhancer, narrator, clock)

	feedClient := feed.New(cfg.MatchServerURL, matchID, clock, cfg.FeedMaxAttempts, cfg.FeedRetryDelay)

	srv := server.NewServer(cfg, matchID, broadcaster, eng, clock)

	// The feed and engine drive one match session; the spectator server is
	// independent of it and keeps serving after the match ends, so late
	// joiners still get /stats and the final commentary stays delivered.
	sessionCtx, cancelSession := context.WithCancel(context.Background())
	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		runSession(sessionCtx, feedClient, eng, matchID)
	}()

	done := runGracefulShutdown(srv, cancelSession, sessionDone, broadcaster, speaker)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

// runSession pumps snapshots from the match feed through the engine until
// the feed ends or the context is cancelled.
func runSession(ctx context.Context, feedClient *feed.Client, eng *engine.Engine, matchID string) {
	go func() {
		if err := feedClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Match feed failed", "match_id", matchID, "error", err)
		}
	}()

	if err := eng.Run(ctx, feedClient.Snapshots()); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("Commentary engine stopped", "error", err)
		}
		return
	}
	slog.Info("Match session finished, spectator server stays up", "match_id", matchID)
}

func runGracefulShutdown(srv *server.Server, cancelSession context.CancelFunc, sessionDone <-chan struct{}, broadcaster *broadcast.Broadcaster, speaker *narrate.Speaker) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Stop the session before the broadcaster so no commentary is
		// produced for an actor that is gone.
		cancelSession()
		<-sessionDone

		broadcaster.Stop()

		if speaker != nil {
			speaker.Stop()
		}

		close(done)
	}()

	return done
}
