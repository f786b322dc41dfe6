package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`

	// MatchServerURL is the base websocket address snapshots are pulled
	// from; the match id is appended as /spectate/{id}.
	MatchServerURL string `env:"MATCH_SERVER_URL" default:"ws://localhost:9050"`
	BroadcastPort  string `env:"BROADCAST_PORT" default:"9060"`

	EnableTTS bool `env:"ENABLE_TTS" default:"false"`
	EnableLLM bool `env:"ENABLE_LLM" default:"false"`

	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	EnhanceModel    string        `env:"ENHANCE_MODEL" default:"claude-3-haiku-20240307"`
	EnhanceTimeout  time.Duration `env:"ENHANCE_TIMEOUT" default:"5s"`

	NarrateCommand string `env:"NARRATE_COMMAND" default:"espeak -s 175"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`

	FeedMaxAttempts int           `env:"FEED_MAX_ATTEMPTS" default:"5"`
	FeedRetryDelay  time.Duration `env:"FEED_RETRY_DELAY" default:"1s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.MatchServerURL)
	if err != nil {
		return fmt.Errorf("MATCH_SERVER_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("MATCH_SERVER_URL must use ws or wss scheme, got %q", u.Scheme)
	}

	port, err := strconv.Atoi(cfg.BroadcastPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("BROADCAST_PORT must be a port number, got %q", cfg.BroadcastPort)
	}

	if cfg.EnableLLM && cfg.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when ENABLE_LLM is true")
	}

	if cfg.EnhanceTimeout <= 0 {
		return fmt.Errorf("ENHANCE_TIMEOUT must be positive, got %s", cfg.EnhanceTimeout)
	}

	if cfg.EnableTTS && strings.TrimSpace(cfg.NarrateCommand) == "" {
		return fmt.Errorf("NARRATE_COMMAND is required when ENABLE_TTS is true")
	}

	if cfg.FeedMaxAttempts < 1 {
		return fmt.Errorf("FEED_MAX_ATTEMPTS must be at least 1, got %d", cfg.FeedMaxAttempts)
	}

	return nil
}
