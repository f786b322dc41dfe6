package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/GianTheRios/league-of-molts/internal/commentary"
	"github.com/GianTheRios/league-of-molts/internal/domain"
	apperrors "github.com/GianTheRios/league-of-molts/internal/errors"
	"github.com/GianTheRios/league-of-molts/internal/metrics"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"

	// maxResponseTokens caps the reply length; commentary is one or two sentences.
	maxResponseTokens = 100

	breakerComponent = "enhance"
)

// Config configures the Anthropic Messages endpoint and HTTP behavior.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client rewrites template commentary through the Anthropic Messages API.
//
// Circuit breaker settings:
// - WithFailureThreshold: 3 consecutive failures open the circuit
// - WithDelay: 30s before transitioning from open to half-open
// - WithSuccessThreshold: 1 successful request in half-open to close
type Client struct {
	cfg Config
	cb  circuitbreaker.CircuitBreaker[any]
}

// New creates an enhancement client. A nil HTTPClient falls back to
// http.DefaultClient; an empty BaseURL falls back to the public API.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(3).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", breakerComponent,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)

			// Update metrics
			metrics.CircuitBreakerStateChanges.WithLabelValues(breakerComponent, e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(breakerComponent).Set(stateToFloat(e.NewState))
		}).
		Build()

	return &Client{cfg: cfg, cb: cb}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// Anthropic Messages API wire format.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Enhance asks the model for a livelier rendering of the detected event.
// The returned text replaces the template line; on any error the caller is
// expected to keep the fast-path text instead.
func (c *Client) Enhance(ctx context.Context, event domain.GameEvent) (string, error) {
	if !c.cb.TryAcquirePermit() {
		metrics.EnhancementRequestsTotal.WithLabelValues("rejected").Inc()
		return "", apperrors.UnavailableError("enhancement circuit open").
			WithContext("event_type", string(event.Type))
	}

	start := time.Now()
	text, err := c.invoke(ctx, event)
	metrics.EnhancementDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.cb.RecordError(err)
		metrics.EnhancementRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	c.cb.RecordSuccess()
	metrics.EnhancementRequestsTotal.WithLabelValues("success").Inc()
	return text, nil
}

func (c *Client) invoke(ctx context.Context, event domain.GameEvent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxResponseTokens,
		Messages: []message{
			{Role: "user", Content: commentary.BuildPrompt(event)},
		},
	})
	if err != nil {
		return "", apperrors.InternalError("marshal enhancement request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.InternalError("build enhancement request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material is sent only as a header and never echoed in errors.
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", apperrors.ExternalError("enhancement request failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", apperrors.ExternalError(
			fmt.Sprintf("enhancement request status %d", res.StatusCode), nil).
			WithContext("body", strings.TrimSpace(string(errBody)))
	}

	var payload struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", apperrors.ExternalError("decode enhancement response", err)
	}

	for _, block := range payload.Content {
		if text := strings.TrimSpace(block.Text); text != "" {
			return text, nil
		}
	}
	return "", apperrors.ExternalError("enhancement response missing text", nil)
}

// State returns the current circuit breaker state (for testing/monitoring)
func (c *Client) State() circuitbreaker.State {
	return c.cb.State()
}
