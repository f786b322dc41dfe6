package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/GianTheRios/league-of-molts/internal/metrics"
)

const (
	commandTimeout     = 5 * time.Second  // Actor command timeout
	stopTimeout        = 10 * time.Second // Graceful shutdown timeout
	commandChannelSize = 256
)

// MessageTypeCommentary labels every outbound spectator message.
const MessageTypeCommentary = "commentary"

// Message is the envelope delivered to every spectator. CommentaryType is
// the detected event type, or "enhanced" when the text came from the LLM.
type Message struct {
	Type           string  `json:"type"`
	Text           string  `json:"text"`
	CommentaryType string  `json:"commentaryType"`
	Timestamp      float64 `json:"timestamp"`
}

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	spectatorID  uuid.UUID
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	spectatorID uuid.UUID
}

type broadcastCmd struct {
	baseBroadcasterCmd
	text           string
	commentaryType string
}

type spectatorCountCmd struct {
	baseBroadcasterCmd
	replyChannel chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

// Broadcaster manages spectator WebSocket connections and fans commentary
// lines out to all of them in the order they were produced.
type Broadcaster struct {
	cmdCh         chan broadcasterCmd
	clock         clockwork.Clock
	spectators    map[uuid.UUID]*spectatorWriter
	maxSpectators int
	done          chan struct{}
	stopTimeout   time.Duration
}

// NewBroadcaster creates a new broadcaster and starts its actor loop.
// maxSpectators limits concurrent connections (prevents resource exhaustion).
func NewBroadcaster(clock clockwork.Clock, maxSpectators int) *Broadcaster {
	b := &Broadcaster{
		cmdCh:         make(chan broadcasterCmd, commandChannelSize),
		clock:         clock,
		spectators:    make(map[uuid.UUID]*spectatorWriter),
		maxSpectators: maxSpectators,
		done:          make(chan struct{}),
		stopTimeout:   stopTimeout,
	}
	go b.run()
	return b
}

// Register adds a spectator connection. Returns an error only if the
// spectator limit is reached or the command times out.
func (b *Broadcaster) Register(spectatorID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	b.cmdCh <- registerCmd{spectatorID: spectatorID, connection: conn, errorChannel: errCh}

	// Use timeout to prevent blocking forever if broadcaster is stuck
	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		metrics.BroadcasterCommandTimeouts.Inc()
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a spectator and stops its writer.
func (b *Broadcaster) Unregister(spectatorID uuid.UUID) {
	b.cmdCh <- unregisterCmd{spectatorID: spectatorID}
}

// Broadcast queues one commentary line for fan-out. It does not wait for
// delivery; lines are fanned out in the order Broadcast was called.
func (b *Broadcaster) Broadcast(text, commentaryType string) {
	b.cmdCh <- broadcastCmd{text: text, commentaryType: commentaryType}
}

// SpectatorCount returns the number of connected spectators.
// Returns -1 if the command times out.
func (b *Broadcaster) SpectatorCount() int {
	replyCh := make(chan int, 1)
	b.cmdCh <- spectatorCountCmd{replyChannel: replyCh}

	// Use timeout to prevent blocking forever if broadcaster is stuck
	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("SpectatorCount timed out", "timeout", commandTimeout)
		metrics.BroadcasterCommandTimeouts.Inc()
		return -1
	}
}

// Stop shuts down the broadcaster, closing all spectator connections.
// Blocks until the broadcaster goroutine has exited or timeout is reached.
func (b *Broadcaster) Stop() {
	b.cmdCh <- stopCmd{}

	// Wait for goroutine to exit with timeout
	timeout := b.clock.NewTimer(b.stopTimeout)
	defer timeout.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Broadcaster stop timeout exceeded, forcing exit",
			"timeout", b.stopTimeout,
		)
		metrics.BroadcasterCommandTimeouts.Inc()

		// Force goroutine exit
		close(b.done)

		// Log goroutine leak for debugging
		slog.Error("Broadcaster goroutine may have leaked",
			"connected_spectators", len(b.spectators),
		)
	}
}

func (b *Broadcaster) run() {
	// Panic recovery wrapper
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Broadcaster panic recovered", "panic", r)
			metrics.BroadcasterPanicsTotal.Inc()

			// Attempt graceful cleanup
			b.closeAllSpectators("broadcaster panic")
		}
	}()

	defer close(b.done)

	// Track command channel depth every second
	depthTicker := b.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(b.cmdCh)
			metrics.BroadcasterCommandChannelDepth.Set(float64(depth))

			if depth > 200 { // 80% of 256
				slog.Warn("Command channel near capacity",
					"depth", depth,
					"capacity", cap(b.cmdCh),
				)
			}

		case cmd := <-b.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				b.handleRegister(c)
			case unregisterCmd:
				b.handleUnregister(c)
			case broadcastCmd:
				b.handleBroadcast(c)
			case spectatorCountCmd:
				c.replyChannel <- len(b.spectators)
			case stopCmd:
				b.handleStop()
				return
			default:
				slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	if len(b.spectators) >= b.maxSpectators {
		slog.Warn("Rejecting spectator: max connections reached",
			"spectator_id", c.spectatorID.String(),
			"max_spectators", b.maxSpectators,
		)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max spectators (%d) reached", b.maxSpectators)
		return
	}

	b.spectators[c.spectatorID] = newSpectatorWriter(c.connection, b.clock)

	// Update metrics
	metrics.BroadcasterConnectedSpectators.Set(float64(len(b.spectators)))

	slog.Debug("Spectator registered", "spectator_id", c.spectatorID.String(), "total_spectators", len(b.spectators))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(c unregisterCmd) {
	writer, exists := b.spectators[c.spectatorID]
	if !exists {
		return
	}

	writer.stop()
	delete(b.spectators, c.spectatorID)

	// Update metrics
	metrics.BroadcasterConnectedSpectators.Set(float64(len(b.spectators)))

	slog.Debug("Spectator unregistered", "spectator_id", c.spectatorID.String(), "remaining_spectators", len(b.spectators))
}

func (b *Broadcaster) handleBroadcast(c broadcastCmd) {
	start := b.clock.Now()

	msg := Message{
		Type:           MessageTypeCommentary,
		Text:           c.text,
		CommentaryType: c.commentaryType,
		Timestamp:      float64(start.UnixNano()) / 1e9,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal commentary message", "error", err)
		return
	}

	var slow []uuid.UUID
	for id, writer := range b.spectators {
		select {
		case writer.sendChannel <- data:
		default:
			slow = append(slow, id)
		}
	}

	// Evict after iteration so the spectator map is stable while ranging.
	for _, id := range slow {
		slog.Warn("Disconnecting slow spectator", "spectator_id", id.String())
		metrics.BroadcasterSlowClientsEvicted.Inc()
		b.handleUnregister(unregisterCmd{spectatorID: id})
	}

	metrics.BroadcasterMessagesTotal.Inc()
	metrics.BroadcasterBroadcastDuration.Observe(b.clock.Since(start).Seconds())
}

func (b *Broadcaster) handleStop() {
	slog.Info("Broadcaster shutting down", "connected_spectators", len(b.spectators))

	b.closeAllSpectators("Server shutting down")

	slog.Info("Broadcaster shutdown complete")
}

// closeAllSpectators closes all spectator connections with the given reason.
// Used during panic recovery and graceful shutdown.
func (b *Broadcaster) closeAllSpectators(reason string) {
	for id, writer := range b.spectators {
		writer.stopGraceful(reason)
		delete(b.spectators, id)
	}
	metrics.BroadcasterConnectedSpectators.Set(0)
}
