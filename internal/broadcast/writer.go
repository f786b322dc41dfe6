package broadcast

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/GianTheRios/league-of-molts/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// spectatorWriter owns all writes to one spectator connection. Commentary is
// queued on sendChannel; a full queue marks the spectator as slow and the
// broadcaster evicts it rather than stalling everyone else.
type spectatorWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newSpectatorWriter(connection *websocket.Conn, clock clockwork.Clock) *spectatorWriter {
	sw := &spectatorWriter{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	sw.configurePongHandler()
	sw.wg.Add(1)
	go sw.run()
	return sw
}

func (sw *spectatorWriter) run() {
	ticker := sw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer sw.wg.Done()

	for {
		select {
		case msg, ok := <-sw.sendChannel:
			if !ok {
				return
			}
			// Track message send duration
			start := sw.clock.Now()
			sw.updateWriteDeadline()
			if err := sw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			sendDuration := sw.clock.Since(start).Seconds()
			metrics.WebSocketMessageSendDuration.Observe(sendDuration)
		case <-ticker.Chan():
			sw.updateWriteDeadline()
			if err := sw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				// Ping failed - spectator likely disconnected
				metrics.WebSocketPingFailures.Inc()
				return
			}
		case <-sw.doneChannel:
			return
		}
	}
}

func (sw *spectatorWriter) stop() {
	sw.stopOnce.Do(func() {
		close(sw.doneChannel)
		_ = sw.connection.Close()
	})
	sw.wg.Wait()
}

// stopGraceful sends a WebSocket close frame with reason before closing.
func (sw *spectatorWriter) stopGraceful(reason string) {
	sw.stopOnce.Do(func() {
		// Signal the run goroutine to exit first
		close(sw.doneChannel)

		// Wait for run goroutine to exit before writing close frame
		// This prevents concurrent writes to the WebSocket connection
		sw.wg.Wait()

		// Now it's safe to write the close frame (run goroutine has exited)
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		sw.updateWriteDeadline()
		_ = sw.connection.WriteMessage(websocket.CloseMessage, closeMsg)

		// Close the connection
		_ = sw.connection.Close()
	})
}

// configurePongHandler keeps the read deadline fresh while the spectator
// answers keepalive pings. The server read loop enforces the deadline.
func (sw *spectatorWriter) configurePongHandler() {
	sw.updateReadDeadline()
	sw.connection.SetPongHandler(func(string) error {
		sw.updateReadDeadline()
		return nil
	})
}

func (sw *spectatorWriter) updateWriteDeadline() {
	deadline := sw.clock.Now().Add(writeDeadline)
	_ = sw.connection.SetWriteDeadline(deadline)
}

func (sw *spectatorWriter) updateReadDeadline() {
	deadline := sw.clock.Now().Add(pongDeadline)
	_ = sw.connection.SetReadDeadline(deadline)
}
