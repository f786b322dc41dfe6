package narrate

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/GianTheRios/league-of-molts/internal/errors"
	"github.com/GianTheRios/league-of-molts/internal/metrics"
)

// speakTimeout caps one narration; a stuck command must not wedge the queue.
const speakTimeout = 30 * time.Second

// Speaker narrates text by running a command with the text as the final
// argument, e.g. "espeak -s 175".
type Speaker struct {
	command string
	args    []string
	queue   chan string
	stopped chan struct{}
	done    chan struct{}
}

// New starts the narration worker. The command string is split on whitespace,
// so flags can be baked in ("espeak -s 175"). queueSize bounds how many lines
// may wait for the voice; further lines are dropped.
func New(command string, queueSize int) (*Speaker, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, apperrors.ValidationError("narrate command must not be empty")
	}

	s := &Speaker{
		command: argv[0],
		args:    argv[1:],
		queue:   make(chan string, queueSize),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Speak enqueues text for narration. It never blocks: when the queue is full
// the line is dropped and counted.
func (s *Speaker) Speak(text string) {
	select {
	case s.queue <- text:
	default:
		metrics.NarrationsDroppedTotal.Inc()
		slog.Debug("Narration dropped, queue full", "text", text)
	}
}

// Stop shuts the worker down and waits for it to exit. A narration already
// in progress finishes first.
func (s *Speaker) Stop() {
	close(s.stopped)
	<-s.done
}

func (s *Speaker) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stopped:
			return
		case text := <-s.queue:
			s.speak(text)
		}
	}
}

func (s *Speaker) speak(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
	defer cancel()

	args := append(append([]string{}, s.args...), text)
	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Run(); err != nil {
		metrics.NarrationFailuresTotal.Inc()
		slog.Warn("Narration command failed",
			"command", s.command,
			"error", err,
		)
	}
}
