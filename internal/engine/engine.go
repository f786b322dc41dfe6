package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/GianTheRios/league-of-molts/internal/commentary"
	"github.com/GianTheRios/league-of-molts/internal/detect"
	"github.com/GianTheRios/league-of-molts/internal/domain"
	"github.com/GianTheRios/league-of-molts/internal/metrics"
	"github.com/GianTheRios/league-of-molts/internal/platform/correlation"
)

// statsInterval is how often the engine logs pipeline counters.
const statsInterval = 30 * time.Second

// CommentaryTypeEnhanced labels LLM-rewritten lines on the wire.
const CommentaryTypeEnhanced = "enhanced"

// Enhancer rewrites template commentary into richer prose.
type Enhancer interface {
	Enhance(ctx context.Context, event domain.GameEvent) (string, error)
}

// Narrator speaks commentary lines out loud.
type Narrator interface {
	Speak(text string)
}

// Broadcaster fans commentary lines out to spectators.
type Broadcaster interface {
	Broadcast(text, commentaryType string)
}

// Stats is a point-in-time view of the pipeline counters.
type Stats struct {
	SnapshotsProcessed int64 `json:"snapshots_processed"`
	EventsDetected     int64 `json:"events_detected"`
	CommentarySent     int64 `json:"commentary_sent"`
}

// Engine consumes match snapshots and produces spectator commentary.
// The enhancer and narrator are optional; a nil value disables that path.
type Engine struct {
	detector    *detect.Detector
	renderer    *commentary.Renderer
	broadcaster Broadcaster
	enhancer    Enhancer
	narrator    Narrator
	clock       clockwork.Clock

	// In-flight enhancement goroutines; waited on when the stream ends so
	// late lines still reach spectators.
	enhancements sync.WaitGroup

	snapshotsProcessed atomic.Int64
	eventsDetected     atomic.Int64
	commentarySent     atomic.Int64
	matchStatus        atomic.Value // domain.MatchStatus
}

// New creates an engine. Pass nil for enh or nar to disable LLM enhancement
// or narration respectively.
func New(detector *detect.Detector, renderer *commentary.Renderer, bc Broadcaster, enh Enhancer, nar Narrator, clock clockwork.Clock) *Engine {
	return &Engine{
		detector:    detector,
		renderer:    renderer,
		broadcaster: bc,
		enhancer:    enh,
		narrator:    nar,
		clock:       clock,
	}
}

// Run consumes the snapshot stream until it closes or ctx is cancelled.
// A closed stream is the normal end of a match: Run waits for in-flight
// enhancements and returns nil.
func (e *Engine) Run(ctx context.Context, snapshots <-chan domain.Snapshot) error {
	defer e.enhancements.Wait()

	statsTicker := e.clock.NewTicker(statsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				slog.Info("Snapshot stream ended", "stats", e.Stats())
				return nil
			}
			e.Process(ctx, snap)
		case <-statsTicker.Chan():
			slog.Info("Commentary pipeline stats", "stats", e.Stats())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Process runs one snapshot through detection and commentary generation.
func (e *Engine) Process(ctx context.Context, snap domain.Snapshot) {
	ctx = correlation.Ensure(ctx)

	if snap.Status != "" {
		e.matchStatus.Store(snap.Status)
	}

	start := e.clock.Now()
	events := e.detector.Detect(snap)
	metrics.DetectionDuration.Observe(e.clock.Since(start).Seconds())
	metrics.SnapshotsProcessedTotal.Inc()
	e.snapshotsProcessed.Add(1)

	for _, event := range events {
		metrics.DetectedEventsTotal.WithLabelValues(string(event.Type)).Inc()
		e.eventsDetected.Add(1)
		e.handleEvent(ctx, event)
	}
}

// Stats returns the current pipeline counters.
func (e *Engine) Stats() Stats {
	return Stats{
		SnapshotsProcessed: e.snapshotsProcessed.Load(),
		EventsDetected:     e.eventsDetected.Load(),
		CommentarySent:     e.commentarySent.Load(),
	}
}

// MatchStatus reports the status of the last snapshot seen, or pending when
// none has arrived yet.
func (e *Engine) MatchStatus() domain.MatchStatus {
	if v, ok := e.matchStatus.Load().(domain.MatchStatus); ok {
		return v
	}
	return domain.StatusPending
}

func (e *Engine) handleEvent(ctx context.Context, event domain.GameEvent) {
	text, ok := e.renderer.Render(event)
	if !ok {
		// Not every detected event has commentary templates
		slog.DebugContext(ctx, "No commentary for event", "event_type", string(event.Type))
		return
	}

	e.broadcaster.Broadcast(text, string(event.Type))
	metrics.CommentaryRenderedTotal.WithLabelValues("template").Inc()
	e.commentarySent.Add(1)

	slog.InfoContext(ctx, "Commentary",
		"event_type", string(event.Type),
		"text", text,
	)

	if !event.IsMajor() {
		return
	}

	if e.enhancer != nil {
		e.enhancements.Add(1)
		go e.enhance(ctx, event)
	}

	if e.narrator != nil {
		e.narrator.Speak(text)
	}
}

// enhance asks the LLM for a richer line and broadcasts it as a follow-up.
// Failures keep the already-delivered template line; they are never fatal.
func (e *Engine) enhance(ctx context.Context, event domain.GameEvent) {
	defer e.enhancements.Done()

	enhanced, err := e.enhancer.Enhance(ctx, event)
	if err != nil {
		slog.WarnContext(ctx, "Commentary enhancement failed, keeping template line",
			"event_type", string(event.Type),
			"error", err,
		)
		return
	}

	e.broadcaster.Broadcast(enhanced, CommentaryTypeEnhanced)
	metrics.CommentaryRenderedTotal.WithLabelValues("enhanced").Inc()
	e.commentarySent.Add(1)
}
