package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pthm-cable/flap/sim"
)

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Recorder collects run telemetry. It observes generation resets and
// samples the run counters every statsInterval ticks. out and history
// may be nil.
type Recorder struct {
	ctx     context.Context
	runID   string
	out     *OutputManager
	history *HistoryStore

	statsInterval int
	logStats      bool

	last    GenerationRecord
	hasLast bool
	best    RunBest
	hasBest bool
}

// NewRecorder creates a recorder for one run. ctx bounds history writes.
func NewRecorder(ctx context.Context, runID string, out *OutputManager, history *HistoryStore, statsInterval int, logStats bool) *Recorder {
	return &Recorder{
		ctx:           ctx,
		runID:         runID,
		out:           out,
		history:       history,
		statsInterval: statsInterval,
		logStats:      logStats,
	}
}

// GenerationEnded implements sim.GenerationObserver.
func (r *Recorder) GenerationEnded(s sim.GenerationSummary) error {
	rec := Summarize(r.runID, s)
	r.last, r.hasLast = rec, true

	rec.LogStats()

	var errs []error
	if err := r.out.WriteGeneration(rec); err != nil {
		errs = append(errs, err)
	}
	if r.history != nil {
		if err := r.history.SaveGeneration(r.ctx, rec); err != nil {
			errs = append(errs, err)
		} else if err := r.LoadBest(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadBest reads the best generation stored in the history, including
// earlier runs. It is a no-op without a history store.
func (r *Recorder) LoadBest() error {
	if r.history == nil {
		return nil
	}
	best, ok, err := r.history.BestFitness(r.ctx)
	if err != nil {
		return err
	}
	r.best, r.hasBest = best, ok
	return nil
}

// ObserveTick samples the counters when the tick falls on the stats interval.
func (r *Recorder) ObserveTick(s sim.Stats) error {
	if r.statsInterval <= 0 || s.Tick%r.statsInterval != 0 {
		return nil
	}
	if r.logStats {
		slog.Info("stats", "stats", s)
	}
	return r.out.WriteStats(s)
}

// Last returns the most recent generation record.
func (r *Recorder) Last() (GenerationRecord, bool) {
	return r.last, r.hasLast
}

// Best returns the best generation across all stored runs as of the last
// LoadBest.
func (r *Recorder) Best() (RunBest, bool) {
	return r.best, r.hasBest
}
