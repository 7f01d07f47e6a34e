package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/flap/sim"
)

// PhaseTelemetry covers the sinks that run after each coordinator step.
const PhaseTelemetry = "telemetry"

// PerfPhases lists the timed phases in the order they run within a tick:
// the coordinator stages followed by telemetry.
var PerfPhases = []string{
	string(sim.PhaseObstacles),
	string(sim.PhaseAgents),
	string(sim.PhaseSelection),
	string(sim.PhaseReset),
	PhaseTelemetry,
}

type tickSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector times ticks and their phases over a rolling window of
// the most recent ticks. A phase entered more than once within a tick
// accumulates.
type PerfCollector struct {
	now func() time.Time

	window []tickSample
	next   int
	filled int

	tickStart  time.Time
	phase      string
	phaseStart time.Time
	current    map[string]time.Duration

	// Frame timing, windowed mode only
	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over the last window ticks.
func NewPerfCollector(window int) *PerfCollector {
	return newPerfCollector(window, time.Now)
}

func newPerfCollector(window int, now func() time.Time) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		now:     now,
		window:  make([]tickSample, window),
		current: make(map[string]time.Duration),
	}
}

// StartTick begins timing a tick. Phases started before EndTick belong to it.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.phase = ""
	p.current = make(map[string]time.Duration, len(PerfPhases))
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phase, p.phaseStart = phase, now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the running phase and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.phase = ""

	p.window[p.next] = tickSample{total: now.Sub(p.tickStart), phases: p.current}
	p.next = (p.next + 1) % len(p.window)
	p.filled = min(p.filled+1, len(p.window))
}

// RecordFrame marks the start of a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	// Per-phase mean over all ticks in the window, and its share of the mean tick
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the ticks currently in the window. A phase that ran on
// only some ticks, such as reset, is averaged over all of them.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	sums := make(map[string]time.Duration)
	for i, sample := range p.window[:p.filled] {
		total += sample.total
		if i == 0 || sample.total < s.MinTickDuration {
			s.MinTickDuration = sample.total
		}
		s.MaxTickDuration = max(s.MaxTickDuration, sample.total)
		for phase, d := range sample.phases {
			sums[phase] += d
		}
	}

	n := time.Duration(p.filled)
	s.AvgTickDuration = total / n
	for phase, sum := range sums {
		avg := sum / n
		s.PhaseAvg[phase] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[phase] = 100 * float64(avg) / float64(s.AvgTickDuration)
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs the window at info level. Phases below 0.1% are omitted.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range PerfPhases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	Tick         int     `csv:"tick"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	ObstaclesPct float64 `csv:"obstacles_pct"`
	AgentsPct    float64 `csv:"agents_pct"`
	SelectionPct float64 `csv:"selection_pct"`
	ResetPct     float64 `csv:"reset_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row for tick.
func (s PerfStats) ToCSV(tick int) PerfStatsCSV {
	return PerfStatsCSV{
		Tick:         tick,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		ObstaclesPct: s.PhasePct[string(sim.PhaseObstacles)],
		AgentsPct:    s.PhasePct[string(sim.PhaseAgents)],
		SelectionPct: s.PhasePct[string(sim.PhaseSelection)],
		ResetPct:     s.PhasePct[string(sim.PhaseReset)],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
