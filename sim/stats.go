package sim

import "log/slog"

// Stats are the run counters exposed to displays and telemetry.
type Stats struct {
	Tick           int `csv:"tick"`
	RoundTick      int `csv:"round_tick"`
	Generation     int `csv:"generation"`
	GamesAmount    int `csv:"games_amount"`
	TopFitness     int `csv:"top_fitness"`
	CurrentFitness int `csv:"current_fitness"`
	Speed          int `csv:"speed"`
	LastReset      int `csv:"last_reset"`
	Alive          int `csv:"alive"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Int("round_tick", s.RoundTick),
		slog.Int("generation", s.Generation),
		slog.Int("games", s.GamesAmount),
		slog.Int("top_fitness", s.TopFitness),
		slog.Int("current_fitness", s.CurrentFitness),
		slog.Int("speed", s.Speed),
		slog.Int("alive", s.Alive),
	)
}

// GenerationSummary describes a generation that just went extinct.
type GenerationSummary struct {
	Generation int   // Index of the ended generation
	Tick       int   // Global tick of the extinction
	RoundTicks int   // Ticks the generation lasted
	Fitness    []int // Every bird's fitness, populations and birds in creation order
	FittestID  uint64
	Fittest    int // Fitness of the fittest bird
	TopFitness int // All-time best after this generation
}

// GenerationObserver is notified once per reset, after the next generation exists.
type GenerationObserver interface {
	GenerationEnded(summary GenerationSummary) error
}

// GenerationObserverFunc adapts a function to GenerationObserver.
type GenerationObserverFunc func(summary GenerationSummary) error

// GenerationEnded calls f.
func (f GenerationObserverFunc) GenerationEnded(summary GenerationSummary) error {
	return f(summary)
}
