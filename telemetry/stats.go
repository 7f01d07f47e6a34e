package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flap/sim"
)

// GenerationRecord holds aggregated statistics for one finished generation.
type GenerationRecord struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`
	EndTick    int    `csv:"end_tick"`
	RoundTicks int    `csv:"round_ticks"`
	Birds      int    `csv:"birds"`

	// Fitness distribution over every bird of the generation
	FitnessMean   float64 `csv:"fitness_mean"`
	FitnessStd    float64 `csv:"fitness_std"`
	FitnessP10    float64 `csv:"fitness_p10"`
	FitnessMedian float64 `csv:"fitness_median"`
	FitnessP90    float64 `csv:"fitness_p90"`

	FittestID  uint64 `csv:"fittest_id"`
	Fittest    int    `csv:"fittest"`
	TopFitness int    `csv:"top_fitness"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFitnessStats calculates mean, sample standard deviation and
// percentiles. The standard deviation is 0 for fewer than two values.
func ComputeFitnessStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if n > 1 {
		std = stat.StdDev(values, nil)
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// Summarize aggregates a generation summary into a record.
func Summarize(runID string, s sim.GenerationSummary) GenerationRecord {
	values := make([]float64, len(s.Fitness))
	for i, f := range s.Fitness {
		values[i] = float64(f)
	}
	mean, std, p10, p50, p90 := ComputeFitnessStats(values)

	return GenerationRecord{
		RunID:         runID,
		Generation:    s.Generation,
		EndTick:       s.Tick,
		RoundTicks:    s.RoundTicks,
		Birds:         len(s.Fitness),
		FitnessMean:   mean,
		FitnessStd:    std,
		FitnessP10:    p10,
		FitnessMedian: p50,
		FitnessP90:    p90,
		FittestID:     s.FittestID,
		Fittest:       s.Fittest,
		TopFitness:    s.TopFitness,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (r GenerationRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", r.Generation),
		slog.Int("end_tick", r.EndTick),
		slog.Int("round_ticks", r.RoundTicks),
		slog.Int("birds", r.Birds),
		slog.Float64("fitness_mean", r.FitnessMean),
		slog.Float64("fitness_std", r.FitnessStd),
		slog.Float64("fitness_median", r.FitnessMedian),
		slog.Uint64("fittest_id", r.FittestID),
		slog.Int("fittest", r.Fittest),
		slog.Int("top_fitness", r.TopFitness),
	)
}

// LogStats logs the record using slog.
func (r GenerationRecord) LogStats() {
	slog.Info("generation reset", "record", r)
}
