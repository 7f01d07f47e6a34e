package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/flap/sim"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeFitnessStats(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, std, _, p50, _ := ComputeFitnessStats(values)

	if math.Abs(mean-5) > 0.001 {
		t.Errorf("mean = %v, want 5", mean)
	}
	// Sample standard deviation: sqrt(32/7)
	if math.Abs(std-math.Sqrt(32.0/7.0)) > 0.001 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(32.0/7.0))
	}
	if math.Abs(p50-4.5) > 0.001 {
		t.Errorf("p50 = %v, want 4.5", p50)
	}
}

func TestComputeFitnessStatsSmall(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeFitnessStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}

	mean, std, _, p50, _ = ComputeFitnessStats([]float64{7})
	if mean != 7 || std != 0 || p50 != 7 {
		t.Errorf("single value: mean=%v std=%v p50=%v, want 7 0 7", mean, std, p50)
	}
}

func TestSummarize(t *testing.T) {
	s := sim.GenerationSummary{
		Generation: 3,
		Tick:       900,
		RoundTicks: 120,
		Fitness:    []int{10, 119, 50, 119},
		FittestID:  42,
		Fittest:    119,
		TopFitness: 200,
	}

	r := Summarize("run-1", s)
	if r.RunID != "run-1" || r.Generation != 3 || r.EndTick != 900 || r.RoundTicks != 120 {
		t.Errorf("identity fields = %+v", r)
	}
	if r.Birds != 4 {
		t.Errorf("birds = %d, want 4", r.Birds)
	}
	if math.Abs(r.FitnessMean-74.5) > 0.001 {
		t.Errorf("mean = %v, want 74.5", r.FitnessMean)
	}
	if math.Abs(r.FitnessMedian-84.5) > 0.001 {
		t.Errorf("median = %v, want 84.5", r.FitnessMedian)
	}
	if r.FittestID != 42 || r.Fittest != 119 || r.TopFitness != 200 {
		t.Errorf("fittest fields = %d/%d/%d", r.FittestID, r.Fittest, r.TopFitness)
	}
}
