package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/flap/sim"
)

func TestRecorderGenerationEnded(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	out, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	history := newTestHistory(t)
	runID := NewRunID()
	if err := history.StartRun(ctx, RunInfo{ID: runID, StartedAt: time.Now(), SeedPolicy: "perturb"}); err != nil {
		t.Fatal(err)
	}

	r := NewRecorder(ctx, runID, out, history, 0, false)
	var obs sim.GenerationObserver = r

	summary := sim.GenerationSummary{Generation: 1, Tick: 50, RoundTicks: 50, Fitness: []int{49, 20}, FittestID: 3, Fittest: 49, TopFitness: 49}
	if err := obs.GenerationEnded(summary); err != nil {
		t.Fatalf("GenerationEnded: %v", err)
	}

	last, ok := r.Last()
	if !ok || last.Fittest != 49 || last.RunID != runID {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
	best, ok := r.Best()
	if !ok || best != (RunBest{RunID: runID, Generation: 1, Fitness: 49}) {
		t.Errorf("Best() = %+v, %v, want generation 1 with 49", best, ok)
	}

	records, err := history.generations(ctx, runID)
	if err != nil || len(records) != 1 {
		t.Fatalf("history records = %v, %v", records, err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), runID) {
		t.Error("generations.csv does not carry the run id")
	}
}

func TestRecorderBestSpansRuns(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t)
	for _, id := range []string{"earlier", "current"} {
		if err := history.StartRun(ctx, RunInfo{ID: id, StartedAt: time.Now(), SeedPolicy: "clone"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := history.SaveGeneration(ctx, GenerationRecord{RunID: "earlier", Generation: 4, Fittest: 300}); err != nil {
		t.Fatal(err)
	}

	r := NewRecorder(ctx, "current", nil, history, 0, false)
	if _, ok := r.Best(); ok {
		t.Error("Best before LoadBest")
	}
	if err := r.LoadBest(); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		fittest int
		want    RunBest
	}{
		{120, RunBest{RunID: "earlier", Generation: 4, Fitness: 300}},
		{450, RunBest{RunID: "current", Generation: 2, Fitness: 450}},
	}
	for i, st := range steps {
		summary := sim.GenerationSummary{Generation: i + 1, Fitness: []int{st.fittest}, Fittest: st.fittest, TopFitness: st.fittest}
		if err := r.GenerationEnded(summary); err != nil {
			t.Fatal(err)
		}
		if got, ok := r.Best(); !ok || got != st.want {
			t.Errorf("generation %d: Best() = %+v, want %+v", i+1, got, st.want)
		}
	}
}

func TestRecorderObserveTick(t *testing.T) {
	dir := t.TempDir()
	out, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRecorder(context.Background(), "run", out, nil, 10, false)

	for tick := 1; tick <= 35; tick++ {
		if err := r.ObserveTick(sim.Stats{Tick: tick}); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Errorf("stats.csv has %d lines, want header + 3 samples", len(lines))
	}
}

func TestNewRunIDUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b || len(a) != 36 {
		t.Errorf("run ids %q and %q", a, b)
	}
}
