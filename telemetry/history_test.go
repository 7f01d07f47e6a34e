package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	store := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestHistoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestHistory(t)

	run := RunInfo{ID: "run-a", StartedAt: time.Now(), Games: 2, Birds: 50, SeedPolicy: "perturb"}
	if err := store.StartRun(ctx, run); err != nil {
		t.Fatalf("start run: %v", err)
	}

	for g, top := range []int{40, 95, 120} {
		r := GenerationRecord{
			RunID:         run.ID,
			Generation:    g + 1,
			EndTick:       (g + 1) * 100,
			RoundTicks:    100,
			Birds:         100,
			FitnessMean:   12.5,
			FitnessMedian: 10,
			FittestID:     uint64(1000 + g),
			Fittest:       top,
			TopFitness:    top,
		}
		if err := store.SaveGeneration(ctx, r); err != nil {
			t.Fatalf("save generation: %v", err)
		}
	}

	records, err := store.generations(ctx, run.ID)
	if err != nil {
		t.Fatalf("generations: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, r := range records {
		if r.Generation != i+1 {
			t.Errorf("record %d generation = %d, want %d", i, r.Generation, i+1)
		}
		if r.FittestID != uint64(1000+i) {
			t.Errorf("record %d fittest id = %d, want %d", i, r.FittestID, 1000+i)
		}
		if r.RunID != run.ID {
			t.Errorf("record %d run id = %q", i, r.RunID)
		}
	}

	best, ok, err := store.BestFitness(ctx)
	if err != nil || !ok || best != (RunBest{RunID: run.ID, Generation: 3, Fitness: 120}) {
		t.Errorf("BestFitness = %+v, %v, %v; want generation 3 with 120", best, ok, err)
	}
}

func TestHistoryStoreBestAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := newTestHistory(t)

	save := func(t *testing.T, run string, gen, fittest int) {
		t.Helper()
		if err := store.SaveGeneration(ctx, GenerationRecord{RunID: run, Generation: gen, Fittest: fittest, TopFitness: fittest}); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []string{"a", "b"} {
		if err := store.StartRun(ctx, RunInfo{ID: id, StartedAt: time.Now(), SeedPolicy: "clone"}); err != nil {
			t.Fatal(err)
		}
	}

	save(t, "a", 1, 40)
	save(t, "a", 2, 95)
	save(t, "b", 1, 60)
	save(t, "b", 2, 95)

	tests := []struct {
		name string
		run  func(t *testing.T)
		want RunBest
	}{
		{"tie keeps the earlier generation", func(*testing.T) {}, RunBest{RunID: "a", Generation: 2, Fitness: 95}},
		{"later run beats it", func(t *testing.T) { save(t, "b", 3, 130) }, RunBest{RunID: "b", Generation: 3, Fitness: 130}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t)
			got, ok, err := store.BestFitness(ctx)
			if err != nil || !ok {
				t.Fatalf("BestFitness: ok=%v err=%v", ok, err)
			}
			if got != tt.want {
				t.Errorf("best = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHistoryStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestHistory(t)
	if err := store.StartRun(ctx, RunInfo{ID: "r", StartedAt: time.Now(), SeedPolicy: "clone"}); err != nil {
		t.Fatal(err)
	}

	_ = store.SaveGeneration(ctx, GenerationRecord{RunID: "r", Generation: 1, Fittest: 5})
	if err := store.SaveGeneration(ctx, GenerationRecord{RunID: "r", Generation: 1, Fittest: 9}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	records, err := store.generations(ctx, "r")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Fittest != 9 {
		t.Errorf("records = %+v, want one record with fittest 9", records)
	}
}

func TestHistoryStoreEmpty(t *testing.T) {
	store := newTestHistory(t)
	_, ok, err := store.BestFitness(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no best fitness in an empty store")
	}
}

func TestHistoryStoreNotInitialized(t *testing.T) {
	store := NewHistoryStore(filepath.Join(t.TempDir(), "x.db"))
	if err := store.SaveGeneration(context.Background(), GenerationRecord{}); err == nil {
		t.Error("expected error before Init")
	}
	if err := NewHistoryStore("").Init(context.Background()); err == nil {
		t.Error("expected error for empty path")
	}
}
