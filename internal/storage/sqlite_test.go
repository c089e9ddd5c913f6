//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"pdcoea/internal/model"
)

func TestSQLiteStoreRunAndSweepRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pdcoea.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	run := model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "run-1",
		Game:            "diagonal",
		PopulationSize:  50,
		N:               10,
		Chi:             0.3,
		PayoffEvals:     3000,
		Generations:     20,
		Outcome:         "terminated",
		CreatedAtUTC:    "2026-01-01T00:00:00Z",
		Trace: []model.GenerationStats{
			{Generation: 1, PayoffEvals: 150, PredatorMaxOnes: 7},
			{Generation: 2, PayoffEvals: 300, PredatorMaxOnes: 8},
		},
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run %s", run.ID)
	}
	if loaded.PayoffEvals != run.PayoffEvals || len(loaded.Trace) != 2 || loaded.Trace[1].PredatorMaxOnes != 8 {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}

	second := run
	second.ID = "run-2"
	second.CreatedAtUTC = "2026-01-02T00:00:00Z"
	second.Trace = nil
	if err := store.SaveRun(ctx, second); err != nil {
		t.Fatalf("save second run: %v", err)
	}
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	sweep := model.SweepRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "sweep-1",
		N:               10,
		PopulationSizes: []int{50},
		Chis:            []float64{0.1, 0.2},
		Trials:          2,
		Cells: []model.SweepCell{
			{Row: 0, Col: 1, PopulationSize: 50, Chi: 0.2, MeanPayoffEvals: 750, TrialPayoffEvals: []int64{600, 900}},
		},
	}
	if err := store.SaveSweep(ctx, sweep); err != nil {
		t.Fatalf("save sweep: %v", err)
	}
	loadedSweep, ok, err := store.GetSweep(ctx, sweep.ID)
	if err != nil {
		t.Fatalf("get sweep: %v", err)
	}
	if !ok || len(loadedSweep.Cells) != 1 || loadedSweep.Cells[0].TrialPayoffEvals[1] != 900 {
		t.Fatalf("unexpected sweep loaded: %+v", loadedSweep)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}
}
