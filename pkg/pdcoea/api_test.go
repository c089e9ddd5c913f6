package pdcoea

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pdcoea/internal/coea"
	"pdcoea/internal/game"
)

func newTestClient(t *testing.T, artifactsDir string) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", ArtifactsDir: artifactsDir})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func smallRun(seed int64) RunRequest {
	return RunRequest{
		PopulationSize: 10,
		N:              6,
		Chi:            0.5,
		MaxPayoffEvals: 30_000,
		Seed:           seed,
	}
}

func TestClientRunRunsAndShow(t *testing.T) {
	client := newTestClient(t, "")
	ctx := context.Background()

	req := smallRun(42)
	req.N = 40
	req.Trace = true
	summary, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if summary.Result.PayoffEvals%30 != 0 {
		t.Fatalf("evals %d not a multiple of 3*population", summary.Result.PayoffEvals)
	}
	if len(summary.Trace) != summary.Result.Generations {
		t.Fatalf("trace length %d != generations %d", len(summary.Trace), summary.Result.Generations)
	}

	second, err := client.Run(ctx, smallRun(43))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != second.RunID || runs[1].RunID != summary.RunID {
		t.Fatalf("expected newest-first listing, got %+v", runs)
	}

	shown, err := client.Show(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if shown.PayoffEvals != summary.Result.PayoffEvals || shown.Outcome != string(summary.Result.Outcome) {
		t.Fatalf("unexpected stored run: %+v", shown)
	}
	if len(shown.Trace) != len(summary.Trace) {
		t.Fatalf("stored trace length %d, want %d", len(shown.Trace), len(summary.Trace))
	}

	if _, err := client.Show(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestClientRunIsReproducible(t *testing.T) {
	client := newTestClient(t, "")
	a, err := client.Run(context.Background(), smallRun(7))
	if err != nil {
		t.Fatalf("run a: %v", err)
	}
	b, err := client.Run(context.Background(), smallRun(7))
	if err != nil {
		t.Fatalf("run b: %v", err)
	}
	if a.Result != b.Result {
		t.Fatalf("same seed gave different results: %+v vs %+v", a.Result, b.Result)
	}
	if a.RunID == b.RunID {
		t.Fatal("run ids must be unique")
	}
}

func TestClientRunRejectsInvalidInput(t *testing.T) {
	client := newTestClient(t, "")
	req := smallRun(1)
	req.PopulationSize = 0
	if _, err := client.Run(context.Background(), req); !errors.Is(err, coea.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	req = smallRun(1)
	req.Game = "no-such-game"
	if _, err := client.Run(context.Background(), req); err == nil {
		t.Fatal("expected unknown game error")
	}
}

func TestClientRunCancelledIsRecorded(t *testing.T) {
	client := newTestClient(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := smallRun(3)
	req.N = 40
	summary, err := client.Run(ctx, req)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Result.Outcome != coea.OutcomeCancelled || summary.Result.PayoffEvals != 0 {
		t.Fatalf("unexpected cancelled result: %+v", summary.Result)
	}
	shown, err := client.Show(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if shown.Outcome != string(coea.OutcomeCancelled) {
		t.Fatalf("unexpected outcome: %s", shown.Outcome)
	}
}

func TestClientArtifactsAndIndex(t *testing.T) {
	artifactsDir := filepath.Join(t.TempDir(), "artifacts")
	client := newTestClient(t, artifactsDir)
	ctx := context.Background()

	req := smallRun(11)
	req.N = 40
	req.Trace = true
	summary, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, file := range []string{"config.json", "result.json", "generations.csv"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}

	// A fresh client shares only the artifacts directory with the first one.
	reopened := newTestClient(t, artifactsDir)
	runs, err := reopened.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("unexpected index listing: %+v", runs)
	}
	shown, err := reopened.Show(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("show from artifacts: %v", err)
	}
	if shown.PayoffEvals != summary.Result.PayoffEvals || len(shown.Trace) != len(summary.Trace) || shown.CreatedAtUTC == "" {
		t.Fatalf("unexpected run from artifacts: %+v", shown)
	}
}

func TestClientSweep(t *testing.T) {
	artifactsDir := t.TempDir()
	client := newTestClient(t, artifactsDir)

	summary, err := client.Sweep(context.Background(), SweepRequest{
		N:               6,
		PopulationSizes: []int{4, 8},
		Chis:            []float64{0.5, 1},
		Trials:          2,
		MaxPayoffEvals:  3_000,
		Seed:            1,
		Workers:         2,
	})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(summary.Record.Cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(summary.Record.Cells))
	}
	if summary.Record.SchemaVersion == 0 {
		t.Fatal("expected versioned sweep record")
	}
	for _, file := range []string{"sweep.json", "heatmap.csv", "heatmap.png"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}
}

func TestClientSweepRejectsUnknownGame(t *testing.T) {
	client := newTestClient(t, "")
	_, err := client.Sweep(context.Background(), SweepRequest{
		Game:            "no-such-game",
		N:               6,
		PopulationSizes: []int{4},
		Chis:            []float64{1},
		Trials:          1,
		MaxPayoffEvals:  300,
	})
	if !errors.Is(err, game.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
}
