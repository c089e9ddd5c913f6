package sweep

import (
	"context"
	"testing"

	"pdcoea/internal/coea"
	"pdcoea/internal/game"
)

func smallGrid() Grid {
	return Grid{
		N:               6,
		PopulationSizes: []int{4, 8},
		Chis:            []float64{0.5, 1.0},
		Trials:          3,
		MaxPayoffEvals:  20_000,
	}
}

func diagonalFactory() coea.Game {
	return game.Diagonal{}
}

func TestRunIsIndependentOfWorkerCount(t *testing.T) {
	serial, err := Run(context.Background(), smallGrid(), Options{NewGame: diagonalFactory, Seed: 7, Workers: 1})
	if err != nil {
		t.Fatalf("serial sweep: %v", err)
	}
	parallel, err := Run(context.Background(), smallGrid(), Options{NewGame: diagonalFactory, Seed: 7, Workers: 4})
	if err != nil {
		t.Fatalf("parallel sweep: %v", err)
	}

	for i := range serial.Cells {
		for j := range serial.Cells[i] {
			a, b := serial.Cells[i][j], parallel.Cells[i][j]
			for k := range a.Trials {
				if a.Trials[k] != b.Trials[k] {
					t.Fatalf("cell (%d,%d) trial %d differs: %+v vs %+v", i, j, k, a.Trials[k], b.Trials[k])
				}
			}
		}
	}
}

func TestRunFillsEveryCellAndReportsTrials(t *testing.T) {
	grid := smallGrid()
	calls := 0
	result, err := Run(context.Background(), grid, Options{
		NewGame: diagonalFactory,
		Seed:    1,
		Workers: 3,
		OnTrial: func(TrialResult) { calls++ },
	})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if calls != len(grid.PopulationSizes)*len(grid.Chis)*grid.Trials {
		t.Fatalf("unexpected trial callbacks: %d", calls)
	}

	means := result.Means()
	if len(means) != 2 || len(means[0]) != 2 {
		t.Fatalf("unexpected heatmap shape: %v", means)
	}
	for i, row := range result.Cells {
		for j, cell := range row {
			if cell.PopulationSize != grid.PopulationSizes[i] || cell.Chi != grid.Chis[j] {
				t.Fatalf("cell (%d,%d) has wrong coordinates: %+v", i, j, cell)
			}
			perGen := int64(3 * cell.PopulationSize)
			for _, trial := range cell.Trials {
				if trial.PayoffEvals%perGen != 0 {
					t.Fatalf("cell (%d,%d): evals %d not a multiple of %d", i, j, trial.PayoffEvals, perGen)
				}
			}
		}
	}

	record := result.Record("sweep-1", game.DiagonalName, 1, "2026-01-01T00:00:00Z")
	if len(record.Cells) != 4 || record.Cells[3].Row != 1 || record.Cells[3].Col != 1 {
		t.Fatalf("unexpected record cells: %+v", record.Cells)
	}
	if record.Cells[0].MeanPayoffEvals != means[0][0] {
		t.Fatalf("record mean %v differs from heatmap %v", record.Cells[0].MeanPayoffEvals, means[0][0])
	}
}

func TestRunRejectsInvalidGrid(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Grid)
	}{
		{"no sizes", func(g *Grid) { g.PopulationSizes = nil }},
		{"no chis", func(g *Grid) { g.Chis = nil }},
		{"no trials", func(g *Grid) { g.Trials = 0 }},
		{"bad chi", func(g *Grid) { g.Chis = []float64{0} }},
		{"bad n", func(g *Grid) { g.N = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grid := smallGrid()
			tc.edit(&grid)
			if _, err := Run(context.Background(), grid, Options{NewGame: diagonalFactory}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Run(context.Background(), smallGrid(), Options{}); err == nil {
		t.Fatal("expected error for missing game factory")
	}
}

func TestRanges(t *testing.T) {
	sizes := IntRange(50, 100, 10)
	if len(sizes) != 5 || sizes[0] != 50 || sizes[4] != 90 {
		t.Fatalf("unexpected sizes: %v", sizes)
	}
	chis := FloatRange(0.1, 0.6, 0.1)
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	if len(chis) != len(want) {
		t.Fatalf("unexpected chis: %v", chis)
	}
	for i := range want {
		if chis[i] != want[i] {
			t.Fatalf("chi[%d] = %v, want %v", i, chis[i], want[i])
		}
	}
	if IntRange(0, 10, 0) != nil || FloatRange(0, 1, 0) != nil {
		t.Fatal("non-positive step must yield no values")
	}
}

func TestTrialSeedDistinct(t *testing.T) {
	seen := map[int64]struct{}{}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				seen[TrialSeed(1, i, j, k)] = struct{}{}
			}
		}
	}
	if len(seen) != 64 {
		t.Fatalf("expected 64 distinct seeds, got %d", len(seen))
	}
}
