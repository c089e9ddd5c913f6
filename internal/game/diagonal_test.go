package game

import (
	"context"
	"testing"

	"pdcoea/internal/coea"
)

func population(t *testing.T, rows ...string) *coea.Population {
	t.Helper()
	bits := make([][]bool, 0, len(rows))
	for _, row := range rows {
		r := make([]bool, len(row))
		for i, c := range row {
			r[i] = c == '1'
		}
		bits = append(bits, r)
	}
	pop, err := coea.PopulationFromBits(bits)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	return pop
}

func TestDiagonalPayoff(t *testing.T) {
	pop := population(t, "1100", "1010", "1110", "0000")
	cases := []struct {
		x, y int
		want float64
	}{
		{0, 1, 1},
		{0, 2, 0},
		{2, 0, 1},
		{3, 3, 1},
		{3, 0, 0},
	}
	g := Diagonal{}
	for _, tc := range cases {
		if got := g.Payoff(pop.Individual(tc.x), pop.Individual(tc.y)); got != tc.want {
			t.Fatalf("payoff(%s, %s) = %v, want %v", pop.Individual(tc.x), pop.Individual(tc.y), got, tc.want)
		}
	}
}

func TestDiagonalTerminate(t *testing.T) {
	g := Diagonal{}
	optimal := population(t, "010", "111")
	other := population(t, "110", "011")

	if !g.Terminate(optimal, optimal) {
		t.Fatal("expected termination when both populations hold all-ones")
	}
	if g.Terminate(optimal, other) {
		t.Fatal("prey without all-ones must not terminate")
	}
	if g.Terminate(other, optimal) {
		t.Fatal("predators without all-ones must not terminate")
	}
}

func TestDiagonalRunReturnsZeroWhenInitiallyOptimal(t *testing.T) {
	// With single-bit individuals and 64 slots both random populations
	// hold a one-bit for any practical seed.
	engine, err := coea.NewEngine(Diagonal{}, coea.Config{PopulationSize: 64, N: 1, Chi: 0.3, MaxPayoffEvals: 1000}, coea.Options{Seed: 5})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != coea.OutcomeTerminated || result.PayoffEvals != 0 {
		t.Fatalf("expected immediate termination, got %+v", result)
	}
}

func TestDiagonalRunReachesNashWithinBudget(t *testing.T) {
	cfg := coea.Config{PopulationSize: 50, N: 10, Chi: 0.3, MaxPayoffEvals: 10_000_000}
	engine, err := coea.NewEngine(Diagonal{}, cfg, coea.Options{Seed: 2024})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != coea.OutcomeTerminated {
		t.Fatalf("expected termination within budget, got %+v", result)
	}
	if result.PayoffEvals != cfg.EvalsPerGeneration()*int64(result.Generations) {
		t.Fatalf("inconsistent accounting: %+v", result)
	}
	preds, prey := engine.Populations()
	if !(Diagonal{}).Terminate(preds, prey) {
		t.Fatal("final populations do not satisfy the Nash criterion")
	}
}
