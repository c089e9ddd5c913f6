package viz

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"pdcoea/internal/coea"
	"pdcoea/internal/model"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	return screen
}

func cellAt(screen tcell.SimulationScreen, x, y int) tcell.SimCell {
	cells, width, _ := screen.GetContents()
	return cells[y*width+x]
}

func TestScatterDrawsPointsAndRegion(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()

	s := NewScatter(screen, nil, 0)
	s.latest = coea.Snapshot{
		Generation:   3,
		PayoffEvals:  90,
		N:            10,
		PredatorOnes: []int{10, 0},
		PreyOnes:     []int{0, 10},
	}
	s.draw()

	// 80x25 screen: the plot spans x in [6,78] and y in [1,22].
	if got := cellAt(screen, 78, 22); len(got.Runes) == 0 || got.Runes[0] != '•' {
		t.Fatalf("expected point at bottom right, got %q", got.Runes)
	}
	if got := cellAt(screen, 6, 1); len(got.Runes) == 0 || got.Runes[0] != '•' {
		t.Fatalf("expected point at top left, got %q", got.Runes)
	}
	if got := cellAt(screen, 40, 22); got.Style != styleRegion {
		t.Fatalf("expected shaded cell below the diagonal")
	}
	if got := cellAt(screen, 7, 21); got.Style == styleRegion {
		t.Fatalf("expected unshaded cell above the diagonal")
	}
}

func TestScatterDropsWhenRendererIsBehind(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()

	s := NewScatter(screen, nil, 0)
	for i := 0; i < snapshotBuffer+6; i++ {
		s.ObserveGeneration(coea.Snapshot{Generation: i})
	}
	if s.Dropped() != 6 {
		t.Fatalf("expected 6 dropped snapshots, got %d", s.Dropped())
	}
}

func TestScatterQuitKeyCancels(t *testing.T) {
	screen := newSimScreen(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScatter(screen, cancel, time.Millisecond)
	s.Start()
	defer s.Close()

	s.ObserveGeneration(coea.Snapshot{Generation: 1, N: 4, PredatorOnes: []int{1}, PreyOnes: []int{2}})
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("quit key did not cancel the run")
	}
}

func TestScatterObservesEngineRun(t *testing.T) {
	screen := newSimScreen(t)
	s := NewScatter(screen, nil, time.Millisecond)
	s.Start()

	engine, err := coea.NewEngine(stubGame{}, coea.Config{PopulationSize: 4, N: 4, Chi: 0.5, MaxPayoffEvals: 120}, coea.Options{Seed: 1, Observer: s})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	s.Close()
	s.Close()
}

type stubGame struct{}

func (stubGame) Name() string { return "stub" }
func (stubGame) Payoff(x, y coea.Individual) float64 { return float64(x.OnesCount() - y.OnesCount()) }
func (stubGame) Terminate(predators, prey *coea.Population) bool { return false }

func TestWriteHeatmapTable(t *testing.T) {
	sweep := model.SweepRecord{
		PopulationSizes: []int{50, 60},
		Chis:            []float64{0.1, 0.2},
		Cells: []model.SweepCell{
			{Row: 0, Col: 0, MeanPayoffEvals: 1234567.4},
			{Row: 0, Col: 1, MeanPayoffEvals: 900},
			{Row: 1, Col: 0, MeanPayoffEvals: 15},
			{Row: 1, Col: 1, MeanPayoffEvals: 20000},
		},
	}
	var buf bytes.Buffer
	if err := WriteHeatmapTable(&buf, sweep); err != nil {
		t.Fatalf("write table: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[1], "1,234,567") || !strings.Contains(lines[2], "20,000") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
	if len(lines[0]) != len(lines[1]) || len(lines[1]) != len(lines[2]) {
		t.Fatalf("columns are not aligned:\n%s", buf.String())
	}
}
