// Package sweep runs independent engine trials over a grid of population
// sizes and mutation rates and averages their evaluation counts.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"pdcoea/internal/coea"
	"pdcoea/internal/model"
)

// Grid describes one heatmap experiment: rows are population sizes and
// columns are chi values.
type Grid struct {
	N               int
	PopulationSizes []int
	Chis            []float64
	Trials          int
	MaxPayoffEvals  int64
}

func (g Grid) Validate() error {
	if len(g.PopulationSizes) == 0 {
		return errors.New("at least one population size is required")
	}
	if len(g.Chis) == 0 {
		return errors.New("at least one chi value is required")
	}
	if g.Trials <= 0 {
		return fmt.Errorf("trials must be > 0, got %d", g.Trials)
	}
	for _, size := range g.PopulationSizes {
		for _, chi := range g.Chis {
			if err := g.config(size, chi).Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g Grid) config(size int, chi float64) coea.Config {
	return coea.Config{PopulationSize: size, N: g.N, Chi: chi, MaxPayoffEvals: g.MaxPayoffEvals}
}

type Options struct {
	// NewGame returns the game for one trial. Each trial gets its own value.
	NewGame func() coea.Game
	Seed    int64
	Workers int
	Logger  *slog.Logger
	// OnTrial is called after every finished trial. Calls are serialised.
	OnTrial func(TrialResult)
}

type TrialResult struct {
	Row    int
	Col    int
	Trial  int
	Seed   int64
	Result coea.RunResult
}

type Cell struct {
	PopulationSize int
	Chi            float64
	Trials         []coea.RunResult
}

func (c Cell) MeanPayoffEvals() float64 {
	if len(c.Trials) == 0 {
		return 0
	}
	total := 0.0
	for _, trial := range c.Trials {
		total += float64(trial.PayoffEvals)
	}
	return total / float64(len(c.Trials))
}

func (c Cell) Terminated() int {
	count := 0
	for _, trial := range c.Trials {
		if trial.Outcome == coea.OutcomeTerminated {
			count++
		}
	}
	return count
}

type Result struct {
	Grid  Grid
	Cells [][]Cell
}

// Means returns the mean evaluation count per cell, indexed [row][col].
func (r Result) Means() [][]float64 {
	means := make([][]float64, len(r.Cells))
	for i, row := range r.Cells {
		means[i] = make([]float64, len(row))
		for j, cell := range row {
			means[i][j] = cell.MeanPayoffEvals()
		}
	}
	return means
}

func (r Result) Record(id, game string, seed int64, createdAtUTC string) model.SweepRecord {
	record := model.SweepRecord{
		ID:              id,
		Game:            game,
		N:               r.Grid.N,
		PopulationSizes: append([]int(nil), r.Grid.PopulationSizes...),
		Chis:            append([]float64(nil), r.Grid.Chis...),
		Trials:          r.Grid.Trials,
		MaxPayoffEvals:  r.Grid.MaxPayoffEvals,
		Seed:            seed,
		CreatedAtUTC:    createdAtUTC,
	}
	for i, row := range r.Cells {
		for j, cell := range row {
			evals := make([]int64, len(cell.Trials))
			for k, trial := range cell.Trials {
				evals[k] = trial.PayoffEvals
			}
			record.Cells = append(record.Cells, model.SweepCell{
				Row:              i,
				Col:              j,
				PopulationSize:   cell.PopulationSize,
				Chi:              cell.Chi,
				MeanPayoffEvals:  cell.MeanPayoffEvals(),
				TrialPayoffEvals: evals,
				Terminated:       cell.Terminated(),
			})
		}
	}
	return record
}

// Run executes grid.Trials independent runs for every cell, each seeded from
// (opts.Seed, row, col, trial).
func Run(ctx context.Context, grid Grid, opts Options) (Result, error) {
	if err := grid.Validate(); err != nil {
		return Result{}, err
	}
	if opts.NewGame == nil {
		return Result{}, errors.New("game factory is required")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	result := Result{Grid: grid, Cells: make([][]Cell, len(grid.PopulationSizes))}
	remaining := make([][]int, len(grid.PopulationSizes))
	for i, size := range grid.PopulationSizes {
		result.Cells[i] = make([]Cell, len(grid.Chis))
		remaining[i] = make([]int, len(grid.Chis))
		for j, chi := range grid.Chis {
			result.Cells[i][j] = Cell{PopulationSize: size, Chi: chi, Trials: make([]coea.RunResult, grid.Trials)}
			remaining[i][j] = grid.Trials
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range grid.PopulationSizes {
		for j := range grid.Chis {
			for k := 0; k < grid.Trials; k++ {
				cell := &result.Cells[i][j]
				seed := TrialSeed(opts.Seed, i, j, k)
				g.Go(func() error {
					engine, err := coea.NewEngine(opts.NewGame(), grid.config(cell.PopulationSize, cell.Chi), coea.Options{Seed: seed})
					if err != nil {
						return err
					}
					run, err := engine.Run(gctx)
					if err != nil {
						return fmt.Errorf("trial (population=%d chi=%g trial=%d): %w", cell.PopulationSize, cell.Chi, k, err)
					}
					cell.Trials[k] = run

					mu.Lock()
					defer mu.Unlock()
					remaining[i][j]--
					if remaining[i][j] == 0 {
						logger.Debug("sweep cell complete",
							"population_size", cell.PopulationSize,
							"chi", cell.Chi,
							"mean_payoff_evals", cell.MeanPayoffEvals(),
							"terminated", cell.Terminated(),
						)
					}
					if opts.OnTrial != nil {
						opts.OnTrial(TrialResult{Row: i, Col: j, Trial: k, Seed: seed, Result: run})
					}
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return result, nil
}

// TrialSeed derives a well-mixed seed for one trial (splitmix64 finaliser).
func TrialSeed(base int64, row, col, trial int) int64 {
	z := uint64(base)
	for _, v := range []int{row, col, trial} {
		z += 0x9e3779b97f4a7c15 + uint64(v)
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
	}
	return int64(z)
}

func IntRange(start, stop, step int) []int {
	if step <= 0 {
		return nil
	}
	var out []int
	for v := start; v < stop; v += step {
		out = append(out, v)
	}
	return out
}

// FloatRange returns start, start+step, ... below stop, rounded to nine
// decimals so that 0.1+0.2 prints as 0.3.
func FloatRange(start, stop, step float64) []float64 {
	if !(step > 0) {
		return nil
	}
	count := int(math.Ceil((stop-start)/step - 1e-9))
	out := make([]float64, 0, max(count, 0))
	for i := 0; i < count; i++ {
		v := start + float64(i)*step
		out = append(out, math.Round(v*1e9)/1e9)
	}
	return out
}
