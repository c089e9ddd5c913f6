package coea

import (
	"context"
	"fmt"
	"math/rand"
)

type Config struct {
	PopulationSize int
	N              int
	Chi            float64
	MaxPayoffEvals int64
}

func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return invalidConfig("population size must be > 0, got %d", c.PopulationSize)
	}
	if c.N <= 0 {
		return invalidConfig("n must be > 0, got %d", c.N)
	}
	if !(c.Chi > 0) {
		return invalidConfig("chi must be > 0, got %v", c.Chi)
	}
	if c.MaxPayoffEvals < 0 {
		return invalidConfig("max payoff evals must be >= 0, got %d", c.MaxPayoffEvals)
	}
	return nil
}

func (c Config) EvalsPerGeneration() int64 {
	return int64(PayoffsPerSlot) * int64(c.PopulationSize)
}

type Outcome string

const (
	OutcomeTerminated     Outcome = "terminated"
	OutcomeBudgetExceeded Outcome = "budget_exceeded"
	OutcomeCancelled      Outcome = "cancelled"
)

type RunResult struct {
	PayoffEvals int64   `json:"payoff_evals"`
	Generations int     `json:"generations"`
	Outcome     Outcome `json:"outcome"`
}

type Options struct {
	// Rand is the run's private random source. When nil one is seeded from Seed.
	Rand     *rand.Rand
	Seed     int64
	Observer Observer
}

// Engine runs the pairwise dominance co-evolutionary algorithm for one game.
// An Engine owns its populations and random source and must not be shared
// between goroutines; independent runs use independent engines.
type Engine struct {
	game     Game
	cfg      Config
	rng      *rand.Rand
	observer Observer

	buffers *generationBuffers
	sample  *slotSample
}

func NewEngine(game Game, cfg Config, opts Options) (*Engine, error) {
	if game == nil {
		return nil, invalidConfig("game is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	return &Engine{
		game:     game,
		cfg:      cfg,
		rng:      rng,
		observer: opts.Observer,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Run evolves fresh populations until the game terminates or the budget is
// spent. A budget exit returns the first multiple of 3*PopulationSize that
// reaches MaxPayoffEvals. Cancellation is observed between generations.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	if err := e.reset(); err != nil {
		return RunResult{}, err
	}

	perGeneration := e.cfg.EvalsPerGeneration()
	var result RunResult
	for {
		done, err := e.terminated()
		if err != nil {
			return result, err
		}
		if done {
			result.Outcome = OutcomeTerminated
			return result, nil
		}
		if result.PayoffEvals >= e.cfg.MaxPayoffEvals {
			result.Outcome = OutcomeBudgetExceeded
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			result.Outcome = OutcomeCancelled
			return result, err
		}

		if err := runGeneration(e.rng, e.game, e.cfg.Chi, e.buffers.current(), e.buffers.scratch(), e.sample); err != nil {
			return result, err
		}
		e.buffers.flip()
		result.PayoffEvals += perGeneration
		result.Generations++

		if e.observer != nil {
			e.observer.ObserveGeneration(e.snapshot(result))
		}
	}
}

// Populations returns the current predator and prey populations. They are
// valid until the next call to Run.
func (e *Engine) Populations() (predators, prey *Population) {
	if e.buffers == nil {
		return nil, nil
	}
	cur := e.buffers.current()
	return cur.predators, cur.prey
}

func (e *Engine) reset() error {
	size, n := e.cfg.PopulationSize, e.cfg.N
	predators, err := NewPopulation(e.rng, size, n)
	if err != nil {
		return err
	}
	prey, err := NewPopulation(e.rng, size, n)
	if err != nil {
		return err
	}
	nextPredators, err := newEmptyPopulation(size, n)
	if err != nil {
		return err
	}
	nextPrey, err := newEmptyPopulation(size, n)
	if err != nil {
		return err
	}
	e.buffers = &generationBuffers{pairs: [2]populationPair{
		{predators: predators, prey: prey},
		{predators: nextPredators, prey: nextPrey},
	}}
	e.sample = newSlotSample(size)
	return nil
}

func (e *Engine) terminated() (done bool, err error) {
	defer recoverPlugin(&err, e.game, "terminate")
	cur := e.buffers.current()
	return e.game.Terminate(cur.predators, cur.prey), nil
}

func (e *Engine) snapshot(result RunResult) Snapshot {
	cur := e.buffers.current()
	return Snapshot{
		Generation:   result.Generations,
		PayoffEvals:  result.PayoffEvals,
		N:            e.cfg.N,
		PredatorOnes: cur.predators.OnesCounts(),
		PreyOnes:     cur.prey.OnesCounts(),
	}
}

// Run is the single-call entry point: it runs game under cfg with rng and
// returns the number of payoff evaluations consumed.
func Run(ctx context.Context, game Game, cfg Config, rng *rand.Rand) (int64, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	engine, err := NewEngine(game, cfg, Options{Rand: rng})
	if err != nil {
		return 0, err
	}
	result, err := engine.Run(ctx)
	return result.PayoffEvals, err
}
