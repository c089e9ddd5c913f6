package pdcoea

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pdcoea/internal/coea"
	"pdcoea/internal/game"
	"pdcoea/internal/logging"
	"pdcoea/internal/model"
	"pdcoea/internal/stats"
	"pdcoea/internal/storage"
	"pdcoea/internal/sweep"
)

const defaultDBPath = "pdcoea.db"

// CreatedAtLayout is fixed-width so that timestamps order lexically.
const CreatedAtLayout = "2006-01-02T15:04:05.000000000Z"

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind string
	DBPath    string
	// ArtifactsDir receives per-run and per-sweep files plus run_index.json.
	// Empty disables artifact output.
	ArtifactsDir string
	Logger       *slog.Logger
}

type Client struct {
	store        storage.Store
	initialized  bool
	artifactsDir string
	logger       *slog.Logger
}

type RunRequest struct {
	Game           string
	PopulationSize int
	N              int
	Chi            float64
	MaxPayoffEvals int64
	Seed           int64
	// Trace records per-generation statistics into the run record.
	Trace bool
	// Observer, when set, receives every generation snapshot.
	Observer coea.Observer
}

type RunSummary struct {
	RunID        string
	Result       coea.RunResult
	ArtifactsDir string
	Trace        []model.GenerationStats
	Elapsed      time.Duration
}

type SweepRequest struct {
	Game            string
	N               int
	PopulationSizes []int
	Chis            []float64
	Trials          int
	MaxPayoffEvals  int64
	Seed            int64
	Workers         int
}

type SweepSummary struct {
	SweepID      string
	Record       model.SweepRecord
	ArtifactsDir string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	Game           string
	PopulationSize int
	N              int
	Chi            float64
	Seed           int64
	PayoffEvals    int64
	Outcome        string
	CreatedAtUTC   string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: opts.ArtifactsDir,
		logger:       logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run executes one engine run, persists its record and returns the summary.
// A cancelled run is still recorded; its summary is returned along with the
// context error.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Game == "" {
		req.Game = game.DiagonalName
	}
	g, err := game.Lookup(req.Game)
	if err != nil {
		return RunSummary{}, err
	}
	cfg := coea.Config{
		PopulationSize: req.PopulationSize,
		N:              req.N,
		Chi:            req.Chi,
		MaxPayoffEvals: req.MaxPayoffEvals,
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	var trace *coea.GenerationTrace
	observers := coea.MultiObserver{req.Observer}
	if req.Trace {
		trace = &coea.GenerationTrace{}
		observers = append(observers, trace)
	}
	engine, err := coea.NewEngine(g, cfg, coea.Options{Seed: req.Seed, Observer: observers})
	if err != nil {
		return RunSummary{}, err
	}

	runID := fmt.Sprintf("%s-%d-%s", req.Game, req.Seed, uuid.NewString())
	c.logger.Info("run started",
		"run_id", runID,
		"game", req.Game,
		"population_size", cfg.PopulationSize,
		"n", cfg.N,
		"chi", cfg.Chi,
		"max_payoff_evals", cfg.MaxPayoffEvals,
		"seed", req.Seed,
	)

	start := time.Now()
	result, runErr := engine.Run(ctx)
	elapsed := time.Since(start)
	if runErr != nil && !errors.Is(runErr, ctx.Err()) {
		c.logger.Error("run failed", "run_id", runID, "error", runErr)
		return RunSummary{}, runErr
	}

	summary := RunSummary{RunID: runID, Result: result, Elapsed: elapsed}
	if trace != nil {
		summary.Trace = trace.Stats
	}
	record := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		Game:            req.Game,
		PopulationSize:  cfg.PopulationSize,
		N:               cfg.N,
		Chi:             cfg.Chi,
		MaxPayoffEvals:  cfg.MaxPayoffEvals,
		Seed:            req.Seed,
		PayoffEvals:     result.PayoffEvals,
		Generations:     result.Generations,
		Outcome:         string(result.Outcome),
		ElapsedMS:       elapsed.Milliseconds(),
		CreatedAtUTC:    start.UTC().Format(CreatedAtLayout),
		Trace:           summary.Trace,
	}
	// A cancelled context would abort the save itself.
	saveCtx := context.WithoutCancel(ctx)
	if err := c.store.SaveRun(saveCtx, record); err != nil {
		return RunSummary{}, err
	}
	if c.artifactsDir != "" {
		dir, err := stats.WriteRunArtifacts(c.artifactsDir, record)
		if err != nil {
			return RunSummary{}, err
		}
		if err := stats.AppendRunIndex(c.artifactsDir, stats.IndexEntryFromRecord(record)); err != nil {
			return RunSummary{}, err
		}
		summary.ArtifactsDir = dir
	}

	c.logger.Info("run finished",
		"run_id", runID,
		"payoff_evals", result.PayoffEvals,
		"generations", result.Generations,
		"outcome", result.Outcome,
		"elapsed", elapsed,
	)
	return summary, runErr
}

// Sweep runs the heatmap experiment and persists its record.
func (c *Client) Sweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	if req.Game == "" {
		req.Game = game.DiagonalName
	}
	newGame, err := game.FactoryFor(req.Game)
	if err != nil {
		return SweepSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return SweepSummary{}, err
	}

	grid := sweep.Grid{
		N:               req.N,
		PopulationSizes: req.PopulationSizes,
		Chis:            req.Chis,
		Trials:          req.Trials,
		MaxPayoffEvals:  req.MaxPayoffEvals,
	}
	sweepID := fmt.Sprintf("sweep-%s-%d-%s", req.Game, req.Seed, uuid.NewString())
	c.logger.Info("sweep started",
		"sweep_id", sweepID,
		"cells", len(req.PopulationSizes)*len(req.Chis),
		"trials", req.Trials,
		"workers", req.Workers,
	)

	start := time.Now()
	result, err := sweep.Run(ctx, grid, sweep.Options{
		NewGame: newGame,
		Seed:    req.Seed,
		Workers: req.Workers,
		Logger:  c.logger,
		OnTrial: func(t sweep.TrialResult) {
			c.logger.Log(ctx, logging.LevelTrace, "sweep trial",
				"row", t.Row,
				"col", t.Col,
				"trial", t.Trial,
				"payoff_evals", t.Result.PayoffEvals,
				"outcome", t.Result.Outcome,
			)
		},
	})
	if err != nil {
		return SweepSummary{}, err
	}

	record := result.Record(sweepID, req.Game, req.Seed, start.UTC().Format(CreatedAtLayout))
	record.VersionedRecord = storage.CurrentVersion()
	if err := c.store.SaveSweep(ctx, record); err != nil {
		return SweepSummary{}, err
	}
	summary := SweepSummary{SweepID: sweepID, Record: record}
	if c.artifactsDir != "" {
		dir, err := stats.WriteSweepArtifacts(c.artifactsDir, record)
		if err != nil {
			return SweepSummary{}, err
		}
		summary.ArtifactsDir = dir
	}

	c.logger.Info("sweep finished", "sweep_id", sweepID, "elapsed", time.Since(start))
	return summary, nil
}

// Runs lists recorded runs newest first. With an artifacts directory the
// on-disk index is authoritative, since it outlives the process.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if c.artifactsDir != "" {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		if req.Limit > 0 && len(entries) > req.Limit {
			entries = entries[:req.Limit]
		}
		items := make([]RunItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, RunItem(e))
		}
		return items, nil
	}

	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, RunItem(stats.IndexEntryFromRecord(run)))
	}
	return items, nil
}

// Show returns a stored run, falling back to its artifacts on disk.
func (c *Client) Show(ctx context.Context, runID string) (model.RunRecord, error) {
	if runID == "" {
		return model.RunRecord{}, errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if ok {
		return run, nil
	}
	if c.artifactsDir == "" {
		return model.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return c.runFromArtifacts(runID)
}

func (c *Client) runFromArtifacts(runID string) (model.RunRecord, error) {
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	outcome, _, err := stats.ReadRunOutcome(c.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	trace, _, err := stats.ReadGenerationStats(c.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}

	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		Game:            cfg.Game,
		PopulationSize:  cfg.PopulationSize,
		N:               cfg.N,
		Chi:             cfg.Chi,
		MaxPayoffEvals:  cfg.MaxPayoffEvals,
		Seed:            cfg.Seed,
		PayoffEvals:     outcome.PayoffEvals,
		Generations:     outcome.Generations,
		Outcome:         outcome.Outcome,
		ElapsedMS:       outcome.ElapsedMS,
		Trace:           trace,
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return model.RunRecord{}, err
	}
	for _, e := range entries {
		if e.RunID == runID {
			run.CreatedAtUTC = e.CreatedAtUTC
			break
		}
	}
	return run, nil
}
