package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pdcoea/internal/coea"
	"pdcoea/internal/config"
	"pdcoea/internal/logging"
	"pdcoea/internal/storage"
	"pdcoea/internal/viz"
	"pdcoea/pkg/pdcoea"
)

const defaultDBPath = "pdcoea.db"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	notifySignals(signals)
	go func() {
		<-signals
		cancel()
	}()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath   string
	logLevel     string
	storeKind    string
	dbPath       string
	artifactsDir string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&g.logLevel, "log-level", "info", "log level: info|debug|trace|warn|error")
	fs.StringVar(&g.storeKind, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	fs.StringVar(&g.dbPath, "db-path", defaultDBPath, "sqlite database path")
	fs.StringVar(&g.artifactsDir, "artifacts-dir", "", "directory for run and sweep artifacts")
}

// load reads the configuration file and builds the logger and client.
func (g *globalFlags) load(cmd *cobra.Command) (*config.File, *pdcoea.Client, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if cmd.Flags().Changed("log-level") || cfg.Logging.Level == "" {
		cfg.Logging.Level = g.logLevel
	}
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	client, err := pdcoea.New(pdcoea.Options{
		StoreKind:    g.storeKind,
		DBPath:       g.dbPath,
		ArtifactsDir: g.artifactsDir,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, client, logger, nil
}

// runFlags mirror config.RunConfig. They override the file only when set.
type runFlags struct {
	game           string
	populationSize int
	n              int
	chi            float64
	maxPayoffEvals config.Count
	seed           int64
	plot           bool
	trace          bool
}

func (f *runFlags) register(fs *pflag.FlagSet, d config.RunConfig) {
	f.maxPayoffEvals = d.MaxPayoffEvals
	fs.StringVar(&f.game, "game", d.Game, "registered game to play")
	fs.IntVar(&f.populationSize, "population_size", d.PopulationSize, "population size (lambda) of each population")
	fs.IntVar(&f.n, "n", d.N, "bitstring length")
	fs.Float64Var(&f.chi, "chi", d.Chi, "mutation parameter; each bit flips with probability chi/n")
	fs.Var(&f.maxPayoffEvals, "max_payoff_evals", "payoff evaluation budget (accepts 1e7)")
	fs.Int64Var(&f.seed, "seed", d.Seed, "random seed")
	fs.BoolVar(&f.plot, "plot", d.Plot, "plot both populations live in the terminal")
	fs.BoolVar(&f.trace, "trace", d.Trace, "record per-generation statistics")
}

func (f *runFlags) apply(fs *pflag.FlagSet, cfg *config.RunConfig) {
	if fs.Changed("game") {
		cfg.Game = f.game
	}
	if fs.Changed("population_size") {
		cfg.PopulationSize = f.populationSize
	}
	if fs.Changed("n") {
		cfg.N = f.n
	}
	if fs.Changed("chi") {
		cfg.Chi = f.chi
	}
	if fs.Changed("max_payoff_evals") {
		cfg.MaxPayoffEvals = f.maxPayoffEvals
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("plot") {
		cfg.Plot = f.plot
	}
	if fs.Changed("trace") {
		cfg.Trace = f.trace
	}
}

func newRootCmd() *cobra.Command {
	var (
		global globalFlags
		flags  runFlags
	)
	cmd := &cobra.Command{
		Use:   "pdcoea",
		Short: "Pairwise dominance co-evolutionary algorithm",
		Long: `pdcoea evolves a predator and a prey population of bitstrings against
each other under a two-player game and prints the number of payoff
evaluations spent until the game's termination criterion holds or the
evaluation budget is exhausted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, logger, err := global.load(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()
			flags.apply(cmd.Flags(), &cfg.Run)
			if err := cfg.Run.Validate(); err != nil {
				return err
			}
			return runEngine(cmd, client, logger, cfg.Run)
		},
	}
	global.register(cmd.PersistentFlags())
	flags.register(cmd.Flags(), config.Default().Run)

	cmd.AddCommand(
		newSweepCmd(&global),
		newRunsCmd(&global),
		newShowCmd(&global),
	)
	return cmd
}

func runEngine(cmd *cobra.Command, client *pdcoea.Client, logger *slog.Logger, run config.RunConfig) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		observer coea.Observer
		scatter  *viz.Scatter
	)
	if run.Plot {
		if scatter = openScatter(cmd.OutOrStdout(), cancel, logger); scatter != nil {
			defer scatter.Close()
			observer = scatter
		}
	}

	summary, err := client.Run(ctx, pdcoea.RunRequest{
		Game:           run.Game,
		PopulationSize: run.PopulationSize,
		N:              run.N,
		Chi:            run.Chi,
		MaxPayoffEvals: int64(run.MaxPayoffEvals),
		Seed:           run.Seed,
		Trace:          run.Trace,
		Observer:       observer,
	})
	// The terminal must be restored before the result is printed.
	if scatter != nil {
		scatter.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if summary.ArtifactsDir != "" {
		logger.Info("artifacts written", "dir", summary.ArtifactsDir)
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.Result.PayoffEvals)
	return err
}

// openScatter returns nil when out is not an interactive terminal.
func openScatter(out io.Writer, cancel context.CancelFunc, logger *slog.Logger) *viz.Scatter {
	file, ok := out.(*os.File)
	if !ok || !isatty.IsTerminal(file.Fd()) {
		logger.Warn("plot disabled: stdout is not a terminal")
		return nil
	}
	scatter, err := viz.OpenScatter(cancel)
	if err != nil {
		logger.Warn("plot disabled", "error", err)
		return nil
	}
	return scatter
}
