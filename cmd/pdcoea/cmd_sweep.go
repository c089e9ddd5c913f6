package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pdcoea/internal/config"
	"pdcoea/internal/viz"
	"pdcoea/pkg/pdcoea"
)

type sweepFlags struct {
	game            string
	n               int
	populationSizes []int
	chis            []float64
	trials          int
	maxPayoffEvals  config.Count
	seed            int64
	workers         int
	jsonOut         bool
}

func (f *sweepFlags) register(fs *pflag.FlagSet, d config.SweepConfig) {
	f.maxPayoffEvals = d.MaxPayoffEvals
	fs.StringVar(&f.game, "game", d.Game, "registered game to play")
	fs.IntVar(&f.n, "n", d.N, "bitstring length")
	fs.IntSliceVar(&f.populationSizes, "population-sizes", nil, "population sizes (rows); default from config range")
	fs.Float64SliceVar(&f.chis, "chis", nil, "chi values (columns); default from config range")
	fs.IntVar(&f.trials, "trials", d.Trials, "independent runs per cell")
	fs.Var(&f.maxPayoffEvals, "max_payoff_evals", "payoff evaluation budget per trial (accepts 1e8)")
	fs.Int64Var(&f.seed, "seed", d.Seed, "base random seed")
	fs.IntVar(&f.workers, "workers", d.Workers, "trials run in parallel")
	fs.BoolVar(&f.jsonOut, "json", false, "print the sweep record as JSON")
}

func (f *sweepFlags) apply(fs *pflag.FlagSet, cfg *config.SweepConfig) {
	if fs.Changed("game") {
		cfg.Game = f.game
	}
	if fs.Changed("n") {
		cfg.N = f.n
	}
	if fs.Changed("population-sizes") {
		cfg.PopulationSizes = f.populationSizes
	}
	if fs.Changed("chis") {
		cfg.Chis = f.chis
	}
	if fs.Changed("trials") {
		cfg.Trials = f.trials
	}
	if fs.Changed("max_payoff_evals") {
		cfg.MaxPayoffEvals = f.maxPayoffEvals
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
}

func newSweepCmd(global *globalFlags) *cobra.Command {
	var flags sweepFlags
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Average evaluation counts over a grid of population sizes and chi values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, _, err := global.load(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()
			flags.apply(cmd.Flags(), &cfg.Sweep)
			if err := cfg.Sweep.Validate(); err != nil {
				return err
			}

			grid := cfg.Sweep.Grid()
			summary, err := client.Sweep(cmd.Context(), pdcoea.SweepRequest{
				Game:            cfg.Sweep.Game,
				N:               grid.N,
				PopulationSizes: grid.PopulationSizes,
				Chis:            grid.Chis,
				Trials:          grid.Trials,
				MaxPayoffEvals:  grid.MaxPayoffEvals,
				Seed:            cfg.Sweep.Seed,
				Workers:         cfg.Sweep.Workers,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary.Record)
			}
			return viz.WriteHeatmapTable(out, summary.Record)
		},
	}
	flags.register(cmd.Flags(), config.Default().Sweep)
	return cmd
}
