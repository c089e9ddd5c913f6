package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newShowCmd(global *globalFlags) *cobra.Command {
	var (
		runID   string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return errors.New("--run-id is required")
			}
			_, client, _, err := global.load(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			run, err := client.Show(cmd.Context(), runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "run id\t%s\n", run.ID)
			fmt.Fprintf(w, "created\t%s\n", formatCreatedAt(run.CreatedAtUTC))
			fmt.Fprintf(w, "game\t%s\n", run.Game)
			fmt.Fprintf(w, "population size\t%d\n", run.PopulationSize)
			fmt.Fprintf(w, "n\t%d\n", run.N)
			fmt.Fprintf(w, "chi\t%g\n", run.Chi)
			fmt.Fprintf(w, "seed\t%d\n", run.Seed)
			fmt.Fprintf(w, "budget\t%s\n", humanize.Comma(run.MaxPayoffEvals))
			fmt.Fprintf(w, "payoff evals\t%s\n", humanize.Comma(run.PayoffEvals))
			fmt.Fprintf(w, "generations\t%d\n", run.Generations)
			fmt.Fprintf(w, "outcome\t%s\n", run.Outcome)
			fmt.Fprintf(w, "elapsed\t%dms\n", run.ElapsedMS)
			if n := len(run.Trace); n > 0 {
				last := run.Trace[n-1]
				fmt.Fprintf(w, "final predator ones\tmax %d, mean %.2f\n", last.PredatorMaxOnes, last.PredatorMeanOnes)
				fmt.Fprintf(w, "final prey ones\tmax %d, mean %.2f\n", last.PreyMaxOnes, last.PreyMeanOnes)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the run record as JSON")
	return cmd
}
