package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
	"github.com/spf13/cobra"

	"pdcoea/pkg/pdcoea"
)

const createdAtFormat = "%Y-%m-%d %H:%M:%S"

func newRunsCmd(global *globalFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, _, err := global.load(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			runs, err := client.Runs(cmd.Context(), pdcoea.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tRUN ID\tGAME\tSIZE\tN\tCHI\tSEED\tEVALS\tOUTCOME")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%d\t%s\t%s\n",
					formatCreatedAt(run.CreatedAtUTC),
					run.RunID,
					run.Game,
					run.PopulationSize,
					run.N,
					run.Chi,
					run.Seed,
					humanize.Comma(run.PayoffEvals),
					run.Outcome,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum runs to list (0 lists all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print runs as JSON")
	return cmd
}

func formatCreatedAt(value string) string {
	t, err := time.Parse(pdcoea.CreatedAtLayout, value)
	if err != nil {
		return value
	}
	return strftime.Format(createdAtFormat, t)
}
