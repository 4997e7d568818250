package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored analysis history",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		competitor, _ := cmd.Flags().GetString("competitor")
		limit, _ := cmd.Flags().GetInt("limit")

		recs, err := st.ListAnalyses(ctx, store.ListFilter{
			Competitor: competitor,
			Limit:      limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No analyses found.")
			return nil
		}

		formatAnalysesList(os.Stdout, recs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show the full stored result of an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetAnalysis(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// formatAnalysesList writes a tabular list of analyses to w.
func formatAnalysesList(out io.Writer, recs []store.AnalysisRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPETITOR\tRANK\tSCENARIOS\tFEASIBLE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----------\t----\t---------\t--------\t-------")

	for _, r := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\t%s\n",
			r.ID, r.Competitor, r.Rank, r.ScenarioCount, r.Feasible,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func init() {
	runsListCmd.Flags().String("competitor", "", "filter by competitor name")
	runsListCmd.Flags().Int("limit", 20, "maximum rows")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
