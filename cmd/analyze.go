package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/report"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/scenario"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/store"
)

var (
	analyzeSeason string
	analyzeNames  []string
	analyzeRank   int
	analyzeBye    bool
	analyzeJSON   bool
	analyzeNoSave bool
)

// playoff cutoffs for a standard 10-team league
const (
	playoffRank = 6
	byeRank     = 2
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze playoff scenarios for one or more competitors",
	Long:  "Enumerates every outcome of the open week in which the competitor reaches the target rank, then reduces them to necessary outcomes and minimal sufficient combinations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		season, err := league.LoadSeason(analyzeSeason)
		if err != nil {
			return err
		}

		analyzer, err := scenario.New(season, solverOptions())
		if err != nil {
			return err
		}

		names := analyzeNames
		if len(names) == 0 {
			for _, c := range season.Competitors {
				names = append(names, c.Name)
			}
		}

		rank := analyzeRank
		if rank == 0 {
			rank = playoffRank
			if analyzeBye {
				rank = byeRank
			}
		}

		goals := make([]league.Goal, len(names))
		for i, name := range names {
			idx, ok := season.CompetitorIndex(name)
			if !ok {
				return eris.Errorf("analyze: competitor %q not found in season", name)
			}
			goals[i] = league.Goal{Competitor: idx, Rank: rank}
		}

		// Goals are independent; each analysis opens its own oracle
		// sessions, so they can run in parallel.
		results := make([]*scenario.Analysis, len(goals))
		g, gctx := errgroup.WithContext(ctx)
		for i, goal := range goals {
			g.Go(func() error {
				res, err := analyzer.Analyze(gctx, goal)
				if err != nil {
					return eris.Wrapf(err, "analyze %s", names[i])
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if !analyzeNoSave {
			if err := saveAnalyses(cmd, season, results); err != nil {
				zap.L().Warn("failed to persist analyses", zap.Error(err))
			}
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		for i, res := range results {
			if i > 0 {
				os.Stdout.WriteString(strings.Repeat("-", 60) + "\n")
			}
			report.Write(os.Stdout, season, res)
		}
		return nil
	},
}

func saveAnalyses(cmd *cobra.Command, season *league.Season, results []*scenario.Analysis) error {
	st, err := initStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	for _, res := range results {
		body, err := json.Marshal(res)
		if err != nil {
			return eris.Wrap(err, "analyze: marshal result")
		}
		rec := &store.AnalysisRecord{
			Competitor:    season.Competitors[res.Goal.Competitor].Name,
			Rank:          res.Goal.Rank,
			ScenarioCount: len(res.Scenarios),
			Feasible:      res.Feasible(),
			Result:        string(body),
			CreatedAt:     time.Now().UTC(),
		}
		if err := st.SaveAnalysis(cmd.Context(), rec); err != nil {
			return err
		}
		zap.L().Debug("analysis saved", zap.String("id", rec.ID), zap.String("competitor", rec.Competitor))
	}
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSeason, "season", "season.yaml", "season state YAML file")
	analyzeCmd.Flags().StringSliceVar(&analyzeNames, "name", nil, "competitor name (repeatable; default all)")
	analyzeCmd.Flags().IntVar(&analyzeRank, "rank", 0, "target final rank (default: playoff cutoff)")
	analyzeCmd.Flags().BoolVar(&analyzeBye, "bye", false, "target the first-round bye cutoff instead of the playoff cutoff")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit raw JSON instead of the report")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not persist results to the store")
	rootCmd.AddCommand(analyzeCmd)
}
