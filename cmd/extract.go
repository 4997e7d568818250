package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/extract"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/pkg/anthropic"
)

var (
	extractData    string
	extractOut     string
	extractNoCache bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract season state from league screenshots",
	Long:  "Reads standings screenshots from <data>/table and scoreboard screenshots from <data>/scoreboard, extracts them via Claude vision, and writes a season state YAML file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		client := anthropic.NewClient(cfg.Anthropic.Key)
		ex := extract.New(client, st, extract.Options{
			Model:             cfg.Anthropic.Model,
			NoCache:           extractNoCache,
			RequestsPerSecond: cfg.Anthropic.RequestsPerSecond,
		})

		season, err := ex.ExtractSeason(ctx, extractData)
		if err != nil {
			return err
		}

		if err := league.SaveSeason(extractOut, season); err != nil {
			return err
		}

		zap.L().Info("season extracted",
			zap.String("out", extractOut),
			zap.Int("competitors", len(season.Competitors)),
			zap.Int("matchups", len(season.Matchups)),
		)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractData, "data", "data", "directory holding table/ and scoreboard/ screenshots")
	extractCmd.Flags().StringVar(&extractOut, "out", "season.yaml", "output season YAML path")
	extractCmd.Flags().BoolVar(&extractNoCache, "no-cache", false, "bypass the extraction response cache")
	rootCmd.AddCommand(extractCmd)
}
