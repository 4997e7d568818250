package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/config"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/scenario"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ff-scenarios",
	Short: "Fantasy league playoff scenario engine",
	Long:  "Ingests league screenshots via Claude vision, models the open week as integer constraints, and answers which outcomes a competitor needs to reach a target rank.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the sqlite store and applies migrations.
func initStore(cmd *cobra.Command) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// solverOptions maps configuration onto engine options.
func solverOptions() scenario.Options {
	return scenario.Options{
		MinScore:       cfg.Solver.MinScore,
		MaxScore:       cfg.Solver.MaxScore,
		MaxMatchups:    cfg.Solver.MaxMatchups,
		ConflictBudget: cfg.Solver.ConflictBudget,
		CheckTimeout:   time.Duration(cfg.Solver.CheckTimeoutSecs) * time.Second,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
