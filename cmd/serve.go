package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/league"
	"github.com/Abtin-Molavi/ff-playoff-scenarios/internal/scenario"
)

var servePort int

// analyzeRequest is the POST /analyze body. The season state is inlined so
// the server stays stateless.
type analyzeRequest struct {
	Season     league.Season `json:"season"`
	Competitor string        `json:"competitor"`
	Rank       int           `json:"rank"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /analyze", handleAnalyze)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// handleAnalyze runs one analysis synchronously and returns the result.
func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Competitor == "" {
		writeJSONError(w, http.StatusBadRequest, "competitor is required")
		return
	}
	if req.Rank == 0 {
		req.Rank = playoffRank
	}

	idx, ok := req.Season.CompetitorIndex(req.Competitor)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("competitor %q not in season", req.Competitor))
		return
	}

	analyzer, err := scenario.New(&req.Season, solverOptions())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := analyzer.Analyze(r.Context(), league.Goal{Competitor: idx, Rank: req.Rank})
	if err != nil {
		zap.L().Error("analysis failed",
			zap.String("competitor", req.Competitor),
			zap.Error(err),
		)
		writeJSONError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(res)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
