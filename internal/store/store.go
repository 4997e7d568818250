// Package store persists extraction-response cache entries and analysis
// run history in a local SQLite database.
package store

import (
	"context"
	"time"
)

// AnalysisRecord is one stored analysis run.
type AnalysisRecord struct {
	ID            string    `json:"id"`
	Competitor    string    `json:"competitor"`
	Rank          int       `json:"rank"`
	ScenarioCount int       `json:"scenario_count"`
	Feasible      bool      `json:"feasible"`
	Result        string    `json:"result"` // full Analysis JSON
	CreatedAt     time.Time `json:"created_at"`
}

// ListFilter narrows ListAnalyses.
type ListFilter struct {
	Competitor string
	Limit      int
}

// Store is the persistence contract shared by the extraction cache and the
// analysis history.
type Store interface {
	Migrate(ctx context.Context) error

	// GetCached returns the cached response for a key, or ok=false.
	GetCached(ctx context.Context, key string) (response string, ok bool, err error)
	PutCached(ctx context.Context, key, response string) error

	SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)
	ListAnalyses(ctx context.Context, filter ListFilter) ([]AnalysisRecord, error)

	Close() error
}
