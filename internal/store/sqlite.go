package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS vision_cache (
	key        TEXT PRIMARY KEY,
	response   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analyses (
	id             TEXT PRIMARY KEY,
	competitor     TEXT NOT NULL,
	rank           INTEGER NOT NULL,
	scenario_count INTEGER NOT NULL,
	feasible       INTEGER NOT NULL,
	result         TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_competitor ON analyses(competitor);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCached(ctx context.Context, key string) (string, bool, error) {
	var response string
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM vision_cache WHERE key = ?`, key,
	).Scan(&response)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get cached %s", key)
	}
	return response, true, nil
}

func (s *SQLiteStore) PutCached(ctx context.Context, key, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vision_cache (key, response, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET response = excluded.response, created_at = excluded.created_at`,
		key, response, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put cached %s", key)
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, competitor, rank, scenario_count, feasible, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Competitor, rec.Rank, rec.ScenarioCount, rec.Feasible, rec.Result, rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save analysis %s", rec.ID)
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, competitor, rank, scenario_count, feasible, result, created_at
		 FROM analyses WHERE id = ?`, id,
	)
	var rec AnalysisRecord
	err := row.Scan(&rec.ID, &rec.Competitor, &rec.Rank, &rec.ScenarioCount,
		&rec.Feasible, &rec.Result, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: analysis %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter ListFilter) ([]AnalysisRecord, error) {
	query := `SELECT id, competitor, rank, scenario_count, feasible, result, created_at
		 FROM analyses WHERE 1=1`
	var args []any

	if filter.Competitor != "" {
		query += ` AND competitor = ?`
		args = append(args, filter.Competitor)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var recs []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.Competitor, &rec.Rank, &rec.ScenarioCount,
			&rec.Feasible, &rec.Result, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list analyses")
}
