package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vitrine-group/insight-cli/internal/model"
)

// SQLiteStore writes results into a local SQLite file, next to the snapshot
// the repository reads from.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the result store at the given path.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS classifications (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id            TEXT NOT NULL,
	as_of             INTEGER NOT NULL,
	customer_code     TEXT NOT NULL,
	customer_name     TEXT NOT NULL DEFAULT '',
	score             REAL NOT NULL,
	tier              TEXT NOT NULL,
	criteria          TEXT,
	degraded_error    TEXT NOT NULL DEFAULT '',
	credit_limit      REAL NOT NULL DEFAULT 0,
	credit_limit_used REAL NOT NULL DEFAULT 0,
	metrics           TEXT,
	config_hash       TEXT NOT NULL DEFAULT '',
	created_at        INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_classifications_run ON classifications(run_id);
`

// Migrate creates the result table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

// SaveProfiles persists the classified profiles in one transaction.
func (s *SQLiteStore) SaveProfiles(ctx context.Context, meta RunMeta, profiles []*model.CustomerProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classifications
			(run_id, as_of, customer_code, customer_name, score, tier,
			 criteria, degraded_error, credit_limit, credit_limit_used,
			 metrics, config_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return eris.Wrap(err, "store: prepare insert")
	}
	defer stmt.Close()

	for _, p := range profiles {
		if p.Classification == nil {
			continue
		}
		criteria, err := json.Marshal(p.Classification.Criteria)
		if err != nil {
			return eris.Wrapf(err, "store: marshal criteria for %s", p.Code)
		}
		metricsJSON, err := json.Marshal(p.Metrics)
		if err != nil {
			return eris.Wrapf(err, "store: marshal metrics for %s", p.Code)
		}

		_, err = stmt.ExecContext(ctx,
			meta.RunID, meta.AsOf.Unix(), p.Code, p.Name,
			p.Classification.Score, string(p.Classification.Tier),
			string(criteria), p.Classification.Err,
			p.CreditLimit, p.CreditLimitUsed,
			string(metricsJSON), meta.ConfigHash)
		if err != nil {
			return eris.Wrapf(err, "store: insert classification for %s", p.Code)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit classifications")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
