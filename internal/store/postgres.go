package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vitrine-group/insight-cli/internal/db"
	"github.com/vitrine-group/insight-cli/internal/model"
)

// PostgresStore writes results into the insight schema.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects a result store to the database.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse database url")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; tests pass a pgxmock pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS insight;

CREATE TABLE IF NOT EXISTS insight.classifications (
	id                SERIAL PRIMARY KEY,
	run_id            UUID NOT NULL,
	as_of             TIMESTAMPTZ NOT NULL,
	customer_code     TEXT NOT NULL,
	customer_name     TEXT NOT NULL DEFAULT '',
	score             DOUBLE PRECISION NOT NULL,
	tier              TEXT NOT NULL,
	criteria          JSONB,
	degraded_error    TEXT NOT NULL DEFAULT '',
	credit_limit      DOUBLE PRECISION NOT NULL DEFAULT 0,
	credit_limit_used DOUBLE PRECISION NOT NULL DEFAULT 0,
	metrics           JSONB,
	config_hash       TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_classifications_run ON insight.classifications(run_id);
CREATE INDEX IF NOT EXISTS idx_classifications_customer ON insight.classifications(customer_code, created_at DESC);
`

// Migrate creates the insight schema and result table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "store: migrate")
	}
	return nil
}

// SaveProfiles persists the classified profiles in one transaction.
func (s *PostgresStore) SaveProfiles(ctx context.Context, meta RunMeta, profiles []*model.CustomerProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "store: begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var saved int
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

		_, err = tx.Exec(ctx, `
			INSERT INTO insight.classifications
				(run_id, as_of, customer_code, customer_name, score, tier,
				 criteria, degraded_error, credit_limit, credit_limit_used,
				 metrics, config_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, meta.RunID, meta.AsOf, p.Code, p.Name,
			p.Classification.Score, string(p.Classification.Tier),
			criteria, p.Classification.Err,
			p.CreditLimit, p.CreditLimitUsed,
			metricsJSON, meta.ConfigHash)
		if err != nil {
			return eris.Wrapf(err, "store: insert classification for %s", p.Code)
		}
		saved++
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "store: commit classifications")
	}

	zap.L().Info("store: saved classifications",
		zap.Int("count", saved),
		zap.String("run_id", meta.RunID),
	)
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
