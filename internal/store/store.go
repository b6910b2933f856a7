// Package store persists classification results. Two backends exist:
// Postgres for the shared insight schema and SQLite for local runs; both
// write the same flat record per classified customer.
package store

import (
	"context"
	"time"

	"github.com/vitrine-group/insight-cli/internal/model"
)

// RunMeta identifies the batch run a set of profiles belongs to.
type RunMeta struct {
	RunID      string
	AsOf       time.Time
	ConfigHash string
}

// Store writes classification results.
type Store interface {
	// Migrate creates the result tables if they do not exist.
	Migrate(ctx context.Context) error

	// SaveProfiles persists profiles under one run. Profiles without a
	// classification are skipped.
	SaveProfiles(ctx context.Context, meta RunMeta, profiles []*model.CustomerProfile) error

	Close() error
}
