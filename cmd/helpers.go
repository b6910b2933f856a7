package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vitrine-group/insight-cli/internal/repo"
	"github.com/vitrine-group/insight-cli/internal/store"
)

// asOfLayout is the accepted --as-of format.
const asOfLayout = "2006-01-02"

// parseAsOf resolves the evaluation time: flag value when given, otherwise
// now.
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(asOfLayout, value)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse --as-of %q (want YYYY-MM-DD)", value)
	}
	return t, nil
}

// openRepository opens the repository named by store.driver.
func openRepository(ctx context.Context) (repo.Repository, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return repo.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Taxonomy)
	case "sqlite":
		return repo.NewSQLite(cfg.Store.DatabaseURL, cfg.Taxonomy)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// openStore opens the classification result store for the same backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
