// Package insight assembles per-customer profiles: identity, derived metrics
// and the loyalty classification. It owns the two batch-safety rules: zero
// qualifying sales excludes the customer outright, and a broken scoring
// configuration degrades the classification instead of aborting the run.
package insight

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vitrine-group/insight-cli/internal/config"
	"github.com/vitrine-group/insight-cli/internal/metrics"
	"github.com/vitrine-group/insight-cli/internal/model"
	"github.com/vitrine-group/insight-cli/internal/repo"
	"github.com/vitrine-group/insight-cli/internal/scoring"
)

// Builder produces CustomerProfile records for one repository and one scoring
// configuration.
type Builder struct {
	repo      repo.Repository
	extractor *metrics.Extractor

	engine    *scoring.Engine
	engineErr error
}

// NewBuilder wires a builder over the repository. An invalid scoring
// configuration does not fail construction; every profile built by such a
// builder carries a degraded classification with the error recorded.
func NewBuilder(r repo.Repository, cfg config.ScoringConfig) *Builder {
	b := &Builder{repo: r, extractor: metrics.New(r)}
	b.engine, b.engineErr = scoring.NewEngine(cfg)
	if b.engineErr != nil {
		zap.L().Warn("insight: scoring configuration rejected, classifications will degrade",
			zap.Error(b.engineErr))
	}
	return b
}

// ConfigHash exposes the engine's configuration fingerprint, empty when the
// configuration was rejected.
func (b *Builder) ConfigHash() string {
	if b.engine == nil {
		return ""
	}
	return b.engine.ConfigHash()
}

// BuildProfile builds the full profile for one customer at asOf. Customers
// with no qualifying sale event return (nil, nil) and must be skipped by the
// caller; payment or brand data alone never qualifies a customer.
func (b *Builder) BuildProfile(ctx context.Context, code string, asOf time.Time) (*model.CustomerProfile, error) {
	has, err := b.repo.HasSales(ctx, code)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: sales check for %s", code)
	}
	if !has {
		return nil, nil
	}

	customer, err := b.repo.Customer(ctx, code)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: load customer %s", code)
	}

	m, err := b.extractor.Extract(ctx, code, asOf)
	if err != nil {
		return nil, err
	}

	profile := &model.CustomerProfile{
		Code:            customer.Code,
		Name:            customer.Name,
		RegisteredAt:    customer.RegisteredAt,
		CreditLimit:     customer.CreditLimit,
		CreditLimitUsed: m.Payment.NotYetDueAmount + m.Payment.OverdueAmount,
		Metrics:         *m,
	}

	profile.Classification = b.classify(m)
	return profile, nil
}

// classify scores the metrics, or records the degraded Bronze result when the
// engine is unavailable.
func (b *Builder) classify(m *model.CustomerMetrics) *model.ClassificationResult {
	if b.engineErr != nil {
		return &model.ClassificationResult{
			Score: 0,
			Tier:  model.TierBronze,
			Err:   b.engineErr.Error(),
		}
	}
	res := b.engine.Score(m)
	return &res
}
