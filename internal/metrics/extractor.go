// Package metrics derives per-customer KPIs from raw ERP event records. All
// computations are pure over the fetched records; the only I/O is the
// repository fetch in Extract.
package metrics

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vitrine-group/insight-cli/internal/model"
	"github.com/vitrine-group/insight-cli/internal/repo"
)

// Extractor turns repository records into CustomerMetrics.
type Extractor struct {
	repo repo.Repository
}

// New creates an Extractor over the given repository.
func New(r repo.Repository) *Extractor {
	return &Extractor{repo: r}
}

// Extract computes the full metric set for one customer at the given
// evaluation time. The customer must be known to the repository
// (repo.ErrUnknownCustomer otherwise); having no transactions is a valid
// zero-metric result, not an error.
func (e *Extractor) Extract(ctx context.Context, code string, asOf time.Time) (*model.CustomerMetrics, error) {
	if _, err := e.repo.Customer(ctx, code); err != nil {
		return nil, err
	}

	// Fetch once, unbounded; every window below is applied in memory.
	sales, err := e.repo.SaleEvents(ctx, code, time.Time{}, time.Time{})
	if err != nil {
		return nil, eris.Wrapf(err, "metrics: fetch sales for %s", code)
	}
	returns, err := e.repo.ReturnEvents(ctx, code, time.Time{}, time.Time{})
	if err != nil {
		return nil, eris.Wrapf(err, "metrics: fetch returns for %s", code)
	}
	installments, err := e.repo.Installments(ctx, code)
	if err != nil {
		return nil, eris.Wrapf(err, "metrics: fetch installments for %s", code)
	}

	m := &model.CustomerMetrics{
		CustomerCode: code,
		AsOf:         asOf,
		Revenue:      NetRevenue(sales, returns, asOf),
		Cycles:       PurchaseCycles(sales, asOf),
		Volume:       PieceVolume(sales, returns),
		Payment:      ClassifyInstallments(installments, asOf),
	}
	m.BrandNet = BrandBreakdown(sales, returns)
	m.BrandCount = len(m.BrandNet)
	m.FirstPurchase, m.LastPurchase = purchaseSpan(sales)

	return m, nil
}

// purchaseSpan returns the first and last qualifying sale timestamps, nil
// when the customer has none.
func purchaseSpan(sales []model.RawEvent) (first, last *time.Time) {
	for _, ev := range sales {
		if ev.Timestamp.IsZero() {
			continue
		}
		ts := ev.Timestamp
		if first == nil || ts.Before(*first) {
			first = &ts
		}
		if last == nil || ts.After(*last) {
			last = &ts
		}
	}
	return first, last
}
