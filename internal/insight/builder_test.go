package insight

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-group/insight-cli/internal/config"
	"github.com/vitrine-group/insight-cli/internal/model"
	"github.com/vitrine-group/insight-cli/internal/repo"
)

type customerRecords struct {
	customer     model.Customer
	sales        []model.RawEvent
	returns      []model.RawEvent
	installments []model.PaymentInstallment
	failWith     error
}

// fakeRepo serves canned records for multiple customers.
type fakeRepo struct {
	customers map[string]*customerRecords
}

func (f *fakeRepo) records(code string) *customerRecords { return f.customers[code] }

func (f *fakeRepo) Customer(_ context.Context, code string) (*model.Customer, error) {
	r := f.records(code)
	if r == nil {
		return nil, repo.ErrUnknownCustomer
	}
	c := r.customer
	return &c, nil
}

func (f *fakeRepo) HasSales(_ context.Context, code string) (bool, error) {
	r := f.records(code)
	return r != nil && len(r.sales) > 0, nil
}

func (f *fakeRepo) ActiveCustomers(context.Context) ([]string, error) {
	var codes []string
	for code, r := range f.customers {
		if len(r.sales) > 0 {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (f *fakeRepo) SaleEvents(_ context.Context, code string, _, _ time.Time) ([]model.RawEvent, error) {
	r := f.records(code)
	if r == nil {
		return nil, nil
	}
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.sales, nil
}

func (f *fakeRepo) ReturnEvents(_ context.Context, code string, _, _ time.Time) ([]model.RawEvent, error) {
	if r := f.records(code); r != nil {
		return r.returns, nil
	}
	return nil, nil
}

func (f *fakeRepo) Installments(_ context.Context, code string) ([]model.PaymentInstallment, error) {
	if r := f.records(code); r != nil {
		return r.installments, nil
	}
	return nil, nil
}

func (f *fakeRepo) Close() error { return nil }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validScoring() config.ScoringConfig {
	return config.ScoringConfig{
		Weights: config.Weights{Revenue: 0.40, Frequency: 0.25, Punctuality: 0.15, Volume: 0.10, Diversification: 0.10},
		Tiers:   config.Tiers{Diamante: 9.1, Ouro: 7.5, Prata: 5.0, Bronze: 0},
		Revenue: config.Breakpoints{Score10: 50000, Score8: 30001, Score6: 15001, Score4: 5001},
		Volume:  config.Breakpoints{Score10: 500, Score8: 201, Score6: 101, Score4: 50},
		Punctuality: config.Breakpoints{
			Score10: 95, Score8: 85, Score6: 75, Score4: 60,
		},
		Brands: config.BrandsLadder{
			FullMarks: 6,
			Range8:    config.IntRange{Min: 4, Max: 5},
			Range6:    config.IntRange{Min: 2, Max: 3},
			Exact4:    1,
		},
	}
}

func saleAt(ts time.Time, amount float64, qty int64, brand string) model.RawEvent {
	return model.RawEvent{Operation: model.OperationSale, Timestamp: ts, FinalAmount: amount, Quantity: qty, Brand: brand}
}

func TestBuildProfileFull(t *testing.T) {
	asOf := day(2024, time.July, 15)
	due := day(2024, time.June, 3)
	paid := due
	r := &fakeRepo{customers: map[string]*customerRecords{
		"C100": {
			customer: model.Customer{Code: "C100", Name: "Comercial Norte", CreditLimit: 20000},
			sales: []model.RawEvent{
				saleAt(day(2024, time.May, 10), 8000, 40, "ALFA"),
				saleAt(day(2024, time.June, 2), 9000, 60, "BETA"),
			},
			installments: []model.PaymentInstallment{
				{Number: 1, Version: 1, DueDate: due, PaidDate: &paid, Amount: 4000},
				{Number: 2, Version: 1, DueDate: day(2024, time.June, 10), Amount: 3000},   // overdue
				{Number: 3, Version: 1, DueDate: day(2024, time.August, 12), Amount: 2500}, // not yet due
			},
		},
	}}

	b := NewBuilder(r, validScoring())
	p, err := b.BuildProfile(context.Background(), "C100", asOf)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "Comercial Norte", p.Name)
	assert.Equal(t, 20000.0, p.CreditLimit)
	assert.Equal(t, 5500.0, p.CreditLimitUsed)

	// Revenue 17000 scores 6, two cycles score 4, fully punctual payments
	// score 10, 100 net pieces score 4, two brands score 6.
	require.NotNil(t, p.Classification)
	assert.Empty(t, p.Classification.Err)
	assert.Equal(t, 5.9, p.Classification.Score)
	assert.Equal(t, model.TierPrata, p.Classification.Tier)
}

func TestBuildProfileExcludesZeroSalesCustomer(t *testing.T) {
	// Payment data alone never qualifies a customer.
	r := &fakeRepo{customers: map[string]*customerRecords{
		"C200": {
			customer: model.Customer{Code: "C200", Name: "Sem Vendas"},
			installments: []model.PaymentInstallment{
				{Number: 1, Version: 1, DueDate: day(2024, time.June, 3), Amount: 1000},
			},
		},
	}}

	b := NewBuilder(r, validScoring())
	p, err := b.BuildProfile(context.Background(), "C200", day(2024, time.July, 15))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBuildProfileUnknownCodeIsExcluded(t *testing.T) {
	b := NewBuilder(&fakeRepo{customers: map[string]*customerRecords{}}, validScoring())
	p, err := b.BuildProfile(context.Background(), "NOPE", day(2024, time.July, 15))
	require.NoError(t, err)
	assert.Nil(t, p) // no sales record means exclusion, not an error
}

func TestBuildProfileDegradesOnBadScoringConfig(t *testing.T) {
	bad := validScoring()
	bad.Weights.Revenue = -1

	r := &fakeRepo{customers: map[string]*customerRecords{
		"C300": {
			customer: model.Customer{Code: "C300", Name: "Degradado"},
			sales:    []model.RawEvent{saleAt(day(2024, time.June, 2), 60000, 600, "ALFA")},
		},
	}}

	b := NewBuilder(r, bad)
	assert.Empty(t, b.ConfigHash())

	p, err := b.BuildProfile(context.Background(), "C300", day(2024, time.July, 15))
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Classification)

	assert.Equal(t, model.TierBronze, p.Classification.Tier)
	assert.Zero(t, p.Classification.Score)
	assert.Contains(t, p.Classification.Err, "invalid configuration")
}

func TestRunBatchCountsAndSorts(t *testing.T) {
	asOf := day(2024, time.July, 15)
	sale := saleAt(day(2024, time.June, 2), 1000, 5, "ALFA")
	r := &fakeRepo{customers: map[string]*customerRecords{
		"C3": {customer: model.Customer{Code: "C3"}, sales: []model.RawEvent{sale}},
		"C1": {customer: model.Customer{Code: "C1"}, sales: []model.RawEvent{sale}},
		"C2": {customer: model.Customer{Code: "C2"}, sales: []model.RawEvent{sale},
			failWith: eris.New("replica gone")},
	}}

	b := NewBuilder(r, validScoring())
	report, err := b.RunBatch(context.Background(), asOf, BatchOptions{Concurrency: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Built)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)

	require.Len(t, report.Profiles, 2)
	assert.Equal(t, "C1", report.Profiles[0].Code)
	assert.Equal(t, "C3", report.Profiles[1].Code)
}

func TestRunBatchRespectsLimit(t *testing.T) {
	sale := saleAt(day(2024, time.June, 2), 1000, 5, "ALFA")
	r := &fakeRepo{customers: map[string]*customerRecords{
		"C1": {customer: model.Customer{Code: "C1"}, sales: []model.RawEvent{sale}},
		"C2": {customer: model.Customer{Code: "C2"}, sales: []model.RawEvent{sale}},
	}}

	b := NewBuilder(r, validScoring())
	report, err := b.RunBatch(context.Background(), day(2024, time.July, 15), BatchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Built)
}
