package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-group/insight-cli/internal/config"
	"github.com/vitrine-group/insight-cli/internal/model"
)

func testTaxonomy() config.TaxonomyConfig {
	return config.TaxonomyConfig{
		SalesEvents:    []string{"S01", "S02"},
		ReturnsEvents:  []string{"E09"},
		PaymentMethods: []string{"BOLETO"},
	}
}

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := NewSQLite(filepath.Join(t.TempDir(), "snapshot.db"), testTaxonomy())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func ts(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedCustomer(t *testing.T, r *SQLiteRepository, code string) {
	t.Helper()
	require.NoError(t, r.SaveCustomer(context.Background(), model.Customer{
		Code: code, Name: "Cliente " + code, CreditLimit: 10000,
	}))
}

func TestSQLiteCustomerRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	registered := ts(2020, time.March, 5)
	require.NoError(t, r.SaveCustomer(ctx, model.Customer{
		Code: "C100", Name: "Comercial Norte", CreditLimit: 15000, RegisteredAt: &registered,
	}))

	c, err := r.Customer(ctx, "C100")
	require.NoError(t, err)
	assert.Equal(t, "Comercial Norte", c.Name)
	assert.Equal(t, 15000.0, c.CreditLimit)
	require.NotNil(t, c.RegisteredAt)
	assert.Equal(t, registered, c.RegisteredAt.UTC())
}

func TestSQLiteUnknownCustomer(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Customer(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCustomer)
}

func TestSQLiteEventsApplyTaxonomyAndCancellation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, r, "C100")

	require.NoError(t, r.SaveEvents(ctx, []model.RawEvent{
		{CustomerCode: "C100", EventCode: "S01", Operation: model.OperationSale, Timestamp: ts(2024, time.May, 10), FinalAmount: 100, Quantity: 1, Brand: "ALFA"},
		{CustomerCode: "C100", EventCode: "S99", Operation: model.OperationSale, Timestamp: ts(2024, time.May, 11), FinalAmount: 999, Quantity: 1}, // outside taxonomy
		{CustomerCode: "C100", EventCode: "S02", Operation: model.OperationSale, Cancelled: true, Timestamp: ts(2024, time.May, 12), FinalAmount: 999, Quantity: 1},
		{CustomerCode: "C100", EventCode: "E09", Operation: model.OperationReturn, Timestamp: ts(2024, time.May, 20), FinalAmount: 30, Quantity: 1, Brand: "ALFA"},
	}))

	sales, err := r.SaleEvents(ctx, "C100", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "S01", sales[0].EventCode)
	assert.Equal(t, 100.0, sales[0].FinalAmount)
	assert.Equal(t, ts(2024, time.May, 10), sales[0].Timestamp)

	returns, err := r.ReturnEvents(ctx, "C100", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, "E09", returns[0].EventCode)
}

func TestSQLiteEventsWindowBounds(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, r, "C100")

	require.NoError(t, r.SaveEvents(ctx, []model.RawEvent{
		{CustomerCode: "C100", EventCode: "S01", Operation: model.OperationSale, Timestamp: ts(2024, time.January, 1), FinalAmount: 1, Quantity: 1},
		{CustomerCode: "C100", EventCode: "S01", Operation: model.OperationSale, Timestamp: ts(2024, time.June, 1), FinalAmount: 2, Quantity: 1},
		{CustomerCode: "C100", EventCode: "S01", Operation: model.OperationSale, Timestamp: ts(2024, time.December, 1), FinalAmount: 3, Quantity: 1},
	}))

	sales, err := r.SaleEvents(ctx, "C100", ts(2024, time.March, 1), ts(2024, time.September, 1))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 2.0, sales[0].FinalAmount)

	// Zero bounds leave the window open.
	sales, err = r.SaleEvents(ctx, "C100", time.Time{}, ts(2024, time.September, 1))
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}

func TestSQLiteUnparseableTimestampIsZero(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, r, "C100")

	require.NoError(t, r.SaveEvents(ctx, []model.RawEvent{
		{CustomerCode: "C100", EventCode: "S01", Operation: model.OperationSale, FinalAmount: 10, Quantity: 1},
	}))

	sales, err := r.SaleEvents(ctx, "C100", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].Timestamp.IsZero())
}

func TestSQLiteHasSalesAndActiveCustomers(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, r, "C100")
	seedCustomer(t, r, "C200")

	require.NoError(t, r.SaveEvents(ctx, []model.RawEvent{
		{CustomerCode: "C100", EventCode: "S01", Operation: model.OperationSale, Timestamp: ts(2024, time.May, 10), FinalAmount: 100, Quantity: 1},
		// C200 only has a return; that does not make it active.
		{CustomerCode: "C200", EventCode: "E09", Operation: model.OperationReturn, Timestamp: ts(2024, time.May, 10), FinalAmount: 100, Quantity: 1},
	}))

	has, err := r.HasSales(ctx, "C100")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = r.HasSales(ctx, "C200")
	require.NoError(t, err)
	assert.False(t, has)

	codes, err := r.ActiveCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C100"}, codes)
}

func TestSQLiteInstallmentsFilterByMethod(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, r, "C100")

	due := ts(2024, time.June, 3)
	paid := ts(2024, time.June, 3)
	require.NoError(t, r.SaveInstallments(ctx, []model.PaymentInstallment{
		{CustomerCode: "C100", Number: 1, Version: 1, DueDate: due, PaidDate: &paid, Amount: 500, MethodLabel: "BOLETO"},
		{CustomerCode: "C100", Number: 2, Version: 1, DueDate: due, Amount: 300, MethodLabel: "PIX"},
	}))

	installments, err := r.Installments(ctx, "C100")
	require.NoError(t, err)
	require.Len(t, installments, 1)

	inst := installments[0]
	assert.Equal(t, 1, inst.Number)
	assert.Equal(t, due, inst.DueDate)
	require.NotNil(t, inst.PaidDate)
	assert.Equal(t, paid, inst.PaidDate.UTC())
	assert.Equal(t, 500.0, inst.Amount)
}

func TestSQLiteInstallmentsIncludeAllVersions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCustomer(t, r, "C100")

	due := ts(2024, time.June, 3)
	require.NoError(t, r.SaveInstallments(ctx, []model.PaymentInstallment{
		{CustomerCode: "C100", Number: 1, Version: 1, DueDate: due, Amount: 500, MethodLabel: "BOLETO"},
		{CustomerCode: "C100", Number: 1, Version: 2, DueDate: due, Amount: 500, MethodLabel: "BOLETO"},
	}))

	// Both revisions come back; deduplication is the metrics layer's job.
	installments, err := r.Installments(ctx, "C100")
	require.NoError(t, err)
	assert.Len(t, installments, 2)
}
