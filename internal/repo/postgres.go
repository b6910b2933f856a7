package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vitrine-group/insight-cli/internal/config"
	"github.com/vitrine-group/insight-cli/internal/db"
	"github.com/vitrine-group/insight-cli/internal/model"
)

// PostgresRepository reads the replicated ERP tables (erp.customers,
// erp.movements, erp.installments) through a pgx pool.
type PostgresRepository struct {
	pool db.Pool
	tax  config.TaxonomyConfig
}

// NewPostgres creates a PostgresRepository with a connection pool.
func NewPostgres(ctx context.Context, connString string, tax config.TaxonomyConfig) (*PostgresRepository, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "repo: parse postgres config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "repo: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "repo: ping postgres")
	}

	return &PostgresRepository{pool: pool, tax: tax}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool db.Pool, tax config.TaxonomyConfig) *PostgresRepository {
	return &PostgresRepository{pool: pool, tax: tax}
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Customer(ctx context.Context, code string) (*model.Customer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT code, COALESCE(name, ''), COALESCE(credit_limit, 0), registered_at
		FROM erp.customers
		WHERE code = $1`, code)

	var c model.Customer
	if err := row.Scan(&c.Code, &c.Name, &c.CreditLimit, &c.RegisteredAt); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrUnknownCustomer, "code %s", code)
		}
		return nil, eris.Wrapf(err, "repo: query customer %s", code)
	}
	return &c, nil
}

func (r *PostgresRepository) HasSales(ctx context.Context, code string) (bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM erp.movements
			WHERE customer_code = $1
			  AND event_code = ANY($2)
			  AND NOT cancelled
		)`, code, r.tax.SalesEvents)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "repo: sales existence check for %s", code)
	}
	return exists, nil
}

func (r *PostgresRepository) ActiveCustomers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT customer_code
		FROM erp.movements
		WHERE event_code = ANY($1) AND NOT cancelled
		ORDER BY customer_code`, r.tax.SalesEvents)
	if err != nil {
		return nil, eris.Wrap(err, "repo: query active customers")
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, eris.Wrap(err, "repo: scan active customer")
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "repo: iterate active customers")
	}
	return codes, nil
}

func (r *PostgresRepository) SaleEvents(ctx context.Context, code string, from, to time.Time) ([]model.RawEvent, error) {
	return r.events(ctx, code, model.OperationSale, r.tax.SalesEvents, from, to)
}

func (r *PostgresRepository) ReturnEvents(ctx context.Context, code string, from, to time.Time) ([]model.RawEvent, error) {
	return r.events(ctx, code, model.OperationReturn, r.tax.ReturnsEvents, from, to)
}

func (r *PostgresRepository) events(ctx context.Context, code string, op model.OperationKind, taxonomy []string, from, to time.Time) ([]model.RawEvent, error) {
	query := `
		SELECT customer_code, event_code, operation, cancelled, ts, quantity,
		       COALESCE(final_amount, 0), COALESCE(gross_price, 0),
		       COALESCE(total, 0), COALESCE(amount, 0), COALESCE(brand, '')
		FROM erp.movements
		WHERE customer_code = $1
		  AND operation = $2
		  AND event_code = ANY($3)
		  AND NOT cancelled`
	args := []any{code, string(op), taxonomy}

	if !from.IsZero() {
		args = append(args, from)
		query += " AND ts >= $4"
	}
	if !to.IsZero() {
		args = append(args, to)
		if from.IsZero() {
			query += " AND ts <= $4"
		} else {
			query += " AND ts <= $5"
		}
	}
	query += " ORDER BY ts"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "repo: query %s events for %s", op, code)
	}
	defer rows.Close()

	var events []model.RawEvent
	for rows.Next() {
		var (
			ev model.RawEvent
			op string
			ts *time.Time
		)
		err := rows.Scan(&ev.CustomerCode, &ev.EventCode, &op, &ev.Cancelled, &ts,
			&ev.Quantity, &ev.FinalAmount, &ev.GrossPrice, &ev.Total, &ev.Amount, &ev.Brand)
		if err != nil {
			return nil, eris.Wrap(err, "repo: scan event")
		}
		ev.Operation = model.OperationKind(op)
		if ts != nil {
			ev.Timestamp = *ts
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "repo: iterate events")
	}
	return events, nil
}

func (r *PostgresRepository) Installments(ctx context.Context, code string) ([]model.PaymentInstallment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT customer_code, number, version, due_date, paid_date,
		       COALESCE(amount, 0), COALESCE(method, '')
		FROM erp.installments
		WHERE customer_code = $1
		  AND titled
		  AND NOT superseded
		  AND method = ANY($2)
		ORDER BY number, version`, code, r.tax.PaymentMethods)
	if err != nil {
		return nil, eris.Wrapf(err, "repo: query installments for %s", code)
	}
	defer rows.Close()

	var installments []model.PaymentInstallment
	for rows.Next() {
		var (
			inst model.PaymentInstallment
			due  *time.Time
		)
		err := rows.Scan(&inst.CustomerCode, &inst.Number, &inst.Version, &due,
			&inst.PaidDate, &inst.Amount, &inst.MethodLabel)
		if err != nil {
			return nil, eris.Wrap(err, "repo: scan installment")
		}
		if due != nil {
			inst.DueDate = *due
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "repo: iterate installments")
	}
	return installments, nil
}
