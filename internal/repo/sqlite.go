package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vitrine-group/insight-cli/internal/config"
	"github.com/vitrine-group/insight-cli/internal/model"
)

// SQLiteRepository reads an ERP snapshot from a local SQLite file. Used for
// offline runs and tests; timestamps are stored as unix seconds, with NULL
// meaning the source value was unparseable.
type SQLiteRepository struct {
	db  *sql.DB
	tax config.TaxonomyConfig
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, tax config.TaxonomyConfig) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "repo: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "repo: exec %s", pragma)
		}
	}
	return &SQLiteRepository{db: db, tax: tax}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS customers (
	code          TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	credit_limit  REAL NOT NULL DEFAULT 0,
	registered_at INTEGER
);

CREATE TABLE IF NOT EXISTS movements (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_code TEXT NOT NULL,
	event_code    TEXT NOT NULL,
	operation     TEXT NOT NULL,
	cancelled     INTEGER NOT NULL DEFAULT 0,
	ts            INTEGER,
	quantity      INTEGER NOT NULL DEFAULT 0,
	final_amount  REAL NOT NULL DEFAULT 0,
	gross_price   REAL NOT NULL DEFAULT 0,
	total         REAL NOT NULL DEFAULT 0,
	amount        REAL NOT NULL DEFAULT 0,
	brand         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS installments (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_code TEXT NOT NULL,
	number        INTEGER NOT NULL,
	version       INTEGER NOT NULL DEFAULT 1,
	due_date      INTEGER,
	paid_date     INTEGER,
	amount        REAL NOT NULL DEFAULT 0,
	method        TEXT NOT NULL DEFAULT '',
	titled        INTEGER NOT NULL DEFAULT 1,
	superseded    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_movements_customer ON movements(customer_code, event_code);
CREATE INDEX IF NOT EXISTS idx_movements_ts ON movements(ts);
CREATE INDEX IF NOT EXISTS idx_installments_customer ON installments(customer_code, number);
`

// Migrate creates the snapshot schema.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "repo: migrate sqlite")
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// placeholders renders "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func unixOrNil(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Unix()
}

func (r *SQLiteRepository) Customer(ctx context.Context, code string) (*model.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT code, name, credit_limit, registered_at FROM customers WHERE code = ?`, code)

	var (
		c          model.Customer
		registered sql.NullInt64
	)
	if err := row.Scan(&c.Code, &c.Name, &c.CreditLimit, &registered); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrUnknownCustomer, "code %s", code)
		}
		return nil, eris.Wrapf(err, "repo: query customer %s", code)
	}
	if registered.Valid {
		t := time.Unix(registered.Int64, 0).UTC()
		c.RegisteredAt = &t
	}
	return &c, nil
}

func (r *SQLiteRepository) HasSales(ctx context.Context, code string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM movements
			WHERE customer_code = ? AND cancelled = 0 AND event_code IN (%s)
		)`, placeholders(len(r.tax.SalesEvents)))
	args := append([]any{code}, stringArgs(r.tax.SalesEvents)...)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "repo: sales existence check for %s", code)
	}
	return exists, nil
}

func (r *SQLiteRepository) ActiveCustomers(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT customer_code FROM movements
		WHERE cancelled = 0 AND event_code IN (%s)
		ORDER BY customer_code`, placeholders(len(r.tax.SalesEvents)))

	rows, err := r.db.QueryContext(ctx, query, stringArgs(r.tax.SalesEvents)...)
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
	return codes, eris.Wrap(rows.Err(), "repo: iterate active customers")
}

func (r *SQLiteRepository) SaleEvents(ctx context.Context, code string, from, to time.Time) ([]model.RawEvent, error) {
	return r.events(ctx, code, model.OperationSale, r.tax.SalesEvents, from, to)
}

func (r *SQLiteRepository) ReturnEvents(ctx context.Context, code string, from, to time.Time) ([]model.RawEvent, error) {
	return r.events(ctx, code, model.OperationReturn, r.tax.ReturnsEvents, from, to)
}

func (r *SQLiteRepository) events(ctx context.Context, code string, op model.OperationKind, taxonomy []string, from, to time.Time) ([]model.RawEvent, error) {
	query := fmt.Sprintf(`
		SELECT customer_code, event_code, operation, cancelled, ts, quantity,
		       final_amount, gross_price, total, amount, brand
		FROM movements
		WHERE customer_code = ? AND operation = ? AND cancelled = 0
		  AND event_code IN (%s)`, placeholders(len(taxonomy)))
	args := append([]any{code, string(op)}, stringArgs(taxonomy)...)

	if !from.IsZero() {
		query += " AND ts >= ?"
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		query += " AND ts <= ?"
		args = append(args, to.Unix())
	}
	query += " ORDER BY ts"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "repo: query %s events for %s", op, code)
	}
	defer rows.Close()

	var events []model.RawEvent
	for rows.Next() {
		var (
			ev        model.RawEvent
			opStr     string
			cancelled int
			ts        sql.NullInt64
		)
		err := rows.Scan(&ev.CustomerCode, &ev.EventCode, &opStr, &cancelled, &ts,
			&ev.Quantity, &ev.FinalAmount, &ev.GrossPrice, &ev.Total, &ev.Amount, &ev.Brand)
		if err != nil {
			return nil, eris.Wrap(err, "repo: scan event")
		}
		ev.Operation = model.OperationKind(opStr)
		ev.Cancelled = cancelled != 0
		if ts.Valid {
			ev.Timestamp = time.Unix(ts.Int64, 0).UTC()
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "repo: iterate events")
}

func (r *SQLiteRepository) Installments(ctx context.Context, code string) ([]model.PaymentInstallment, error) {
	query := fmt.Sprintf(`
		SELECT customer_code, number, version, due_date, paid_date, amount, method
		FROM installments
		WHERE customer_code = ? AND titled = 1 AND superseded = 0
		  AND method IN (%s)
		ORDER BY number, version`, placeholders(len(r.tax.PaymentMethods)))
	args := append([]any{code}, stringArgs(r.tax.PaymentMethods)...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "repo: query installments for %s", code)
	}
	defer rows.Close()

	var installments []model.PaymentInstallment
	for rows.Next() {
		var (
			inst model.PaymentInstallment
			due  sql.NullInt64
			paid sql.NullInt64
		)
		err := rows.Scan(&inst.CustomerCode, &inst.Number, &inst.Version, &due, &paid,
			&inst.Amount, &inst.MethodLabel)
		if err != nil {
			return nil, eris.Wrap(err, "repo: scan installment")
		}
		if due.Valid {
			inst.DueDate = time.Unix(due.Int64, 0).UTC()
		}
		if paid.Valid {
			t := time.Unix(paid.Int64, 0).UTC()
			inst.PaidDate = &t
		}
		installments = append(installments, inst)
	}
	return installments, eris.Wrap(rows.Err(), "repo: iterate installments")
}

// SaveCustomer upserts one customer identity row. Used by the import command
// and tests.
func (r *SQLiteRepository) SaveCustomer(ctx context.Context, c model.Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (code, name, credit_limit, registered_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			credit_limit = excluded.credit_limit,
			registered_at = excluded.registered_at`,
		c.Code, c.Name, c.CreditLimit, unixOrNil(c.RegisteredAt))
	return eris.Wrapf(err, "repo: save customer %s", c.Code)
}

// SaveEvents inserts movement rows.
func (r *SQLiteRepository) SaveEvents(ctx context.Context, events []model.RawEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "repo: begin event insert")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, ev := range events {
		var ts any
		if !ev.Timestamp.IsZero() {
			ts = ev.Timestamp.Unix()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO movements
				(customer_code, event_code, operation, cancelled, ts, quantity,
				 final_amount, gross_price, total, amount, brand)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.CustomerCode, ev.EventCode, string(ev.Operation), ev.Cancelled, ts,
			ev.Quantity, ev.FinalAmount, ev.GrossPrice, ev.Total, ev.Amount, ev.Brand)
		if err != nil {
			return eris.Wrap(err, "repo: insert movement")
		}
	}
	return eris.Wrap(tx.Commit(), "repo: commit events")
}

// SaveInstallments inserts installment rows.
func (r *SQLiteRepository) SaveInstallments(ctx context.Context, installments []model.PaymentInstallment) error {
	if len(installments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "repo: begin installment insert")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, inst := range installments {
		var due any
		if !inst.DueDate.IsZero() {
			due = inst.DueDate.Unix()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO installments
				(customer_code, number, version, due_date, paid_date, amount, method)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			inst.CustomerCode, inst.Number, inst.Version, due, unixOrNil(inst.PaidDate),
			inst.Amount, inst.MethodLabel)
		if err != nil {
			return eris.Wrap(err, "repo: insert installment")
		}
	}
	return eris.Wrap(tx.Commit(), "repo: commit installments")
}
