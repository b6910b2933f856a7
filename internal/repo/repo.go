// Package repo supplies filtered ERP event records to the insight engine.
// Implementations exist for Postgres (production replica) and SQLite (local
// snapshots); the engine only sees the Repository interface.
package repo

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vitrine-group/insight-cli/internal/model"
)

// ErrUnknownCustomer is returned when a customer code has no identity record.
// Absence of transactions for a known customer is not an error.
var ErrUnknownCustomer = eris.New("repo: unknown customer")

// Repository is the query contract the engine consumes. All event-returning
// methods apply the configured taxonomy and cancellation filters, so callers
// receive qualifying events only. A zero from/to leaves that bound open.
type Repository interface {
	// Customer returns the identity record, or ErrUnknownCustomer.
	Customer(ctx context.Context, code string) (*model.Customer, error)

	// HasSales is the cheap existence check used to exclude inactive
	// customers before any metric extraction.
	HasSales(ctx context.Context, code string) (bool, error)

	// ActiveCustomers lists the codes of all customers with at least one
	// qualifying sale event.
	ActiveCustomers(ctx context.Context) ([]string, error)

	// SaleEvents returns qualifying sale events for the customer within
	// [from, to].
	SaleEvents(ctx context.Context, code string, from, to time.Time) ([]model.RawEvent, error)

	// ReturnEvents returns qualifying return events for the customer
	// within [from, to].
	ReturnEvents(ctx context.Context, code string, from, to time.Time) ([]model.RawEvent, error)

	// Installments returns all titled boleto installments for the
	// customer, every revision included; callers deduplicate by version.
	Installments(ctx context.Context, code string) ([]model.PaymentInstallment, error)

	Close() error
}
