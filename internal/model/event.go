// Package model defines the typed records flowing through the insight engine:
// raw ERP events, receivable installments, derived customer metrics, and
// classification results.
package model

import "time"

// OperationKind distinguishes outbound sales from inbound returns.
type OperationKind string

const (
	OperationSale   OperationKind = "S"
	OperationReturn OperationKind = "E"
)

// RawEvent is one transactional movement as replicated from the ERP. Events
// are immutable inputs; the engine never mutates them.
//
// The ERP carries up to four monetary fields per movement, populated
// inconsistently across event types. Value resolves them with a single
// ordered preference so every consumer reads the same number.
type RawEvent struct {
	CustomerCode string        `json:"customer_code"`
	EventCode    string        `json:"event_code"`
	Operation    OperationKind `json:"operation"`
	Cancelled    bool          `json:"cancelled"`
	// Timestamp is zero when the source value could not be parsed; such
	// events are skipped by window-sensitive computations.
	Timestamp time.Time `json:"timestamp"`
	Quantity  int64     `json:"quantity"`

	FinalAmount float64 `json:"final_amount"`
	GrossPrice  float64 `json:"gross_price"`
	Total       float64 `json:"total"`
	Amount      float64 `json:"amount"`

	// Brand is empty when the ERP carries no label; consumers normalize
	// it through NormalizeBrand.
	Brand string `json:"brand,omitempty"`
}

// Value returns the monetary amount of the event, preferring the
// post-discount final amount, then gross price, then total, then the generic
// amount field. First non-zero wins.
func (e RawEvent) Value() float64 {
	for _, v := range []float64{e.FinalAmount, e.GrossPrice, e.Total, e.Amount} {
		if v != 0 {
			return v
		}
	}
	return 0
}

// BrandUnspecified is the sentinel label for events whose brand field is
// null, empty, or the literal string "null" in the source data.
const BrandUnspecified = "UNSPECIFIED"

// NormalizeBrand maps absent or junk brand labels to the sentinel.
func NormalizeBrand(brand string) string {
	if brand == "" || brand == "null" {
		return BrandUnspecified
	}
	return brand
}
