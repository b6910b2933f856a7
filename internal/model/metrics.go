package model

import (
	"sort"
	"time"
)

// RevenueSummary is the trailing-365-day revenue breakdown. Net is gross
// sales minus gross returns and is deliberately not floored at zero; scoring
// treats negative values as the lowest bucket.
type RevenueSummary struct {
	GrossSales   float64 `json:"gross_sales"`
	GrossReturns float64 `json:"gross_returns"`
	Net          float64 `json:"net"`
}

// CycleSummary counts distinct purchase months in the six calendar months
// preceding the current one. The current month is excluded from the count and
// tracked separately as CurrentActive.
type CycleSummary struct {
	Cycles        int      `json:"cycles"`
	Months        []string `json:"months"` // "YYYY-MM", sorted ascending
	CurrentActive bool     `json:"current_active"`
}

// VolumeSummary is the all-time piece count, netted the same way as revenue.
type VolumeSummary struct {
	Purchased int64 `json:"purchased"`
	Returned  int64 `json:"returned"`
	Net       int64 `json:"net"`
}

// PaymentProfile classifies a customer's titled installments by timeliness.
//
// The four lateness percentages use paid installments as denominator; the
// paid/not-yet-due/overdue percentages use all installments. Downstream
// scoring consumes the paid-denominator percentages, so the split is load
// bearing.
type PaymentProfile struct {
	Total     int `json:"total"`
	Paid      int `json:"paid"`
	NotYetDue int `json:"not_yet_due"`
	Overdue   int `json:"overdue"`

	PaidPct      float64 `json:"paid_pct"`
	NotYetDuePct float64 `json:"not_yet_due_pct"`
	OverduePct   float64 `json:"overdue_pct"`

	PaidOnTime    int `json:"paid_on_time"`
	Paid1To7Late  int `json:"paid_1_7d_late"`
	Paid8To15Late int `json:"paid_8_15d_late"`
	Paid16To30    int `json:"paid_16_30d_late"`
	Paid31Plus    int `json:"paid_31d_plus_late"`

	PaidOnTimePct    float64 `json:"paid_on_time_pct"`
	Paid1To7LatePct  float64 `json:"paid_1_7d_late_pct"`
	Paid8To15LatePct float64 `json:"paid_8_15d_late_pct"`
	Paid16To30Pct    float64 `json:"paid_16_30d_late_pct"`
	Paid31PlusPct    float64 `json:"paid_31d_plus_late_pct"`

	IsDelinquent       bool    `json:"is_delinquent"`
	MaxDelinquencyDays int     `json:"max_delinquency_days"`
	OverdueAmount      float64 `json:"overdue_amount"`
	NotYetDueAmount    float64 `json:"not_yet_due_amount"`
}

// BrandValue is one entry of the brand breakdown when exposed externally.
type BrandValue struct {
	Brand string  `json:"brand"`
	Net   float64 `json:"net"`
}

// CustomerMetrics is the full derived KPI set for one customer at one
// evaluation time. Recomputed fresh on every invocation; never persisted by
// the engine itself.
type CustomerMetrics struct {
	CustomerCode string    `json:"customer_code"`
	AsOf         time.Time `json:"as_of"`

	Revenue RevenueSummary `json:"revenue_12m"`
	Cycles  CycleSummary   `json:"purchase_cycles_6m"`
	Volume  VolumeSummary  `json:"piece_volume"`
	Payment PaymentProfile `json:"payment_profile"`

	// BrandNet maps brand label to net amount (sales minus returns).
	// Insertion order is irrelevant; SortedBrands gives the external view.
	BrandNet   map[string]float64 `json:"brand_net"`
	BrandCount int                `json:"brand_count"`

	FirstPurchase *time.Time `json:"first_purchase,omitempty"`
	LastPurchase  *time.Time `json:"last_purchase,omitempty"`
}

// SortedBrands returns the brand breakdown descending by net amount, ties
// broken by label so the order is deterministic.
func (m *CustomerMetrics) SortedBrands() []BrandValue {
	out := make([]BrandValue, 0, len(m.BrandNet))
	for brand, net := range m.BrandNet {
		out = append(out, BrandValue{Brand: brand, Net: net})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Net != out[j].Net {
			return out[i].Net > out[j].Net
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}
