package metrics

import (
	"time"

	"github.com/vitrine-group/insight-cli/internal/model"
)

// revenueWindowDays is the trailing revenue window.
const revenueWindowDays = 365

// NetRevenue sums qualifying sale values minus qualifying return values over
// the trailing 365 days ending at asOf. The net is not floored at zero;
// scoring maps negatives to its lowest bucket.
func NetRevenue(sales, returns []model.RawEvent, asOf time.Time) model.RevenueSummary {
	from := asOf.AddDate(0, 0, -revenueWindowDays)

	var s model.RevenueSummary
	for _, ev := range sales {
		if inWindow(ev.Timestamp, from, asOf) {
			s.GrossSales += ev.Value()
		}
	}
	for _, ev := range returns {
		if inWindow(ev.Timestamp, from, asOf) {
			s.GrossReturns += ev.Value()
		}
	}
	s.Net = s.GrossSales - s.GrossReturns
	return s
}

// inWindow reports whether ts lies in [from, to]. Zero timestamps mark
// records whose date could not be parsed; they contribute nothing.
func inWindow(ts, from, to time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !ts.Before(from) && !ts.After(to)
}

// PieceVolume nets sale quantities against return quantities over all time.
func PieceVolume(sales, returns []model.RawEvent) model.VolumeSummary {
	var v model.VolumeSummary
	for _, ev := range sales {
		v.Purchased += ev.Quantity
	}
	for _, ev := range returns {
		v.Returned += ev.Quantity
	}
	v.Net = v.Purchased - v.Returned
	return v
}
