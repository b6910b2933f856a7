package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/vitrine-group/insight-cli/internal/model"
)

// PurchaseCycles buckets qualifying sales by calendar month over the six
// months preceding the month of asOf. The current month never counts toward
// the cycle total; a sale at or after the first of the current month only
// sets CurrentActive.
func PurchaseCycles(sales []model.RawEvent, asOf time.Time) model.CycleSummary {
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	windowStart := monthStart.AddDate(0, -6, 0)

	months := make(map[string]struct{})
	var current bool
	for _, ev := range sales {
		ts := ev.Timestamp
		if ts.IsZero() {
			continue
		}
		if !ts.Before(monthStart) {
			current = true
			continue
		}
		if ts.Before(windowStart) {
			continue
		}
		months[fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month()))] = struct{}{}
	}

	list := make([]string, 0, len(months))
	for m := range months {
		list = append(list, m)
	}
	sort.Strings(list)

	return model.CycleSummary{
		Cycles:        len(months),
		Months:        list,
		CurrentActive: current,
	}
}
