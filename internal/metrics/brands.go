package metrics

import (
	"math"

	"github.com/vitrine-group/insight-cli/internal/model"
)

// BrandBreakdown nets sale values against return values per brand over all
// time. Absent brand labels collapse into the model.BrandUnspecified
// sentinel. Values are rounded to centavos; ordering is the consumer's job.
func BrandBreakdown(sales, returns []model.RawEvent) map[string]float64 {
	net := make(map[string]float64)
	for _, ev := range sales {
		net[model.NormalizeBrand(ev.Brand)] += ev.Value()
	}
	for _, ev := range returns {
		brand := model.NormalizeBrand(ev.Brand)
		// Returns for a brand never purchased stay out of the map; they
		// would otherwise manufacture a negative-only brand entry.
		if _, ok := net[brand]; ok {
			net[brand] -= ev.Value()
		}
	}
	for brand, v := range net {
		net[brand] = math.Round(v*100) / 100
	}
	return net
}
