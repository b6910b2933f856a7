package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vitrine-group/insight-cli/internal/model"
)

func TestPurchaseCyclesBucketsByMonth(t *testing.T) {
	asOf := day(2024, time.July, 15)
	sales := []model.RawEvent{
		sale(day(2024, time.January, 5), 100, 1),
		sale(day(2024, time.January, 20), 100, 1), // same month, same cycle
		sale(day(2024, time.March, 2), 100, 1),
		sale(day(2024, time.June, 30), 100, 1),
	}

	c := PurchaseCycles(sales, asOf)
	assert.Equal(t, 3, c.Cycles)
	assert.Equal(t, []string{"2024-01", "2024-03", "2024-06"}, c.Months)
	assert.False(t, c.CurrentActive)
}

func TestPurchaseCyclesCurrentMonthExcluded(t *testing.T) {
	asOf := day(2024, time.July, 15)
	sales := []model.RawEvent{
		sale(day(2024, time.July, 1), 100, 1),
		sale(day(2024, time.July, 14), 100, 1),
	}

	c := PurchaseCycles(sales, asOf)
	assert.Equal(t, 0, c.Cycles)
	assert.True(t, c.CurrentActive)
}

func TestPurchaseCyclesWindowLowerBound(t *testing.T) {
	asOf := day(2024, time.July, 15)
	sales := []model.RawEvent{
		sale(day(2024, time.January, 1), 100, 1),    // first instant of the window
		sale(day(2023, time.December, 31), 100, 1), // one day before it
		sale(time.Time{}, 100, 1),
	}

	c := PurchaseCycles(sales, asOf)
	assert.Equal(t, 1, c.Cycles)
	assert.Equal(t, []string{"2024-01"}, c.Months)
}

func TestPurchaseCyclesEmpty(t *testing.T) {
	c := PurchaseCycles(nil, day(2024, time.July, 15))
	assert.Equal(t, 0, c.Cycles)
	assert.Empty(t, c.Months)
	assert.False(t, c.CurrentActive)
}
