package metrics

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/vitrine-group/insight-cli/internal/calendar"
	"github.com/vitrine-group/insight-cli/internal/model"
)

// ClassifyInstallments builds the payment-timeliness profile for one
// customer. Installments are deduplicated by number (highest version wins)
// and their due dates are moved forward to the next business day before any
// comparison. Lateness percentages are over paid installments; the
// paid/not-yet-due/overdue split is over all installments.
func ClassifyInstallments(installments []model.PaymentInstallment, asOf time.Time) model.PaymentProfile {
	var p model.PaymentProfile

	deduped := model.DedupeInstallments(installments)
	p.Total = len(deduped)
	if p.Total == 0 {
		return p
	}

	var maxDelinquency float64
	for _, inst := range deduped {
		var adjustedDue time.Time
		if !inst.DueDate.IsZero() {
			adjustedDue = calendar.AdjustForward(inst.DueDate)
		}

		switch {
		case inst.Paid():
			p.Paid++
			if adjustedDue.IsZero() {
				// Paid but with an unparseable due date: counts toward the
				// paid total, lands in no lateness bucket.
				continue
			}
			deltaDays := inst.PaidDate.Sub(adjustedDue).Hours() / 24
			switch {
			case deltaDays <= 0:
				p.PaidOnTime++
			case deltaDays <= 7:
				p.Paid1To7Late++
			case deltaDays <= 15:
				p.Paid8To15Late++
			case deltaDays <= 30:
				p.Paid16To30++
			default:
				p.Paid31Plus++
			}

		case adjustedDue.IsZero():
			// Unpaid with no usable due date: neither overdue nor pending.

		case !adjustedDue.Before(asOf):
			p.NotYetDue++
			p.NotYetDueAmount += inst.Amount

		default:
			p.Overdue++
			p.OverdueAmount += inst.Amount
			if days := asOf.Sub(adjustedDue).Hours() / 24; days > maxDelinquency {
				maxDelinquency = days
			}
		}
	}

	p.IsDelinquent = p.Overdue > 0
	p.MaxDelinquencyDays = int(maxDelinquency)
	p.OverdueAmount = round2(p.OverdueAmount)
	p.NotYetDueAmount = round2(p.NotYetDueAmount)

	total := float64(p.Total)
	p.PaidPct = pct(p.Paid, total)
	p.NotYetDuePct = pct(p.NotYetDue, total)
	p.OverduePct = pct(p.Overdue, total)

	if p.Paid > 0 {
		paid := float64(p.Paid)
		p.PaidOnTimePct = pct(p.PaidOnTime, paid)
		p.Paid1To7LatePct = pct(p.Paid1To7Late, paid)
		p.Paid8To15LatePct = pct(p.Paid8To15Late, paid)
		p.Paid16To30Pct = pct(p.Paid16To30, paid)
		p.Paid31PlusPct = pct(p.Paid31Plus, paid)
	}

	if p.Paid+p.NotYetDue+p.Overdue != p.Total {
		zap.L().Warn("metrics: installment status counts do not sum to total",
			zap.Int("total", p.Total),
			zap.Int("paid", p.Paid),
			zap.Int("not_yet_due", p.NotYetDue),
			zap.Int("overdue", p.Overdue),
		)
	}

	return p
}

func pct(n int, denom float64) float64 {
	return round2(float64(n) / denom * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
