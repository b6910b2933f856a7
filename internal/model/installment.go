package model

import (
	"sort"
	"time"
)

// PaymentInstallment is one titled receivable installment. Only boleto-like
// payment methods are in scope; the repository applies that filter.
//
// The ERP re-emits an installment row on every contract revision, so the same
// installment number can appear under several versions. Only the highest
// version is authoritative.
type PaymentInstallment struct {
	CustomerCode string     `json:"customer_code"`
	Number       int        `json:"number"`
	Version      int        `json:"version"`
	DueDate      time.Time  `json:"due_date"`
	PaidDate     *time.Time `json:"paid_date,omitempty"`
	Amount       float64    `json:"amount"`
	MethodLabel  string     `json:"method_label"`
}

// Paid reports whether the installment has been settled.
func (p PaymentInstallment) Paid() bool {
	return p.PaidDate != nil && !p.PaidDate.IsZero()
}

// DedupeInstallments keeps, for each installment number, the row with the
// highest version. Output is ordered by installment number.
func DedupeInstallments(installments []PaymentInstallment) []PaymentInstallment {
	latest := make(map[int]PaymentInstallment, len(installments))
	for _, inst := range installments {
		cur, ok := latest[inst.Number]
		if !ok || inst.Version > cur.Version {
			latest[inst.Number] = inst
		}
	}

	out := make([]PaymentInstallment, 0, len(latest))
	for _, inst := range latest {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
