package model

import "time"

// Tier is one of the four ordered loyalty categories.
type Tier string

const (
	TierDiamante Tier = "Diamante"
	TierOuro     Tier = "Ouro"
	TierPrata    Tier = "Prata"
	TierBronze   Tier = "Bronze"
)

// CriterionScore is the auditable breakdown for one scoring criterion.
type CriterionScore struct {
	Value    float64 `json:"value"`
	Score    int     `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// ClassificationResult is the outcome of scoring one customer's metrics.
// Score is the weighted composite in [0,10], rounded to 2 decimals.
//
// When classification degrades (malformed config), Score is 0, Tier is
// Bronze, and Err records why.
type ClassificationResult struct {
	Score    float64                   `json:"score"`
	Tier     Tier                      `json:"tier"`
	Criteria map[string]CriterionScore `json:"criteria,omitempty"`
	Err      string                    `json:"error,omitempty"`
}

// Customer is the identity record supplied by the repository.
type Customer struct {
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	CreditLimit  float64    `json:"credit_limit"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// CustomerProfile is the per-customer output record: identity, derived
// metrics, and (optionally) the embedded classification. Flat enough to
// round-trip through any structured encoding.
type CustomerProfile struct {
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	RegisteredAt    *time.Time `json:"registered_at,omitempty"`
	CreditLimit     float64    `json:"credit_limit"`
	CreditLimitUsed float64    `json:"credit_limit_used"`

	Metrics        CustomerMetrics       `json:"metrics"`
	Classification *ClassificationResult `json:"classification,omitempty"`
}
