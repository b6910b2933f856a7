// Package scoring turns customer metrics into a weighted composite score and
// a loyalty tier. The engine is pure: all parameters come in through
// config.ScoringConfig and the same metrics always produce the same result.
package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"math"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/vitrine-group/insight-cli/internal/config"
	"github.com/vitrine-group/insight-cli/internal/model"
)

// ErrConfiguration marks a scoring configuration the engine refuses to run
// with. Callers classify the customer as degraded rather than aborting the
// batch.
var ErrConfiguration = eris.New("scoring: invalid configuration")

// Criterion names used as keys of ClassificationResult.Criteria.
const (
	CriterionRevenue         = "revenue"
	CriterionFrequency       = "frequency"
	CriterionPunctuality     = "punctuality"
	CriterionVolume          = "volume"
	CriterionDiversification = "diversification"
)

// Engine scores customer metrics against one fixed configuration.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine validates cfg and returns an engine bound to it.
func NewEngine(cfg config.ScoringConfig) (*Engine, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Validate checks that the configuration is runnable: non-negative weights,
// strictly descending breakpoint ladders, and descending tier thresholds.
// It reports every violation, wrapped in ErrConfiguration.
func Validate(cfg config.ScoringConfig) error {
	var problems []string

	w := cfg.Weights
	for _, wv := range []struct {
		name  string
		value float64
	}{
		{CriterionRevenue, w.Revenue},
		{CriterionFrequency, w.Frequency},
		{CriterionPunctuality, w.Punctuality},
		{CriterionVolume, w.Volume},
		{CriterionDiversification, w.Diversification},
	} {
		if wv.value < 0 {
			problems = append(problems, "negative weight for "+wv.name)
		}
	}

	for _, bp := range []struct {
		name   string
		ladder config.Breakpoints
	}{
		{CriterionRevenue, cfg.Revenue},
		{CriterionVolume, cfg.Volume},
		{CriterionPunctuality, cfg.Punctuality},
	} {
		l := bp.ladder
		if !(l.Score10 > l.Score8 && l.Score8 > l.Score6 && l.Score6 > l.Score4) {
			problems = append(problems, "breakpoints for "+bp.name+" are not strictly descending")
		}
	}

	t := cfg.Tiers
	if !(t.Diamante > t.Ouro && t.Ouro > t.Prata && t.Prata >= t.Bronze) {
		problems = append(problems, "tier thresholds are not descending")
	}

	b := cfg.Brands
	if b.FullMarks <= b.Range8.Max || b.Range8.Min <= b.Range6.Max || b.Range6.Min <= b.Exact4 {
		problems = append(problems, "brand ladder ranges overlap or are out of order")
	}

	if len(problems) == 0 {
		return nil
	}
	err := ErrConfiguration
	for _, p := range problems {
		err = eris.Wrap(err, p)
	}
	return err
}

// Score classifies one customer's metrics. The composite is the weighted sum
// of the five criterion scores, rounded to two decimals.
func (e *Engine) Score(m *model.CustomerMetrics) model.ClassificationResult {
	// Payments up to seven days late count as punctual.
	punctual := m.Payment.PaidOnTimePct + m.Payment.Paid1To7LatePct

	criteria := map[string]model.CriterionScore{
		CriterionRevenue:         criterion(m.Revenue.Net, scoreLadder(m.Revenue.Net, e.cfg.Revenue), e.cfg.Weights.Revenue),
		CriterionFrequency:       criterion(float64(m.Cycles.Cycles), scoreFrequency(m.Cycles.Cycles), e.cfg.Weights.Frequency),
		CriterionPunctuality:     criterion(punctual, scoreLadder(punctual, e.cfg.Punctuality), e.cfg.Weights.Punctuality),
		CriterionVolume:          criterion(float64(m.Volume.Net), scoreLadder(float64(m.Volume.Net), e.cfg.Volume), e.cfg.Weights.Volume),
		CriterionDiversification: criterion(float64(m.BrandCount), scoreBrands(m.BrandCount, e.cfg.Brands), e.cfg.Weights.Diversification),
	}

	// The composite sums the unrounded products; only the end result and
	// the per-criterion breakdown are rounded.
	var composite float64
	for _, c := range criteria {
		composite += float64(c.Score) * c.Weight
	}
	composite = math.Round(composite*100) / 100

	return model.ClassificationResult{
		Score:    composite,
		Tier:     e.Tier(composite),
		Criteria: criteria,
	}
}

// Tier maps a composite score to its loyalty category. Thresholds are
// compared descending with >=; everything below Prata is Bronze, including
// scores under the Bronze threshold itself.
func (e *Engine) Tier(score float64) model.Tier {
	t := e.cfg.Tiers
	switch {
	case score >= t.Diamante:
		return model.TierDiamante
	case score >= t.Ouro:
		return model.TierOuro
	case score >= t.Prata:
		return model.TierPrata
	default:
		return model.TierBronze
	}
}

// ConfigHash is a stable fingerprint of the scoring parameters, stored next
// to each persisted result so runs remain comparable.
func (e *Engine) ConfigHash() string {
	raw, err := yaml.Marshal(e.cfg)
	if err != nil {
		// Marshalling a plain struct of numbers cannot fail.
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func criterion(value float64, score int, weight float64) model.CriterionScore {
	return model.CriterionScore{
		Value:    value,
		Score:    score,
		Weight:   weight,
		Weighted: math.Round(float64(score)*weight*100) / 100,
	}
}

// scoreLadder maps a value onto a descending 10/8/6/4 ladder, scoring 2
// below the lowest rung. Negative values land on 2 as well.
func scoreLadder(value float64, bp config.Breakpoints) int {
	switch {
	case value >= bp.Score10:
		return 10
	case value >= bp.Score8:
		return 8
	case value >= bp.Score6:
		return 6
	case value >= bp.Score4:
		return 4
	default:
		return 2
	}
}

// scoreFrequency maps the count of distinct purchase months in the six-month
// window. The mapping is discrete by construction; cycles can only be 0..6.
func scoreFrequency(cycles int) int {
	switch {
	case cycles >= 6:
		return 10
	case cycles == 5:
		return 8
	case cycles == 4:
		return 6
	case cycles >= 2:
		return 4
	case cycles == 1:
		return 2
	default:
		return 0
	}
}

func scoreBrands(count int, b config.BrandsLadder) int {
	switch {
	case count >= b.FullMarks:
		return 10
	case count >= b.Range8.Min && count <= b.Range8.Max:
		return 8
	case count >= b.Range6.Min && count <= b.Range6.Max:
		return 6
	case count == b.Exact4:
		return 4
	default:
		return 0
	}
}
