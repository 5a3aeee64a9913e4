package pricing

import (
	"github.com/hartawan/tambak-contracts/internal/model"
)

// Classifier decides whether a size falls inside a rule's range label. The
// engine treats labels as opaque; the label convention lives with the caller.
type Classifier func(rangeLabel string, size float64) bool

// WeightFn converts a size to the weight in kg of one size unit, used to
// normalize Rp/kg rules. The engine knows no size-to-weight tables.
type WeightFn func(size float64) float64

// RuleSet applies an ordered list of penalty rules on top of a resolved base
// price. Every matching rule contributes; matching never stops at the first
// hit.
type RuleSet struct {
	rules    []model.PenaltyRule
	classify Classifier
	weight   WeightFn
}

func NewRuleSet(rules []model.PenaltyRule, classify Classifier, weight WeightFn) *RuleSet {
	return &RuleSet{rules: rules, classify: classify, weight: weight}
}

// Apply returns the base price adjusted by the sum of all matching rule
// deltas, floored at zero. Rules with an unrecognized unit fail with
// UnsupportedUnitError.
func (r *RuleSet) Apply(basePrice, size float64) (float64, error) {
	adjusted := basePrice
	for _, rule := range r.rules {
		if r.classify == nil || !r.classify(rule.Range, size) {
			continue
		}
		switch rule.Unit {
		case model.PenaltyUnitPerSize, model.PenaltyUnitPerSizeAlt:
			adjusted += rule.Amount
		case model.PenaltyUnitPerKg:
			factor := 1.0
			if r.weight != nil {
				factor = r.weight(size)
			}
			adjusted += rule.Amount * factor
		default:
			return 0, &UnsupportedUnitError{Unit: string(rule.Unit)}
		}
	}
	if adjusted < 0 {
		return 0, nil
	}
	return adjusted, nil
}
