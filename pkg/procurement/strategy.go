package procurement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StrategyKind tags the purchase strategy variant.
type StrategyKind string

const (
	StrategyCheapest StrategyKind = "cheapest"
	StrategyFastest  StrategyKind = "fastest"
	StrategyComplex  StrategyKind = "complex"
)

// Strategy is a department's purchase strategy in structured form.
//
// MarginPercent and MaxDeliveryDays are only meaningful for StrategyComplex.
// Rule keeps the original rule text for display.
type Strategy struct {
	Kind            StrategyKind    `json:"kind"`
	MarginPercent   decimal.Decimal `json:"marginPercent,omitempty"`
	MaxDeliveryDays int             `json:"maxDeliveryDays,omitempty"`
	Rule            string          `json:"rule,omitempty"`
}

// String renders the strategy for logs and justifications.
func (s Strategy) String() string {
	if s.Kind == StrategyComplex {
		return fmt.Sprintf("complex(margin=%s%%, max_days=%d)", s.MarginPercent.String(), s.MaxDeliveryDays)
	}
	return string(s.Kind)
}
