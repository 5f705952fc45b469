package strategy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"mercator-hq/procurement/pkg/procurement"
)

var (
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent\b|pct\b)`)
	daysPattern    = regexp.MustCompile(`(\d+)\s*-?\s*(?:business\s+|working\s+|calendar\s+)?days?\b`)
)

// Descriptor is the configuration form of a purchase strategy as found in
// department data. Structured fields take precedence over values parsed
// from Rule.
type Descriptor struct {
	Kind            string           `json:"type" yaml:"type"`
	Rule            string           `json:"rule" yaml:"rule"`
	MarginPercent   *decimal.Decimal `json:"marginPercent" yaml:"marginPercent"`
	MaxDeliveryDays *int             `json:"maxDeliveryDays" yaml:"maxDeliveryDays"`
}

// Parse converts a descriptor into a Strategy.
//
// An empty Kind with a non-empty Rule is treated as complex. Kind matching is
// case-insensitive.
func Parse(d Descriptor) (procurement.Strategy, error) {
	kind := procurement.StrategyKind(strings.ToLower(strings.TrimSpace(d.Kind)))
	if kind == "" && strings.TrimSpace(d.Rule) != "" {
		kind = procurement.StrategyComplex
	}

	switch kind {
	case procurement.StrategyCheapest, procurement.StrategyFastest:
		return procurement.Strategy{Kind: kind, Rule: d.Rule}, nil
	case procurement.StrategyComplex:
		return parseComplex(d)
	case "":
		return procurement.Strategy{}, &ParseError{Message: "strategy type is required"}
	default:
		return procurement.Strategy{}, &ParseError{Kind: d.Kind, Message: "unknown strategy type"}
	}
}

// ParseRule parses a complex rule body.
func ParseRule(rule string) (procurement.Strategy, error) {
	return Parse(Descriptor{Kind: string(procurement.StrategyComplex), Rule: rule})
}

func parseComplex(d Descriptor) (procurement.Strategy, error) {
	s := procurement.Strategy{Kind: procurement.StrategyComplex, Rule: d.Rule}
	text := strings.ToLower(d.Rule)

	switch {
	case d.MarginPercent != nil:
		s.MarginPercent = *d.MarginPercent
	default:
		m := percentPattern.FindStringSubmatch(text)
		if m == nil {
			return procurement.Strategy{}, &ParseError{Kind: "complex", Rule: d.Rule, Message: "no price margin percentage found"}
		}
		margin, err := decimal.NewFromString(m[1])
		if err != nil {
			return procurement.Strategy{}, &ParseError{Kind: "complex", Rule: d.Rule, Message: "invalid margin: " + err.Error()}
		}
		s.MarginPercent = margin
	}

	switch {
	case d.MaxDeliveryDays != nil:
		s.MaxDeliveryDays = *d.MaxDeliveryDays
	default:
		m := daysPattern.FindStringSubmatch(text)
		if m == nil {
			return procurement.Strategy{}, &ParseError{Kind: "complex", Rule: d.Rule, Message: "no delivery day threshold found"}
		}
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return procurement.Strategy{}, &ParseError{Kind: "complex", Rule: d.Rule, Message: "invalid day threshold: " + err.Error()}
		}
		s.MaxDeliveryDays = days
	}

	if s.MarginPercent.IsNegative() {
		return procurement.Strategy{}, &ParseError{Kind: "complex", Rule: d.Rule, Message: "margin must not be negative"}
	}
	if s.MaxDeliveryDays < 0 {
		return procurement.Strategy{}, &ParseError{Kind: "complex", Rule: d.Rule, Message: "day threshold must not be negative"}
	}

	return s, nil
}
