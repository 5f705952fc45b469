package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"mercator-hq/procurement/pkg/procurement"
)

var hundred = decimal.NewFromInt(100)

// Selection is the result of applying a strategy to a set of offers.
type Selection struct {
	// Offer is the selected offer.
	Offer procurement.Offer

	// Strategy is the strategy that produced the selection.
	Strategy procurement.Strategy

	// Justification names the comparison values used, for display verbatim
	// by audit and UI layers.
	Justification string

	// Degraded is set when a complex rule found no offer within its day
	// threshold and fell back to all usable offers.
	Degraded bool

	// MinPrice is the minimum price over the evaluated pool (complex only).
	MinPrice decimal.Decimal

	// ThresholdPrice is the price ceiling rounded to cents (complex only).
	// Offers are compared against the unrounded ceiling.
	ThresholdPrice decimal.Decimal

	// Considered holds the usable offers the strategy evaluated.
	Considered []procurement.Offer

	// Alternatives holds the usable offers that were not selected, in the
	// strategy's preference order.
	Alternatives []procurement.Offer
}

// RoundCurrency rounds an amount to cents using round-half-up.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Ceiling computes minPrice + minPrice*marginPercent/100 without rounding.
// Offers are compared against this value, so the offer at minPrice always
// qualifies.
func Ceiling(minPrice, marginPercent decimal.Decimal) decimal.Decimal {
	return minPrice.Add(minPrice.Mul(marginPercent).Div(hundred))
}

// Threshold is Ceiling rounded to cents, as shown in justifications.
func Threshold(minPrice, marginPercent decimal.Decimal) decimal.Decimal {
	return RoundCurrency(Ceiling(minPrice, marginPercent))
}

// Usable returns the offers that are not out of stock, preserving order.
func Usable(offers []procurement.Offer) []procurement.Offer {
	usable := make([]procurement.Offer, 0, len(offers))
	for _, o := range offers {
		if o.Usable() {
			usable = append(usable, o)
		}
	}
	return usable
}

// Select applies s to offers. Out-of-stock offers are ignored. The input
// slice is not modified.
//
// Returns ErrNoQualifyingOffer if no usable offer survives.
func Select(s procurement.Strategy, offers []procurement.Offer) (*Selection, error) {
	usable := Usable(offers)
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: all %d offers are out of stock", ErrNoQualifyingOffer, len(offers))
	}

	switch s.Kind {
	case procurement.StrategyCheapest:
		return selectCheapest(s, usable), nil
	case procurement.StrategyFastest:
		return selectFastest(s, usable), nil
	case procurement.StrategyComplex:
		return selectComplex(s, usable)
	default:
		return nil, &ParseError{Kind: string(s.Kind), Message: "unknown strategy type"}
	}
}

func selectCheapest(s procurement.Strategy, usable []procurement.Offer) *Selection {
	ordered := sortedBy(usable, byPrice)
	chosen := ordered[0]
	return &Selection{
		Offer:    chosen,
		Strategy: s,
		Justification: fmt.Sprintf(
			"cheapest strategy: selected supplier %s at price %s with %d delivery days (lowest price among %d usable offers)",
			chosen.SupplierID, chosen.Price.StringFixed(2), chosen.DeliveryDays, len(usable)),
		Considered:   usable,
		Alternatives: ordered[1:],
	}
}

func selectFastest(s procurement.Strategy, usable []procurement.Offer) *Selection {
	ordered := sortedBy(usable, byDelivery)
	chosen := ordered[0]
	return &Selection{
		Offer:    chosen,
		Strategy: s,
		Justification: fmt.Sprintf(
			"fastest strategy: selected supplier %s with %d delivery days at price %s (shortest delivery among %d usable offers)",
			chosen.SupplierID, chosen.DeliveryDays, chosen.Price.StringFixed(2), len(usable)),
		Considered:   usable,
		Alternatives: ordered[1:],
	}
}

func selectComplex(s procurement.Strategy, usable []procurement.Offer) (*Selection, error) {
	pool := make([]procurement.Offer, 0, len(usable))
	for _, o := range usable {
		if o.DeliveryDays <= s.MaxDeliveryDays {
			pool = append(pool, o)
		}
	}

	degraded := false
	if len(pool) == 0 {
		degraded = true
		pool = usable
	}

	minPrice := pool[0].Price
	for _, o := range pool[1:] {
		if o.Price.LessThan(minPrice) {
			minPrice = o.Price
		}
	}
	ceiling := Ceiling(minPrice, s.MarginPercent)
	threshold := Threshold(minPrice, s.MarginPercent)

	survivors := make([]procurement.Offer, 0, len(pool))
	for _, o := range pool {
		if o.Price.LessThanOrEqual(ceiling) {
			survivors = append(survivors, o)
		}
	}
	if len(survivors) == 0 {
		return nil, fmt.Errorf("%w: no offer priced at or below threshold %s", ErrNoQualifyingOffer, threshold.StringFixed(2))
	}

	chosen := sortedBy(survivors, byDelivery)[0]

	var b strings.Builder
	if degraded {
		fmt.Fprintf(&b, "degraded mode: no usable offer delivers within %d days, evaluated all %d usable offers; ",
			s.MaxDeliveryDays, len(usable))
	}
	fmt.Fprintf(&b,
		"complex strategy: selected supplier %s at price %s with %d delivery days; threshold price %s (min price %s + %s%%); threshold days %d; %d of %d usable offers within threshold",
		chosen.SupplierID, chosen.Price.StringFixed(2), chosen.DeliveryDays,
		threshold.StringFixed(2), minPrice.StringFixed(2), s.MarginPercent.String(),
		s.MaxDeliveryDays, len(survivors), len(usable))

	alternatives := make([]procurement.Offer, 0, len(usable)-1)
	for _, o := range sortedBy(usable, byPrice) {
		if o.SupplierID != chosen.SupplierID {
			alternatives = append(alternatives, o)
		}
	}

	return &Selection{
		Offer:          chosen,
		Strategy:       s,
		Justification:  b.String(),
		Degraded:       degraded,
		MinPrice:       minPrice,
		ThresholdPrice: threshold,
		Considered:     usable,
		Alternatives:   alternatives,
	}, nil
}

type lessFunc func(a, b procurement.Offer) bool

// byPrice orders by price, then delivery days, then supplier id.
func byPrice(a, b procurement.Offer) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c < 0
	}
	if a.DeliveryDays != b.DeliveryDays {
		return a.DeliveryDays < b.DeliveryDays
	}
	return a.SupplierID < b.SupplierID
}

// byDelivery orders by delivery days, then price, then supplier id.
func byDelivery(a, b procurement.Offer) bool {
	if a.DeliveryDays != b.DeliveryDays {
		return a.DeliveryDays < b.DeliveryDays
	}
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c < 0
	}
	return a.SupplierID < b.SupplierID
}

func sortedBy(offers []procurement.Offer, less lessFunc) []procurement.Offer {
	out := make([]procurement.Offer, len(offers))
	copy(out, offers)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
