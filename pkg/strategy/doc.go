// Package strategy selects a supplier offer according to a department's
// purchase strategy.
//
// # Strategies
//
//   - cheapest: minimum price, then fewest delivery days, then supplier id
//   - fastest: fewest delivery days, then minimum price, then supplier id
//   - complex: shortest delivery among offers priced within a margin of the
//     cheapest offer that delivers within a day threshold
//
// # Complex Rules
//
// A complex strategy is configured as free text, for example:
//
//	Prefer the fastest delivery when the price is within 10% of the
//	cheapest offer, among suppliers delivering within 5 days.
//
// Parse extracts the margin percent and day threshold once, when the
// department is loaded. Text that does not yield both values is a
// configuration error.
//
// # Rounding
//
// The complex threshold price is minPrice + minPrice*marginPercent/100,
// rounded to cents with round-half-up (RoundCurrency). Prices are never
// negative, so decimal.Round's half-away-from-zero behaviour is half-up.
//
// # Thread Safety
//
// Parse and Select are pure functions and safe for concurrent use.
package strategy
