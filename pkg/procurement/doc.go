// Package procurement defines the domain model shared by every component of
// the purchase-decision engine.
//
// # Entities
//
// Reference data is loaded once by the catalog and never mutated afterwards:
//
//   - User: an employee and the department they belong to
//   - Department: allowed categories, purchase strategy, monthly budget and
//     audit requirement
//   - Product: a catalog item with a category and search terms
//   - Supplier: a vendor with a reliability score
//   - Offer: a (product, supplier) pair with price, delivery days and
//     availability
//
// # Money
//
// All monetary values are github.com/shopspring/decimal values. Prices and
// budgets are never represented as floating point.
//
// # Strategies
//
// A department's purchase strategy is a tagged variant (see Strategy). The
// natural-language rule body of a complex strategy is parsed once, when the
// department is loaded, by package strategy.
package procurement
