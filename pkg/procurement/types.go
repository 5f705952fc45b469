package procurement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultReliabilityScore is assigned to suppliers loaded without a score.
const DefaultReliabilityScore = 7.0

// User is an employee who can submit purchase requests.
type User struct {
	ID           string `json:"userId" yaml:"userId"`
	Name         string `json:"name" yaml:"name"`
	DepartmentID string `json:"departmentId" yaml:"departmentId"`
}

// Department holds the purchasing policy of an organizational unit.
type Department struct {
	ID                string          `json:"departmentId"`
	Name              string          `json:"name"`
	AllowedCategories []string        `json:"allowedCategories"`
	Strategy          Strategy        `json:"strategy"`
	MonthlyBudget     decimal.Decimal `json:"monthlyBudget"`
	AuditRequired     bool            `json:"requiresAudit"`

	// InitialSpent seeds the ledger for the current period when no ledger
	// entry exists yet.
	InitialSpent decimal.Decimal `json:"initialSpent"`
}

// AllowsCategory reports whether category is in the allowed set.
// Comparison is case-insensitive.
func (d *Department) AllowsCategory(category string) bool {
	for _, c := range d.AllowedCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// Product is a catalog item.
type Product struct {
	ID          string   `json:"productId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SearchTerms []string `json:"searchTerms,omitempty"`
}

// Supplier is a vendor offering catalog products.
type Supplier struct {
	ID               string  `json:"supplierId"`
	Name             string  `json:"name"`
	ReliabilityScore float64 `json:"reliabilityScore"`
	ContactInfo      string  `json:"contactInfo,omitempty"`
}

// Availability is the stock state of an offer.
type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityLimited    Availability = "limited"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

// ParseAvailability normalizes the availability spellings found in catalog
// data ("in-stock", "In Stock", "in_stock", ...).
func ParseAvailability(s string) (Availability, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch Availability(norm) {
	case AvailabilityInStock, AvailabilityLimited, AvailabilityOutOfStock:
		return Availability(norm), nil
	case "available":
		return AvailabilityInStock, nil
	case "limited_stock", "low_stock":
		return AvailabilityLimited, nil
	case "unavailable":
		return AvailabilityOutOfStock, nil
	}
	return "", fmt.Errorf("unknown availability %q", s)
}

// Offer is a supplier's terms for a product.
type Offer struct {
	ProductID    string          `json:"productId"`
	SupplierID   string          `json:"supplierId"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"deliveryDays"`
	Availability Availability    `json:"availability"`
	MinimumOrder int             `json:"minimumOrder"`
}

// Usable reports whether the offer can be selected.
func (o Offer) Usable() bool {
	return o.Availability != AvailabilityOutOfStock
}
