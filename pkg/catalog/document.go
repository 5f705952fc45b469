package catalog

import (
	"github.com/shopspring/decimal"
)

// Document is the decoded, not yet validated content of a catalog. Field
// names follow the camelCase keys of the JSON data files; the same keys are
// used in a single-file YAML catalog.
type Document struct {
	Users       []UserRecord       `json:"users" yaml:"users"`
	Departments []DepartmentRecord `json:"departments" yaml:"departments"`
	Products    []ProductRecord    `json:"products" yaml:"products"`
	Suppliers   []SupplierRecord   `json:"suppliers" yaml:"suppliers"`
	Offers      []OfferRecord      `json:"productDetails" yaml:"productDetails"`
}

// UserRecord is one entry of users.json.
type UserRecord struct {
	UserID       string `json:"userId" yaml:"userId"`
	Name         string `json:"name" yaml:"name"`
	DepartmentID string `json:"departmentId" yaml:"departmentId"`
}

// DepartmentRecord is one entry of departments.json.
//
// PurchaseStrategy is the strategy tag (cheapest, fastest, complex).
// StrategyRule carries the free-text body of a complex rule; MarginPercent
// and MaxDeliveryDays, when present, override values parsed from the text.
type DepartmentRecord struct {
	DepartmentID      string           `json:"departmentId" yaml:"departmentId"`
	Name              string           `json:"name" yaml:"name"`
	AllowedCategories []string         `json:"allowedCategories" yaml:"allowedCategories"`
	PurchaseStrategy  string           `json:"purchaseStrategy" yaml:"purchaseStrategy"`
	StrategyRule      string           `json:"strategyRule,omitempty" yaml:"strategyRule,omitempty"`
	MarginPercent     *decimal.Decimal `json:"marginPercent,omitempty" yaml:"marginPercent,omitempty"`
	MaxDeliveryDays   *int             `json:"maxDeliveryDays,omitempty" yaml:"maxDeliveryDays,omitempty"`
	MonthlyBudget     decimal.Decimal  `json:"monthlyBudget" yaml:"monthlyBudget"`
	RequiresAudit     bool             `json:"requiresAudit" yaml:"requiresAudit"`
	InitialSpent      *decimal.Decimal `json:"initialSpent,omitempty" yaml:"initialSpent,omitempty"`
}

// ProductRecord is one entry of products.json.
type ProductRecord struct {
	ProductID   string   `json:"productId" yaml:"productId"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	SearchTerms []string `json:"searchTerms,omitempty" yaml:"searchTerms,omitempty"`
}

// SupplierRecord is one entry of suppliers.json.
type SupplierRecord struct {
	SupplierID       string   `json:"supplierId" yaml:"supplierId"`
	Name             string   `json:"name" yaml:"name"`
	ReliabilityScore *float64 `json:"reliabilityScore,omitempty" yaml:"reliabilityScore,omitempty"`
	ContactInfo      string   `json:"contactInfo,omitempty" yaml:"contactInfo,omitempty"`
}

// OfferRecord is one entry of product_details.json.
type OfferRecord struct {
	ProductID    string          `json:"productId" yaml:"productId"`
	SupplierID   string          `json:"supplierId" yaml:"supplierId"`
	Price        decimal.Decimal `json:"price" yaml:"price"`
	Availability string          `json:"availability" yaml:"availability"`
	DeliveryDays int             `json:"deliveryDays" yaml:"deliveryDays"`
	MinimumOrder *int            `json:"minimumOrder,omitempty" yaml:"minimumOrder,omitempty"`
}
