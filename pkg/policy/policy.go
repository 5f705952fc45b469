// Package policy evaluates department purchasing policy.
//
// A department may purchase a product only if the product's category is in
// the department's allowed categories. A disallowed category is a normal
// business outcome reported through Result, never an error.
package policy

import (
	"fmt"
	"strings"

	"mercator-hq/procurement/pkg/procurement"
)

// Result is the outcome of a policy evaluation.
type Result struct {
	Allowed           bool     `json:"allowed"`
	DepartmentID      string   `json:"department_id"`
	ProductID         string   `json:"product_id"`
	Category          string   `json:"category"`
	AllowedCategories []string `json:"allowed_categories"`
	Reason            string   `json:"reason"`
}

// CheckCategory reports whether dept may purchase product.
func CheckCategory(dept *procurement.Department, product *procurement.Product) bool {
	return dept.AllowsCategory(product.Category)
}

// Evaluate checks the category rule and explains the outcome.
func Evaluate(dept *procurement.Department, product *procurement.Product) Result {
	r := Result{
		Allowed:           CheckCategory(dept, product),
		DepartmentID:      dept.ID,
		ProductID:         product.ID,
		Category:          product.Category,
		AllowedCategories: append([]string(nil), dept.AllowedCategories...),
	}

	allowed := "none"
	if len(dept.AllowedCategories) > 0 {
		allowed = strings.Join(dept.AllowedCategories, ", ")
	}
	if r.Allowed {
		r.Reason = fmt.Sprintf("category %q is allowed for department %s", product.Category, dept.ID)
	} else {
		r.Reason = fmt.Sprintf("category %q is not allowed for department %s (allowed: %s)", product.Category, dept.ID, allowed)
	}
	return r
}
