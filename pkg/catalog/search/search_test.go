package search

import (
	"testing"

	"mercator-hq/procurement/pkg/procurement"
)

type productList []*procurement.Product

func (l productList) Products() []*procurement.Product { return l }

func testCatalog() productList {
	return productList{
		{ID: "P001", Name: "Business Laptop", Description: "14-inch laptop with 16GB RAM", Category: "electronics"},
		{ID: "P002", Name: "Developer Workstation", Description: "Desktop PC for development", Category: "electronics"},
		{ID: "P003", Name: "Ergonomic Office Chair", Description: "Adjustable office seat", Category: "furniture"},
		{ID: "P004", Name: "A4 Printer Paper", Description: "Box of 5 reams", Category: "office-supplies"},
		{ID: "P005", Name: "Spiral Notebook", Description: "Ruled A5", Category: "office-supplies"},
		{ID: "P006", Name: "Monitor", Description: "QHD display", Category: "electronics", SearchTerms: []string{"Screen"}},
		{ID: "P007", Name: "Laptop", Description: "Budget model", Category: "electronics"},
	}
}

func ids(products []*procurement.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolver_Resolve(t *testing.T) {
	r := New(testCatalog(), nil)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "computer resolves via synonyms", query: "computer", expected: []string{"P001", "P002", "P007"}},
		{name: "exact name ranks first", query: "laptop", expected: []string{"P007", "P001", "P002"}},
		{name: "case insensitive", query: "  LAPTOP ", expected: []string{"P007", "P001", "P002"}},
		{name: "search term match", query: "screen", expected: []string{"P006"}},
		{name: "description match", query: "reams", expected: []string{"P004"}},
		{name: "chair includes seat synonym", query: "chair", expected: []string{"P003"}},
		{name: "paper ranks name match before synonym", query: "paper", expected: []string{"P004", "P005"}},
		{name: "printer paper", query: "printer paper", expected: []string{"P004", "P005"}},
		{name: "reverse synonym", query: "workstation", expected: []string{"P002", "P001", "P007"}},
		{name: "no match", query: "forklift", expected: []string{}},
		{name: "empty query", query: "   ", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(r.Resolve(tt.query))
			if !equal(got, tt.expected) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.query, got, tt.expected)
			}
		})
	}
}

func TestResolver_ResolveDetailed(t *testing.T) {
	r := New(testCatalog(), nil)

	results := r.ResolveDetailed("computer")
	if len(results) == 0 {
		t.Fatal("Expected results for computer")
	}
	first := results[0]
	if first.Product.Name != "Business Laptop" {
		t.Errorf("Expected Business Laptop first, got %s", first.Product.Name)
	}
	if first.Tier != TierSynonym {
		t.Errorf("Expected synonym tier, got %d", first.Tier)
	}
	if first.Term != "laptop" {
		t.Errorf("Expected matched term laptop, got %s", first.Term)
	}
}

func TestResolver_Deduplicates(t *testing.T) {
	r := New(testCatalog(), map[string][]string{"notebook": {"paper", "notebook", "spiral"}})

	seen := make(map[string]bool)
	for _, p := range r.Resolve("notebook") {
		if seen[p.ID] {
			t.Errorf("Product %s returned twice", p.ID)
		}
		seen[p.ID] = true
	}
	if !seen["P004"] || !seen["P005"] {
		t.Errorf("Expected P004 and P005, got %v", seen)
	}
}

func TestResolver_CustomSynonyms(t *testing.T) {
	r := New(testCatalog(), map[string][]string{"display": {"monitor"}})

	if got := ids(r.Resolve("computer")); len(got) != 0 {
		t.Errorf("Custom table must replace defaults, got %v", got)
	}
	if got := ids(r.Resolve("monitor")); !equal(got, []string{"P006"}) {
		t.Errorf("Expected P006, got %v", got)
	}

	syn := r.Synonyms("Monitor")
	if !equal(syn, []string{"display"}) {
		t.Errorf("Expected symmetric synonym display, got %v", syn)
	}
}
