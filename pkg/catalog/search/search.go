// Package search resolves free-text product requests to catalog products.
//
// Matching is case-insensitive. Products are ranked by how they matched:
//
//  1. the product name equals the query
//  2. the product name contains the query
//  3. the description or a search term contains the query
//  4. a synonym of the query matches name, description or a search term
//
// Ties are broken by product id. A query that matches nothing yields an
// empty result, not an error.
package search

import (
	"sort"
	"strings"

	"mercator-hq/procurement/pkg/procurement"
)

// Match tiers, most relevant first.
const (
	TierExactName = iota
	TierNameSubstring
	TierDescription
	TierSynonym
)

// DefaultSynonyms is the equivalence table used when none is configured.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"computer":      {"laptop", "pc", "workstation"},
		"chair":         {"chair", "seat"},
		"printer paper": {"notebook", "paper"},
		"paper":         {"notebook", "paper"},
	}
}

// ProductLister is the part of the catalog the resolver reads.
type ProductLister interface {
	Products() []*procurement.Product
}

// Result is a resolved product together with how it matched.
type Result struct {
	Product *procurement.Product
	Tier    int
	Term    string
}

// Resolver maps queries to products. It is safe for concurrent use.
type Resolver struct {
	catalog  ProductLister
	synonyms map[string][]string
}

// New creates a resolver over catalog. A nil synonyms map selects
// DefaultSynonyms. The table is made symmetric: a query equal to any
// listed term also expands to its key and sibling terms.
func New(catalog ProductLister, synonyms map[string][]string) *Resolver {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Resolver{catalog: catalog, synonyms: symmetric(synonyms)}
}

// Resolve returns the products matching query, deduplicated and ordered by
// relevance.
func (r *Resolver) Resolve(query string) []*procurement.Product {
	results := r.ResolveDetailed(query)
	products := make([]*procurement.Product, len(results))
	for i, res := range results {
		products[i] = res.Product
	}
	return products
}

// ResolveDetailed is Resolve with match tier and matched term.
func (r *Resolver) ResolveDetailed(query string) []Result {
	q := normalize(query)
	if q == "" {
		return nil
	}
	expansions := r.synonyms[q]

	var results []Result
	for _, p := range r.catalog.Products() {
		if res, ok := match(p, q, expansions); ok {
			results = append(results, res)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Tier != results[j].Tier {
			return results[i].Tier < results[j].Tier
		}
		return results[i].Product.ID < results[j].Product.ID
	})
	return results
}

// Synonyms returns the expansion terms for query.
func (r *Resolver) Synonyms(query string) []string {
	return append([]string(nil), r.synonyms[normalize(query)]...)
}

func match(p *procurement.Product, q string, expansions []string) (Result, bool) {
	name := normalize(p.Name)
	switch {
	case name == q:
		return Result{Product: p, Tier: TierExactName, Term: q}, true
	case strings.Contains(name, q):
		return Result{Product: p, Tier: TierNameSubstring, Term: q}, true
	case containsText(p, q):
		return Result{Product: p, Tier: TierDescription, Term: q}, true
	}

	for _, term := range expansions {
		if strings.Contains(name, term) || containsText(p, term) {
			return Result{Product: p, Tier: TierSynonym, Term: term}, true
		}
	}
	return Result{}, false
}

func containsText(p *procurement.Product, term string) bool {
	if strings.Contains(normalize(p.Description), term) {
		return true
	}
	for _, st := range p.SearchTerms {
		if strings.Contains(normalize(st), term) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// symmetric builds, for every key and term in table, the sorted set of
// other words it expands to.
func symmetric(table map[string][]string) map[string][]string {
	sets := make(map[string]map[string]bool)
	add := func(from, to string) {
		if from == to {
			return
		}
		if sets[from] == nil {
			sets[from] = make(map[string]bool)
		}
		sets[from][to] = true
	}

	for key, terms := range table {
		k := normalize(key)
		group := []string{k}
		for _, t := range terms {
			if n := normalize(t); n != "" {
				group = append(group, n)
			}
		}
		for _, a := range group {
			for _, b := range group {
				add(a, b)
			}
		}
	}

	out := make(map[string][]string, len(sets))
	for word, set := range sets {
		terms := make([]string, 0, len(set))
		for t := range set {
			terms = append(terms, t)
		}
		sort.Strings(terms)
		out[word] = terms
	}
	return out
}
