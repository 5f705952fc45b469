// Package catalog loads and serves the procurement reference data: users,
// departments, products, suppliers and supplier offers.
//
// # Data Files
//
// A catalog directory holds five JSON files with camelCase keys:
//
//	users.json            [{"userId", "name", "departmentId"}]
//	departments.json      [{"departmentId", "name", "allowedCategories",
//	                        "purchaseStrategy", "strategyRule",
//	                        "monthlyBudget", "requiresAudit"}]
//	products.json         [{"productId", "name", "description", "category"}]
//	suppliers.json        [{"supplierId", "name", "reliabilityScore"}]
//	product_details.json  [{"productId", "supplierId", "price",
//	                        "availability", "deliveryDays", "minimumOrder"}]
//
// Alternatively a single catalog.yaml holds the same records under the keys
// users, departments, products, suppliers and productDetails.
//
// Loading validates referential integrity and parses each department's
// purchase strategy. Any problem fails the whole load.
//
// # Snapshots
//
// A Store is immutable. A Source holds the current Store behind an atomic
// pointer and can replace it on Reload, optionally driven by a file Watcher.
// In-flight requests keep using the snapshot they started with.
package catalog

import "mercator-hq/procurement/pkg/procurement"

// Catalog is the read API shared by Store and Source.
type Catalog interface {
	User(id string) (*procurement.User, error)
	Department(id string) (*procurement.Department, error)
	Product(id string) (*procurement.Product, error)
	Supplier(id string) (*procurement.Supplier, error)
	Offers(productID, supplierID string) ([]procurement.Offer, error)
	Products() []*procurement.Product
	Departments() []*procurement.Department
}

var (
	_ Catalog = (*Store)(nil)
	_ Catalog = (*Source)(nil)
)
