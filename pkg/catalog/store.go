package catalog

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mercator-hq/procurement/pkg/procurement"
	"mercator-hq/procurement/pkg/strategy"
)

// Store is an immutable, validated snapshot of the catalog. All methods are
// safe for concurrent use. Returned pointers refer to shared snapshot data
// and must not be modified.
type Store struct {
	users       map[string]*procurement.User
	departments map[string]*procurement.Department
	products    map[string]*procurement.Product
	suppliers   map[string]*procurement.Supplier
	offers      map[string][]procurement.Offer

	productList    []*procurement.Product
	departmentList []*procurement.Department

	source   string
	loadedAt time.Time
}

// Stats summarizes the contents of a snapshot.
type Stats struct {
	Users       int       `json:"users"`
	Departments int       `json:"departments"`
	Products    int       `json:"products"`
	Suppliers   int       `json:"suppliers"`
	Offers      int       `json:"offers"`
	Source      string    `json:"source,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// New validates doc and builds a Store from it. Every integrity problem is
// reported; the returned error is an *IntegrityError or an *ErrorList of
// them.
func New(doc *Document) (*Store, error) {
	s := &Store{
		users:       make(map[string]*procurement.User, len(doc.Users)),
		departments: make(map[string]*procurement.Department, len(doc.Departments)),
		products:    make(map[string]*procurement.Product, len(doc.Products)),
		suppliers:   make(map[string]*procurement.Supplier, len(doc.Suppliers)),
		offers:      make(map[string][]procurement.Offer),
		loadedAt:    time.Now(),
	}
	errs := &ErrorList{}

	for _, r := range doc.Departments {
		dept, err := buildDepartment(r)
		if err != nil {
			errs.Add(err)
			continue
		}
		if _, dup := s.departments[dept.ID]; dup {
			errs.Add(&IntegrityError{Kind: procurement.KindDepartment, ID: dept.ID, Message: "duplicate id"})
			continue
		}
		s.departments[dept.ID] = dept
		s.departmentList = append(s.departmentList, dept)
	}

	for _, r := range doc.Users {
		if r.UserID == "" {
			errs.Add(&IntegrityError{Kind: procurement.KindUser, Message: "missing userId"})
			continue
		}
		if _, dup := s.users[r.UserID]; dup {
			errs.Add(&IntegrityError{Kind: procurement.KindUser, ID: r.UserID, Message: "duplicate id"})
			continue
		}
		if _, ok := s.departments[r.DepartmentID]; !ok {
			errs.Add(&IntegrityError{Kind: procurement.KindUser, ID: r.UserID, Message: "unknown department " + r.DepartmentID})
			continue
		}
		s.users[r.UserID] = &procurement.User{ID: r.UserID, Name: r.Name, DepartmentID: r.DepartmentID}
	}

	for _, r := range doc.Products {
		if r.ProductID == "" {
			errs.Add(&IntegrityError{Kind: procurement.KindProduct, Message: "missing productId"})
			continue
		}
		if _, dup := s.products[r.ProductID]; dup {
			errs.Add(&IntegrityError{Kind: procurement.KindProduct, ID: r.ProductID, Message: "duplicate id"})
			continue
		}
		if strings.TrimSpace(r.Category) == "" {
			errs.Add(&IntegrityError{Kind: procurement.KindProduct, ID: r.ProductID, Message: "missing category"})
			continue
		}
		p := &procurement.Product{
			ID:          r.ProductID,
			Name:        r.Name,
			Description: r.Description,
			Category:    r.Category,
			SearchTerms: r.SearchTerms,
		}
		s.products[p.ID] = p
		s.productList = append(s.productList, p)
	}

	for _, r := range doc.Suppliers {
		if r.SupplierID == "" {
			errs.Add(&IntegrityError{Kind: procurement.KindSupplier, Message: "missing supplierId"})
			continue
		}
		if _, dup := s.suppliers[r.SupplierID]; dup {
			errs.Add(&IntegrityError{Kind: procurement.KindSupplier, ID: r.SupplierID, Message: "duplicate id"})
			continue
		}
		score := procurement.DefaultReliabilityScore
		if r.ReliabilityScore != nil {
			score = *r.ReliabilityScore
		}
		if score < 0 || score > 10 {
			errs.Add(&IntegrityError{Kind: procurement.KindSupplier, ID: r.SupplierID, Message: "reliability score must be between 0 and 10"})
			continue
		}
		s.suppliers[r.SupplierID] = &procurement.Supplier{
			ID:               r.SupplierID,
			Name:             r.Name,
			ReliabilityScore: score,
			ContactInfo:      r.ContactInfo,
		}
	}

	seen := make(map[string]bool)
	for _, r := range doc.Offers {
		id := r.ProductID + "/" + r.SupplierID
		offer, err := s.buildOffer(r)
		if err != nil {
			errs.Add(err)
			continue
		}
		if seen[id] {
			errs.Add(&IntegrityError{Kind: "offer", ID: id, Message: "duplicate product and supplier pair"})
			continue
		}
		seen[id] = true
		s.offers[offer.ProductID] = append(s.offers[offer.ProductID], offer)
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}

	for _, offers := range s.offers {
		sort.Slice(offers, func(i, j int) bool { return offers[i].SupplierID < offers[j].SupplierID })
	}
	sort.Slice(s.productList, func(i, j int) bool { return s.productList[i].ID < s.productList[j].ID })
	sort.Slice(s.departmentList, func(i, j int) bool { return s.departmentList[i].ID < s.departmentList[j].ID })

	return s, nil
}

func buildDepartment(r DepartmentRecord) (*procurement.Department, error) {
	if r.DepartmentID == "" {
		return nil, &IntegrityError{Kind: procurement.KindDepartment, Message: "missing departmentId"}
	}
	if r.MonthlyBudget.IsNegative() {
		return nil, &IntegrityError{Kind: procurement.KindDepartment, ID: r.DepartmentID, Message: "monthly budget must not be negative"}
	}

	s, err := strategy.Parse(strategy.Descriptor{
		Kind:            r.PurchaseStrategy,
		Rule:            r.StrategyRule,
		MarginPercent:   r.MarginPercent,
		MaxDeliveryDays: r.MaxDeliveryDays,
	})
	if err != nil {
		return nil, &IntegrityError{Kind: procurement.KindDepartment, ID: r.DepartmentID, Message: "invalid purchase strategy", Cause: err}
	}

	spent := decimal.Zero
	if r.InitialSpent != nil {
		spent = *r.InitialSpent
		if spent.IsNegative() {
			return nil, &IntegrityError{Kind: procurement.KindDepartment, ID: r.DepartmentID, Message: "initial spent must not be negative"}
		}
	}

	return &procurement.Department{
		ID:                r.DepartmentID,
		Name:              r.Name,
		AllowedCategories: r.AllowedCategories,
		Strategy:          s,
		MonthlyBudget:     r.MonthlyBudget,
		AuditRequired:     r.RequiresAudit,
		InitialSpent:      spent,
	}, nil
}

func (s *Store) buildOffer(r OfferRecord) (procurement.Offer, error) {
	id := r.ProductID + "/" + r.SupplierID
	if _, ok := s.products[r.ProductID]; !ok {
		return procurement.Offer{}, &IntegrityError{Kind: "offer", ID: id, Message: "unknown product " + r.ProductID}
	}
	if _, ok := s.suppliers[r.SupplierID]; !ok {
		return procurement.Offer{}, &IntegrityError{Kind: "offer", ID: id, Message: "unknown supplier " + r.SupplierID}
	}
	if r.Price.IsNegative() {
		return procurement.Offer{}, &IntegrityError{Kind: "offer", ID: id, Message: "price must not be negative"}
	}
	if r.DeliveryDays < 0 {
		return procurement.Offer{}, &IntegrityError{Kind: "offer", ID: id, Message: "delivery days must not be negative"}
	}
	availability, err := procurement.ParseAvailability(r.Availability)
	if err != nil {
		return procurement.Offer{}, &IntegrityError{Kind: "offer", ID: id, Message: "invalid availability", Cause: err}
	}
	minimum := 1
	if r.MinimumOrder != nil {
		minimum = *r.MinimumOrder
	}
	if minimum < 1 {
		return procurement.Offer{}, &IntegrityError{Kind: "offer", ID: id, Message: "minimum order must be at least 1"}
	}

	return procurement.Offer{
		ProductID:    r.ProductID,
		SupplierID:   r.SupplierID,
		Price:        r.Price,
		DeliveryDays: r.DeliveryDays,
		Availability: availability,
		MinimumOrder: minimum,
	}, nil
}

// User returns the user with the given id.
func (s *Store) User(id string) (*procurement.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, procurement.NewNotFoundError(procurement.KindUser, id)
}

// Department returns the department with the given id.
func (s *Store) Department(id string) (*procurement.Department, error) {
	if d, ok := s.departments[id]; ok {
		return d, nil
	}
	return nil, procurement.NewNotFoundError(procurement.KindDepartment, id)
}

// Product returns the product with the given id.
func (s *Store) Product(id string) (*procurement.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, procurement.NewNotFoundError(procurement.KindProduct, id)
}

// Supplier returns the supplier with the given id.
func (s *Store) Supplier(id string) (*procurement.Supplier, error) {
	if sup, ok := s.suppliers[id]; ok {
		return sup, nil
	}
	return nil, procurement.NewNotFoundError(procurement.KindSupplier, id)
}

// Offers returns the offers for a product ordered by supplier id, including
// out-of-stock ones. A non-empty supplierID restricts the result to that
// supplier. The returned slice is a copy.
func (s *Store) Offers(productID, supplierID string) ([]procurement.Offer, error) {
	if _, ok := s.products[productID]; !ok {
		return nil, procurement.NewNotFoundError(procurement.KindProduct, productID)
	}
	if supplierID != "" {
		if _, ok := s.suppliers[supplierID]; !ok {
			return nil, procurement.NewNotFoundError(procurement.KindSupplier, supplierID)
		}
	}

	all := s.offers[productID]
	out := make([]procurement.Offer, 0, len(all))
	for _, o := range all {
		if supplierID == "" || o.SupplierID == supplierID {
			out = append(out, o)
		}
	}
	return out, nil
}

// Products returns every product ordered by id. The slice is a copy.
func (s *Store) Products() []*procurement.Product {
	return slices.Clone(s.productList)
}

// Departments returns every department ordered by id. The slice is a copy.
func (s *Store) Departments() []*procurement.Department {
	return slices.Clone(s.departmentList)
}

// Stats returns entity counts for the snapshot.
func (s *Store) Stats() Stats {
	offers := 0
	for _, o := range s.offers {
		offers += len(o)
	}
	return Stats{
		Users:       len(s.users),
		Departments: len(s.departments),
		Products:    len(s.products),
		Suppliers:   len(s.suppliers),
		Offers:      offers,
		Source:      s.source,
		LoadedAt:    s.loadedAt,
	}
}
