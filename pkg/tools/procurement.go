package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"mercator-hq/procurement/pkg/audit"
	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/catalog/search"
	"mercator-hq/procurement/pkg/decision"
	"mercator-hq/procurement/pkg/procurement"
)

// Tool names.
const (
	GetUser             = "get_user"
	GetDepartmentPolicy = "get_department_policy"
	GetDepartmentBudget = "get_department_budget"
	SearchProducts      = "search_products"
	GetProductDetails   = "get_product_details"
	GetSupplierInfo     = "get_supplier_info"
	CreateAuditRecord   = "create_audit_record"
	RecommendPurchase   = "recommend_purchase"
)

// Services are the collaborators behind the procurement tools.
type Services struct {
	Catalog  catalog.Catalog
	Resolver *search.Resolver
	Budget   *budget.Tracker
	Recorder *audit.Recorder
	Engine   *decision.Engine
}

// DepartmentPolicy is the output of get_department_policy.
type DepartmentPolicy struct {
	DepartmentID      string   `json:"departmentId"`
	AllowedCategories []string `json:"allowedCategories"`
	Strategy          string   `json:"strategy"`
	StrategyRule      string   `json:"strategyRule,omitempty"`
	AuditRequired     bool     `json:"auditRequired"`
}

// DepartmentBudget is the output of get_department_budget.
type DepartmentBudget struct {
	DepartmentID string          `json:"departmentId"`
	Period       string          `json:"period"`
	Limit        decimal.Decimal `json:"limit"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
}

// ProductSummary is one entry of the search_products output.
type ProductSummary struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Category  string `json:"category"`
}

// RegisterProcurement registers the procurement tools on r. The
// recommend_purchase tool is only registered when s.Engine is set.
func RegisterProcurement(r *Registry, s Services) error {
	if s.Catalog == nil {
		return errors.New("procurement tools require a catalog")
	}
	if s.Resolver == nil {
		s.Resolver = search.New(s.Catalog, nil)
	}

	defs := []struct {
		tool    Tool
		handler Handler
	}{
		{tool(GetUser, "Look up a user and their department.", params(
			required("userId", "The unique identifier for the user"))), s.getUser},
		{tool(GetDepartmentPolicy, "Get a department's allowed categories, purchase strategy and audit requirement.", params(
			required("departmentId", "The unique identifier for the department"))), s.getDepartmentPolicy},
		{tool(GetDepartmentBudget, "Get a department's monthly budget limit, spend and remaining headroom.", params(
			required("departmentId", "The unique identifier for the department"))), s.getDepartmentBudget},
		{tool(SearchProducts, "Find products matching a search term, most relevant first.", params(
			required("query", "Product search text"))), s.searchProducts},
		{tool(GetProductDetails, "List supplier offers for a product, optionally for one supplier.", params(
			required("productId", "The unique identifier for the product"),
			optional("supplierId", "Restrict offers to this supplier"))), s.getProductDetails},
		{tool(GetSupplierInfo, "Get supplier name, reliability score and contact details.", params(
			required("supplierId", "The unique identifier for the supplier"))), s.getSupplierInfo},
		{tool(CreateAuditRecord, "Append an audit record for a purchase decision.", createAuditParams()), s.createAuditRecord},
	}
	if s.Engine != nil {
		defs = append(defs, struct {
			tool    Tool
			handler Handler
		}{tool(RecommendPurchase, "Run the full purchase decision for a user's request.", params(
			required("userId", "The requesting user"),
			required("query", "Product search text"),
			optional("requestId", "Correlation id for logs and audit records"))), s.recommendPurchase})
	}

	for _, d := range defs {
		if err := r.Register(d.tool, d.handler); err != nil {
			return err
		}
	}
	return nil
}

func (s Services) getUser(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		UserID string `json:"userId"`
	}
	if err := decode(args, &in); err != nil {
		return Result{}, err
	}
	if err := requireField("userId", in.UserID); err != nil {
		return Result{}, err
	}
	user, err := s.Catalog.User(in.UserID)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: user}, nil
}

func (s Services) getDepartmentPolicy(ctx context.Context, args json.RawMessage) (Result, error) {
	dept, err := s.department(args)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: DepartmentPolicy{
		DepartmentID:      dept.ID,
		AllowedCategories: slices.Clone(dept.AllowedCategories),
		Strategy:          dept.Strategy.String(),
		StrategyRule:      dept.Strategy.Rule,
		AuditRequired:     dept.AuditRequired,
	}}, nil
}

func (s Services) getDepartmentBudget(ctx context.Context, args json.RawMessage) (Result, error) {
	if s.Budget == nil {
		return Result{}, errors.New("budget tracker not configured")
	}
	dept, err := s.department(args)
	if err != nil {
		return Result{}, err
	}
	snap, err := s.Budget.Snapshot(ctx, dept.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: DepartmentBudget{
		DepartmentID: snap.DepartmentID,
		Period:       snap.Period,
		Limit:        snap.Limit,
		Spent:        snap.Spent,
		Remaining:    snap.Remaining,
	}}, nil
}

func (s Services) department(args json.RawMessage) (*procurement.Department, error) {
	var in struct {
		DepartmentID string `json:"departmentId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if err := requireField("departmentId", in.DepartmentID); err != nil {
		return nil, err
	}
	return s.Catalog.Department(in.DepartmentID)
}

func (s Services) searchProducts(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := decode(args, &in); err != nil {
		return Result{}, err
	}
	if err := requireField("query", in.Query); err != nil {
		return Result{}, err
	}

	products := s.Resolver.Resolve(in.Query)
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, ProductSummary{ProductID: p.ID, Name: p.Name, Category: p.Category})
	}
	return Result{Content: out}, nil
}

func (s Services) getProductDetails(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		ProductID  string `json:"productId"`
		SupplierID string `json:"supplierId"`
	}
	if err := decode(args, &in); err != nil {
		return Result{}, err
	}
	if err := requireField("productId", in.ProductID); err != nil {
		return Result{}, err
	}
	offers, err := s.Catalog.Offers(in.ProductID, in.SupplierID)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: offers}, nil
}

func (s Services) getSupplierInfo(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		SupplierID string `json:"supplierId"`
	}
	if err := decode(args, &in); err != nil {
		return Result{}, err
	}
	if err := requireField("supplierId", in.SupplierID); err != nil {
		return Result{}, err
	}
	supplier, err := s.Catalog.Supplier(in.SupplierID)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: supplier}, nil
}

// createAuditRecord always writes, whatever the user's department requires.
// The record carries the user's department when the user is known.
func (s Services) createAuditRecord(ctx context.Context, args json.RawMessage) (Result, error) {
	if s.Recorder == nil {
		return Result{}, errors.New("audit recorder not configured")
	}
	var in struct {
		UserID    string         `json:"userId"`
		Action    string         `json:"action"`
		Details   map[string]any `json:"details"`
		Reasoning string         `json:"reasoning"`
	}
	if err := decode(args, &in); err != nil {
		return Result{}, err
	}
	if err := requireField("userId", in.UserID); err != nil {
		return Result{}, err
	}
	if err := requireField("action", in.Action); err != nil {
		return Result{}, err
	}

	entry := audit.Entry{
		UserID:    in.UserID,
		Action:    in.Action,
		Details:   in.Details,
		Reasoning: in.Reasoning,
	}
	if user, err := s.Catalog.User(in.UserID); err == nil {
		entry.DepartmentID = user.DepartmentID
	}

	record, err := s.Recorder.Write(ctx, entry)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: record}, nil
}

func (s Services) recommendPurchase(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		RequestID string `json:"requestId"`
		UserID    string `json:"userId"`
		Query     string `json:"query"`
	}
	if err := decode(args, &in); err != nil {
		return Result{}, err
	}

	d, err := s.Engine.Decide(ctx, decision.Request{RequestID: in.RequestID, UserID: in.UserID, Query: in.Query})
	if d != nil {
		return Result{Content: d}, err
	}
	return Result{}, err
}

func decode(args json.RawMessage, v any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return invalidArgs("%v", err)
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidArgs("%s is required", name)
	}
	return nil
}

func tool(name, description string, parameters map[string]any) Tool {
	return Tool{Name: name, Description: description, Parameters: parameters}
}

type param struct {
	name        string
	description string
	required    bool
	schema      map[string]any
}

func required(name, description string) param {
	return param{name: name, description: description, required: true}
}

func optional(name, description string) param {
	return param{name: name, description: description}
}

// params builds a JSON-schema object of string properties.
func params(ps ...param) map[string]any {
	properties := make(map[string]any, len(ps))
	req := []string{}
	for _, p := range ps {
		schema := p.schema
		if schema == nil {
			schema = map[string]any{"type": "string"}
		}
		schema["description"] = p.description
		properties[p.name] = schema
		if p.required {
			req = append(req, p.name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   req,
	}
}

func createAuditParams() map[string]any {
	return params(
		required("userId", "The user who made the request"),
		required("action", fmt.Sprintf("The action taken, e.g. %q or %q",
			audit.ActionPurchaseRecommended, audit.ActionPurchaseDeniedPolicy)),
		param{name: "details", description: "Additional details about the decision", schema: map[string]any{"type": "object"}},
		optional("reasoning", "Reasoning for the decision"),
	)
}
