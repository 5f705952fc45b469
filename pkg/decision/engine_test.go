package decision

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/procurement/pkg/audit"
	"mercator-hq/procurement/pkg/audit/storage"
	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/budget/ledger"
	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/config"
	"mercator-hq/procurement/pkg/telemetry/tracing"
)

var testNow = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

type fixture struct {
	engine  *Engine
	ledger  *ledger.MemoryLedger
	storage *storage.MemoryStorage
	tracker *budget.Tracker
}

func newFixture(t *testing.T, cat *catalog.Store) *fixture {
	t.Helper()

	now := func() time.Time { return testNow }
	l := ledger.NewMemoryLedger()
	tracker := budget.NewTracker(cat, l, budget.Config{Now: now})
	store := storage.NewMemoryStorage()
	recorder := audit.NewRecorder(store, &audit.Config{Now: now})

	engine, err := NewEngine(Options{
		Catalog:  cat,
		Budget:   tracker,
		Recorder: recorder,
		Now:      now,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return &fixture{engine: engine, ledger: l, storage: store, tracker: tracker}
}

func sampleCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Load(filepath.Join("..", "..", "data"))
	if err != nil {
		t.Fatalf("failed to load sample catalog: %v", err)
	}
	return store
}

func auditRecords(t *testing.T, s *storage.MemoryStorage) []*audit.Record {
	t.Helper()
	records, err := s.Query(context.Background(), &audit.Query{})
	if err != nil {
		t.Fatalf("audit query failed: %v", err)
	}
	return records
}

func states(d *Decision) []State {
	out := []State{StateResolving}
	for _, tr := range d.Trail {
		out = append(out, tr.To)
	}
	return out
}

func equalStates(a, b []State) bool {
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

func TestDecide_UnauthorizedCategory(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))

	d, err := f.engine.Decide(context.Background(), Request{UserID: "u002", Query: "laptop"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if d.State != StateRejectedPolicy {
		t.Fatalf("Expected %s, got %s", StateRejectedPolicy, d.State)
	}
	if d.Rejection == nil || d.Rejection.Reason != ReasonPolicy {
		t.Errorf("Expected policy rejection, got %+v", d.Rejection)
	}
	if d.Product == nil || d.Product.Category != "electronics" {
		t.Errorf("Expected electronics product, got %+v", d.Product)
	}
	if d.Budget != nil || d.Selected != nil {
		t.Error("Expected no budget check and no selected offer")
	}

	want := []State{StateResolving, StatePolicyCheck, StateRejectedPolicy}
	if got := states(d); !equalStates(got, want) {
		t.Errorf("Expected trail %v, got %v", want, got)
	}

	if entry, _ := f.ledger.Get(context.Background(), "HR"); entry != nil {
		t.Errorf("Expected ledger untouched, got %+v", entry)
	}

	records := auditRecords(t, f.storage)
	if len(records) != 1 || records[0].Action != audit.ActionPurchaseDeniedPolicy {
		t.Fatalf("Expected one denied_policy record, got %+v", records)
	}
	if d.AuditRecordID != records[0].ID {
		t.Errorf("Expected decision to reference audit record %s, got %s", records[0].ID, d.AuditRecordID)
	}
}

func TestDecide_BudgetExceeded(t *testing.T) {
	spent := decimal.NewFromInt(19500)
	cat, err := catalog.New(&catalog.Document{
		Users: []catalog.UserRecord{{UserID: "u003", Name: "Carol Davis", DepartmentID: "FIN"}},
		Departments: []catalog.DepartmentRecord{{
			DepartmentID:      "FIN",
			Name:              "Finance",
			AllowedCategories: []string{"electronics"},
			PurchaseStrategy:  "cheapest",
			MonthlyBudget:     decimal.NewFromInt(20000),
			RequiresAudit:     true,
			InitialSpent:      &spent,
		}},
		Products:  []catalog.ProductRecord{{ProductID: "P001", Name: "Business Laptop", Category: "electronics"}},
		Suppliers: []catalog.SupplierRecord{{SupplierID: "S001", Name: "TechSource Inc."}},
		Offers: []catalog.OfferRecord{
			{ProductID: "P001", SupplierID: "S001", Price: decimal.NewFromInt(800), Availability: "in_stock", DeliveryDays: 3},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	f := newFixture(t, cat)

	d, err := f.engine.Decide(context.Background(), Request{UserID: "u003", Query: "laptop"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if d.State != StateRejectedBudget {
		t.Fatalf("Expected %s, got %s", StateRejectedBudget, d.State)
	}
	if d.Rejection == nil || d.Rejection.Remaining == nil {
		t.Fatalf("Expected remaining headroom, got %+v", d.Rejection)
	}
	if !d.Rejection.Remaining.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected remaining 500, got %s", d.Rejection.Remaining)
	}
	if d.Selected != nil {
		t.Error("Expected no selected offer after a pre-check rejection")
	}

	snap, err := f.tracker.Snapshot(context.Background(), "FIN")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap.Spent.Equal(spent) {
		t.Errorf("Expected spend unchanged at 19500, got %s", snap.Spent)
	}

	records := auditRecords(t, f.storage)
	if len(records) != 1 || records[0].Action != audit.ActionPurchaseDeniedBudget {
		t.Fatalf("Expected one denied_budget record, got %+v", records)
	}
	if records[0].Details["budget_remaining"] != "500.00" {
		t.Errorf("Expected budget_remaining 500.00 in details, got %v", records[0].Details["budget_remaining"])
	}
}

func TestDecide_EquivalentProduct(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))

	d, err := f.engine.Decide(context.Background(), Request{UserID: "u001", Query: "computer"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if d.Product == nil || d.Product.Name != "Business Laptop" {
		t.Fatalf("Expected Business Laptop, got %+v", d.Product)
	}
	if d.State != StateDone {
		t.Fatalf("Expected %s, got %s", StateDone, d.State)
	}

	// IT buys fastest: S003 delivers in 2 days at 1296.
	if d.Selected.SupplierID != "S003" {
		t.Errorf("Expected S003, got %s", d.Selected.SupplierID)
	}
	if !d.Budget.Spent.Equal(decimal.NewFromInt(3796)) {
		t.Errorf("Expected spent 3796 (2500 seed + 1296), got %s", d.Budget.Spent)
	}
	if d.AuditRecordID != "" {
		t.Errorf("Expected no audit record for IT, got %s", d.AuditRecordID)
	}
	if n := len(auditRecords(t, f.storage)); n != 0 {
		t.Errorf("Expected no audit records, got %d", n)
	}

	rec := d.Recommendation()
	if rec == nil || rec.Supplier.Name != "Express Equipment" || !rec.TotalCost.Equal(decimal.NewFromInt(1296)) {
		t.Errorf("Unexpected recommendation %+v", rec)
	}
}

func TestDecide_ComplexStrategyAudited(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))

	d, err := f.engine.Decide(context.Background(), Request{RequestID: "req-eng-1", UserID: "u004", Query: "laptop"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	want := []State{StateResolving, StatePolicyCheck, StateBudgetPreCheck, StateSelecting, StateBudgetCommit, StateAuditing, StateDone}
	if got := states(d); !equalStates(got, want) {
		t.Errorf("Expected trail %v, got %v", want, got)
	}

	// Within 5 days: S001 (1200, 3d) and S003 (1296, 2d). Threshold is
	// 1320, so the faster S003 wins.
	if d.Selected.SupplierID != "S003" {
		t.Errorf("Expected S003, got %s", d.Selected.SupplierID)
	}
	if d.Degraded {
		t.Error("Expected non-degraded selection")
	}
	if len(d.Alternatives) != 2 {
		t.Errorf("Expected 2 alternatives, got %d", len(d.Alternatives))
	}

	records := auditRecords(t, f.storage)
	if len(records) != 1 {
		t.Fatalf("Expected 1 audit record, got %d", len(records))
	}
	record := records[0]
	if record.Action != audit.ActionPurchaseRecommended {
		t.Errorf("Expected %s, got %s", audit.ActionPurchaseRecommended, record.Action)
	}
	if record.DepartmentID != "ENG" || record.UserID != "u004" {
		t.Errorf("Unexpected record owner %s/%s", record.UserID, record.DepartmentID)
	}
	if record.Details["request_id"] != "req-eng-1" || record.Details["price"] != "1296.00" {
		t.Errorf("Unexpected details %v", record.Details)
	}
	if record.Details["state"] != string(StateDone) {
		t.Errorf("Expected state done in details, got %v", record.Details["state"])
	}
	if record.Reasoning != d.Justification {
		t.Errorf("Expected reasoning to be the justification, got %q", record.Reasoning)
	}
	if !audit.VerifyHash(record) {
		t.Error("Expected details hash to verify")
	}
}

func TestDecide_NoQualifyingOffer(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))

	d, err := f.engine.Decide(context.Background(), Request{UserID: "u004", Query: "monitor"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if d.State != StateRejectedNoOffer {
		t.Fatalf("Expected %s, got %s", StateRejectedNoOffer, d.State)
	}
	if d.Rejection.Reason != ReasonNoOffer {
		t.Errorf("Expected reason %s, got %s", ReasonNoOffer, d.Rejection.Reason)
	}
	want := []State{StateResolving, StatePolicyCheck, StateBudgetPreCheck, StateSelecting, StateRejectedNoOffer}
	if got := states(d); !equalStates(got, want) {
		t.Errorf("Expected trail %v, got %v", want, got)
	}
	if d.Selected != nil {
		t.Errorf("Expected no selected offer, got %+v", d.Selected)
	}

	records := auditRecords(t, f.storage)
	if len(records) != 1 || records[0].Action != audit.ActionPurchaseDeniedNoOffer {
		t.Fatalf("Expected one denied_no_offer record, got %+v", records)
	}
}

func TestDecide_NoProduct(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))

	d, err := f.engine.Decide(context.Background(), Request{UserID: "u004", Query: "unicorn"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.State != StateRejectedNoProduct {
		t.Fatalf("Expected %s, got %s", StateRejectedNoProduct, d.State)
	}
	if len(d.Candidates) != 0 || d.Product != nil {
		t.Errorf("Expected no candidates, got %v", d.Candidates)
	}

	records := auditRecords(t, f.storage)
	if len(records) != 1 || records[0].Action != audit.ActionPurchaseDeniedNoProduct {
		t.Errorf("Expected one denied_no_product record, got %+v", records)
	}
}

func TestDecide_AuditFailureKeepsCommit(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))
	f.storage.FailWrites(errors.New("disk full"))

	d, err := f.engine.Decide(context.Background(), Request{UserID: "u004", Query: "laptop"})
	if !errors.Is(err, audit.ErrAuditWriteFailed) {
		t.Fatalf("Expected ErrAuditWriteFailed, got %v", err)
	}
	var writeErr *audit.WriteError
	if !errors.As(err, &writeErr) || writeErr.UserID != "u004" {
		t.Errorf("Expected *audit.WriteError for u004, got %v", err)
	}
	if d == nil {
		t.Fatal("Expected decision alongside audit error")
	}
	if d.State != StateDone || d.AuditRecordID != "" {
		t.Errorf("Expected done without audit record, got %s / %q", d.State, d.AuditRecordID)
	}

	snap, err := f.tracker.Snapshot(context.Background(), "ENG")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap.Spent.Equal(decimal.NewFromInt(1296)) {
		t.Errorf("Expected committed spend 1296 to stand, got %s", snap.Spent)
	}
}

func TestDecide_Errors(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))

	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{name: "missing user", req: Request{Query: "laptop"}, target: ErrInvalidRequest},
		{name: "blank query", req: Request{UserID: "u001", Query: "  "}, target: ErrInvalidRequest},
		{name: "unknown user", req: Request{UserID: "u999", Query: "laptop"}, target: catalog.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.engine.Decide(context.Background(), tt.req)
			if !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
			if d != nil {
				t.Errorf("Expected nil decision, got %+v", d)
			}
		})
	}
}

func TestDecide_ConcurrentCommitsNeverExceedLimit(t *testing.T) {
	f := newFixture(t, sampleCatalog(t))

	// MKT: limit 8000, fastest; the chair costs 315 from S004.
	const requests = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		rejected int
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := f.engine.Decide(context.Background(), Request{UserID: "u005", Query: "chair"})
			if err != nil {
				t.Errorf("Decide failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch d.State {
			case StateDone:
				done++
			case StateRejectedBudget:
				rejected++
			default:
				t.Errorf("Unexpected state %s", d.State)
			}
		}()
	}
	wg.Wait()

	if done != 25 || rejected != 15 {
		t.Errorf("Expected 25 done and 15 rejected, got %d and %d", done, rejected)
	}

	snap, err := f.tracker.Snapshot(context.Background(), "MKT")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Spent.GreaterThan(snap.Limit) {
		t.Errorf("Spent %s exceeds limit %s", snap.Spent, snap.Limit)
	}
	if !snap.Spent.Equal(decimal.NewFromInt(25 * 315)) {
		t.Errorf("Expected spent 7875, got %s", snap.Spent)
	}
}

func TestDecide_Spans(t *testing.T) {
	cat := sampleCatalog(t)
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{Enabled: true, Sampler: tracing.SamplerAlways}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter failed: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	f := newFixture(t, cat)
	f.engine.tracer = tracer

	if _, err := f.engine.Decide(context.Background(), Request{UserID: "u004", Query: "laptop"}); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	names := map[string]bool{}
	for _, span := range exporter.GetSpans() {
		names[span.Name] = true
	}
	for _, want := range []string{
		tracing.SpanDecide, tracing.SpanSearch, tracing.SpanPolicy, tracing.SpanBudget,
		tracing.SpanSelect, tracing.SpanCommit, tracing.SpanAudit,
	} {
		if !names[want] {
			t.Errorf("Expected span %s, got %v", want, names)
		}
	}
}

func TestNewEngine_RequiresCollaborators(t *testing.T) {
	if _, err := NewEngine(Options{}); err == nil {
		t.Error("Expected error without catalog")
	}
	cat := sampleCatalog(t)
	if _, err := NewEngine(Options{Catalog: cat}); err == nil {
		t.Error("Expected error without budget tracker")
	}
}
