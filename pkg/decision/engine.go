package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/procurement/pkg/audit"
	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/catalog/search"
	"mercator-hq/procurement/pkg/policy"
	"mercator-hq/procurement/pkg/procurement"
	"mercator-hq/procurement/pkg/strategy"
	"mercator-hq/procurement/pkg/telemetry/logging"
	"mercator-hq/procurement/pkg/telemetry/metrics"
	"mercator-hq/procurement/pkg/telemetry/tracing"
)

// Options wires an Engine to its collaborators. Catalog, Budget and
// Recorder are required.
type Options struct {
	Catalog  catalog.Catalog
	Resolver *search.Resolver
	Budget   *budget.Tracker
	Recorder *audit.Recorder

	// Metrics and Tracer are optional.
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Engine runs the purchase-decision pipeline. It is safe for concurrent
// use; each Decide call owns its Decision.
type Engine struct {
	catalog  catalog.Catalog
	resolver *search.Resolver
	budget   *budget.Tracker
	recorder *audit.Recorder
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	now      func() time.Time
	logger   *slog.Logger
}

// NewEngine creates an engine. A nil Resolver uses the default synonym
// table over opts.Catalog.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, errors.New("decision engine requires a catalog")
	}
	if opts.Budget == nil {
		return nil, errors.New("decision engine requires a budget tracker")
	}
	if opts.Recorder == nil {
		return nil, errors.New("decision engine requires an audit recorder")
	}
	if opts.Resolver == nil {
		opts.Resolver = search.New(opts.Catalog, nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		catalog:  opts.Catalog,
		resolver: opts.Resolver,
		budget:   opts.Budget,
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		now:      opts.Now,
		logger:   slog.Default().With("component", "decision"),
	}, nil
}

// Decide runs one request through search, policy, budget pre-check,
// strategy selection, budget commit and audit.
//
// Business rejections are returned as a Decision in a Rejected state with
// a nil error. Errors are returned for unknown users or departments, budget
// infrastructure faults, and audit write failures. An audit failure does
// not undo a committed purchase: the Decision is returned together with the
// *audit.WriteError.
func (e *Engine) Decide(ctx context.Context, req Request) (*Decision, error) {
	start := e.now()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx = logging.WithRequestID(ctx, req.RequestID)
	ctx, span := e.tracer.Start(ctx, tracing.SpanDecide,
		trace.WithAttributes(attribute.String(tracing.AttrRequestID, req.RequestID)))
	defer span.End()

	d, dept, err := e.run(ctx, req, start)
	if err != nil {
		tracing.SetError(span, err)
		e.metrics.RecordDecision("error", "", e.now().Sub(start))
		e.logger.ErrorContext(ctx, "Decision failed", "query", req.Query, "error", err)
		return nil, err
	}

	auditErr := e.audit(ctx, d, dept)
	d.CompletedAt = e.now()

	span.SetAttributes(attribute.String(tracing.AttrOutcome, string(d.State)))
	if auditErr != nil {
		tracing.SetError(span, auditErr)
	}
	e.metrics.RecordDecision(string(d.State), d.Strategy, d.CompletedAt.Sub(start))

	e.logger.InfoContext(ctx, "Decision made",
		"state", d.State,
		"query", d.Query,
		"product", productID(d.Product),
		"supplier", supplierID(d.Selected),
		"audit_record", d.AuditRecordID,
		"duration", d.CompletedAt.Sub(start),
	)

	return d, auditErr
}

// run executes the pipeline up to a terminal state. It returns a nil
// Decision only with an error.
func (e *Engine) run(ctx context.Context, req Request, start time.Time) (*Decision, *procurement.Department, error) {
	user, err := e.catalog.User(req.UserID)
	if err != nil {
		return nil, nil, err
	}
	dept, err := e.catalog.Department(user.DepartmentID)
	if err != nil {
		return nil, nil, err
	}

	ctx = logging.WithDepartment(logging.WithUser(ctx, user.ID), dept.ID)
	tracing.SetRequestAttributes(trace.SpanFromContext(ctx), user.ID, dept.ID, req.Query)

	d := &Decision{
		RequestID:    req.RequestID,
		UserID:       user.ID,
		DepartmentID: dept.ID,
		Query:        req.Query,
		State:        StateResolving,
		Strategy:     dept.Strategy.String(),
		StartedAt:    start,
	}

	// Resolving
	product, done, err := e.resolve(ctx, d, dept)
	if err != nil || done {
		return orNil(d, err), dept, err
	}

	// Budget pre-check with the cheapest usable price: if that does not
	// fit, no offer can.
	offers, done, err := e.preCheck(ctx, d, dept, product)
	if err != nil || done {
		return orNil(d, err), dept, err
	}

	// Selecting
	selection, done, err := e.selectOffer(ctx, d, dept, offers)
	if err != nil || done {
		return orNil(d, err), dept, err
	}

	// Commit
	if done, err := e.commit(ctx, d, dept, selection); err != nil || done {
		return orNil(d, err), dept, err
	}

	return d, dept, nil
}

func orNil(d *Decision, err error) *Decision {
	if err != nil {
		return nil
	}
	return d
}

// resolve maps the query to products and applies the category policy. The
// first product that passes policy is used.
func (e *Engine) resolve(ctx context.Context, d *Decision, dept *procurement.Department) (*procurement.Product, bool, error) {
	_, span := e.tracer.Start(ctx, tracing.SpanSearch)
	d.Candidates = e.resolver.Resolve(d.Query)
	span.SetAttributes(attribute.Int(tracing.AttrCandidates, len(d.Candidates)))
	span.End()

	if len(d.Candidates) == 0 {
		return nil, true, d.reject(StateRejectedNoProduct, &Rejection{
			Reason:  ReasonNoProduct,
			Message: fmt.Sprintf("no product matches %q", d.Query),
		}, e.now())
	}

	if err := d.advance(StatePolicyCheck, e.now()); err != nil {
		return nil, false, err
	}

	_, span = e.tracer.Start(ctx, tracing.SpanPolicy)
	defer span.End()

	var first *policy.Result
	for _, candidate := range d.Candidates {
		result := policy.Evaluate(dept, candidate)
		if first == nil {
			first = &result
		}
		if result.Allowed {
			d.Product = candidate
			d.Policy = &result
			span.SetAttributes(
				attribute.Bool(tracing.AttrPolicyAllowed, true),
				attribute.String(tracing.AttrProductID, candidate.ID),
			)
			return candidate, false, nil
		}
	}

	d.Product = d.Candidates[0]
	d.Policy = first
	span.SetAttributes(attribute.Bool(tracing.AttrPolicyAllowed, false))
	return nil, true, d.reject(StateRejectedPolicy, &Rejection{
		Reason:  ReasonPolicy,
		Message: first.Reason,
	}, e.now())
}

func (e *Engine) preCheck(ctx context.Context, d *Decision, dept *procurement.Department, product *procurement.Product) ([]procurement.Offer, bool, error) {
	if err := d.advance(StateBudgetPreCheck, e.now()); err != nil {
		return nil, false, err
	}

	ctx, span := e.tracer.Start(ctx, tracing.SpanBudget)
	defer span.End()

	offers, err := e.catalog.Offers(product.ID, "")
	if err != nil {
		tracing.SetError(span, err)
		return nil, false, err
	}
	d.Offers = offers

	usable := strategy.Usable(offers)
	e.metrics.RecordOffersConsidered(len(usable))
	span.SetAttributes(attribute.Int(tracing.AttrOffersUsable, len(usable)))

	// With nothing in stock there is no price to check; selection rejects.
	if len(usable) == 0 {
		return offers, false, nil
	}

	cheapest := usable[0].Price
	for _, o := range usable[1:] {
		if o.Price.LessThan(cheapest) {
			cheapest = o.Price
		}
	}

	snap, err := e.budget.Check(ctx, dept.ID, cheapest)
	var exceeded *budget.ExceededError
	switch {
	case errors.As(err, &exceeded):
		d.Budget = &snap
		tracing.SetBudgetAttributes(span, snap.Limit.StringFixed(2), snap.Spent.StringFixed(2), snap.Remaining.StringFixed(2))
		return nil, true, d.reject(StateRejectedBudget, budgetRejection(exceeded), e.now())
	case err != nil:
		tracing.SetError(span, err)
		return nil, false, fmt.Errorf("budget pre-check failed: %w", err)
	}

	tracing.SetBudgetAttributes(span, snap.Limit.StringFixed(2), snap.Spent.StringFixed(2), snap.Remaining.StringFixed(2))
	return offers, false, nil
}

func (e *Engine) selectOffer(ctx context.Context, d *Decision, dept *procurement.Department, offers []procurement.Offer) (*strategy.Selection, bool, error) {
	if err := d.advance(StateSelecting, e.now()); err != nil {
		return nil, false, err
	}

	_, span := e.tracer.Start(ctx, tracing.SpanSelect,
		trace.WithAttributes(attribute.String(tracing.AttrStrategy, d.Strategy)))
	defer span.End()

	selection, err := strategy.Select(dept.Strategy, offers)
	if errors.Is(err, strategy.ErrNoQualifyingOffer) {
		return nil, true, d.reject(StateRejectedNoOffer, &Rejection{
			Reason:  ReasonNoOffer,
			Message: err.Error(),
		}, e.now())
	}
	if err != nil {
		tracing.SetError(span, err)
		return nil, false, err
	}

	supplier, err := e.catalog.Supplier(selection.Offer.SupplierID)
	if err != nil {
		tracing.SetError(span, err)
		return nil, false, err
	}

	d.Selected = &selection.Offer
	d.Supplier = supplier
	d.Alternatives = selection.Alternatives
	d.Justification = selection.Justification
	d.Degraded = selection.Degraded

	span.SetAttributes(
		attribute.String(tracing.AttrSelectedOffer, selection.Offer.SupplierID),
		attribute.String(tracing.AttrPrice, selection.Offer.Price.StringFixed(2)),
	)
	return selection, false, nil
}

// commit records the selected price. A concurrency conflict is retried
// once with a fresh snapshot.
func (e *Engine) commit(ctx context.Context, d *Decision, dept *procurement.Department, selection *strategy.Selection) (bool, error) {
	if err := d.advance(StateBudgetCommit, e.now()); err != nil {
		return false, err
	}

	ctx, span := e.tracer.Start(ctx, tracing.SpanCommit)
	defer span.End()

	d.CommitID = uuid.NewString()
	price := selection.Offer.Price

	var (
		snap     budget.Snapshot
		err      error
		attempts int
	)
	for attempts = 1; attempts <= 2; attempts++ {
		snap, err = e.budget.Commit(ctx, dept.ID, price, d.CommitID)
		if !errors.Is(err, budget.ErrConcurrencyConflict) {
			break
		}
		e.metrics.RecordBudgetCommit(dept.ID, "conflict")
		e.logger.WarnContext(ctx, "Budget commit conflict, retrying",
			"commit_id", d.CommitID, "attempt", attempts)
	}
	span.SetAttributes(attribute.Int(tracing.AttrCommitAttempts, min(attempts, 2)))

	var exceeded *budget.ExceededError
	switch {
	case errors.As(err, &exceeded):
		e.metrics.RecordBudgetCommit(dept.ID, "exceeded")
		d.Budget = &snap
		return true, d.reject(StateRejectedBudget, budgetRejection(exceeded), e.now())
	case err != nil:
		e.metrics.RecordBudgetCommit(dept.ID, "error")
		tracing.SetError(span, err)
		return false, fmt.Errorf("budget commit failed: %w", err)
	}

	e.metrics.RecordBudgetCommit(dept.ID, "committed")
	e.metrics.UpdateBudget(dept.ID, snap.Spent.InexactFloat64(), snap.Remaining.InexactFloat64())
	d.Budget = &snap
	tracing.SetBudgetAttributes(span, snap.Limit.StringFixed(2), snap.Spent.StringFixed(2), snap.Remaining.StringFixed(2))

	return false, d.advance(StateAuditing, e.now())
}

// audit records the terminal decision when the department requires it and
// completes the Auditing stage of a successful decision.
func (e *Engine) audit(ctx context.Context, d *Decision, dept *procurement.Department) error {
	ctx, span := e.tracer.Start(ctx, tracing.SpanAudit)
	defer span.End()

	started := e.now()
	record, err := e.recorder.RecordIfRequired(ctx, dept, auditEntry(d))
	if dept.AuditRequired {
		e.metrics.RecordAuditWrite(err == nil, e.now().Sub(started))
	}

	if d.State == StateAuditing {
		if advanceErr := d.advance(StateDone, e.now()); advanceErr != nil {
			return advanceErr
		}
	}

	if err != nil {
		tracing.SetError(span, err)
		e.logger.ErrorContext(ctx, "Decision stands without audit record",
			"state", d.State, "commit_id", d.CommitID, "error", err)
		return err
	}
	if record != nil {
		d.AuditRecordID = record.ID
		span.SetAttributes(attribute.String(tracing.AttrAuditRecordID, record.ID))
	}
	return nil
}

// Action returns the audit action tag for a terminal state.
func Action(s State) string {
	switch s {
	case StateRejectedPolicy:
		return audit.ActionPurchaseDeniedPolicy
	case StateRejectedBudget:
		return audit.ActionPurchaseDeniedBudget
	case StateRejectedNoOffer:
		return audit.ActionPurchaseDeniedNoOffer
	case StateRejectedNoProduct:
		return audit.ActionPurchaseDeniedNoProduct
	default:
		return audit.ActionPurchaseRecommended
	}
}

func auditEntry(d *Decision) audit.Entry {
	state := d.State
	if state == StateAuditing {
		state = StateDone
	}
	details := map[string]any{
		"request_id": d.RequestID,
		"query":      d.Query,
		"state":      string(state),
		"strategy":   d.Strategy,
	}
	if d.Product != nil {
		details["product_id"] = d.Product.ID
		details["product_name"] = d.Product.Name
		details["category"] = d.Product.Category
	}
	if d.Selected != nil {
		details["supplier_id"] = d.Selected.SupplierID
		details["price"] = d.Selected.Price.StringFixed(2)
		details["delivery_days"] = d.Selected.DeliveryDays
		details["degraded"] = d.Degraded
		details["alternatives"] = len(d.Alternatives)
	}
	if d.Budget != nil {
		details["budget_limit"] = d.Budget.Limit.StringFixed(2)
		details["budget_spent"] = d.Budget.Spent.StringFixed(2)
		details["budget_remaining"] = d.Budget.Remaining.StringFixed(2)
		details["budget_period"] = d.Budget.Period
	}
	if d.CommitID != "" && state == StateDone {
		details["commit_id"] = d.CommitID
	}

	reasoning := d.Justification
	if d.Rejection != nil {
		details["rejection_reason"] = d.Rejection.Reason
		reasoning = d.Rejection.Message
	}

	return audit.Entry{
		UserID:       d.UserID,
		DepartmentID: d.DepartmentID,
		Action:       Action(d.State),
		Details:      details,
		Reasoning:    reasoning,
	}
}

func budgetRejection(err *budget.ExceededError) *Rejection {
	remaining := err.Remaining
	return &Rejection{
		Reason:    ReasonBudget,
		Message:   err.Error(),
		Remaining: &remaining,
	}
}

func productID(p *procurement.Product) string {
	if p == nil {
		return ""
	}
	return p.ID
}

func supplierID(o *procurement.Offer) string {
	if o == nil {
		return ""
	}
	return o.SupplierID
}
