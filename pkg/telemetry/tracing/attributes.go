package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names for the decision stages.
const (
	SpanDecide    = "decision.decide"
	SpanSearch    = "decision.search"
	SpanPolicy    = "decision.policy"
	SpanBudget    = "decision.budget"
	SpanSelect    = "decision.select"
	SpanCommit    = "decision.commit"
	SpanAudit     = "decision.audit"
	SpanToolCall  = "tool.call"
	SpanHTTPServe = "http.request"
)

// Attribute keys use the "procurement.*" namespace.
const (
	AttrRequestID  = "procurement.request_id"
	AttrUser       = "procurement.user"
	AttrDepartment = "procurement.department"
	AttrQuery      = "procurement.query"

	AttrProductID  = "procurement.product.id"
	AttrCategory   = "procurement.product.category"
	AttrCandidates = "procurement.search.candidates"

	AttrStrategy       = "procurement.strategy"
	AttrOffersUsable   = "procurement.offers.usable"
	AttrSelectedOffer  = "procurement.offer.supplier"
	AttrPrice          = "procurement.offer.price"
	AttrBudgetLimit    = "procurement.budget.limit"
	AttrBudgetSpent    = "procurement.budget.spent"
	AttrBudgetRemain   = "procurement.budget.remaining"
	AttrPolicyAllowed  = "procurement.policy.allowed"
	AttrOutcome        = "procurement.decision.outcome"
	AttrCommitAttempts = "procurement.commit.attempts"
	AttrAuditRecordID  = "procurement.audit.record_id"

	AttrTool       = "procurement.tool.name"
	AttrToolStatus = "procurement.tool.status"
)

// SetRequestAttributes sets who asked for what.
func SetRequestAttributes(span trace.Span, user, department, query string) {
	span.SetAttributes(
		attribute.String(AttrUser, user),
		attribute.String(AttrDepartment, department),
		attribute.String(AttrQuery, query),
	)
}

// SetBudgetAttributes sets the budget view a decision was checked against.
// Amounts are decimal strings so no precision is lost.
func SetBudgetAttributes(span trace.Span, limit, spent, remaining string) {
	span.SetAttributes(
		attribute.String(AttrBudgetLimit, limit),
		attribute.String(AttrBudgetSpent, spent),
		attribute.String(AttrBudgetRemain, remaining),
	)
}

// AddEvent adds an event to the span with optional attributes.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// AttributeBuilder accumulates span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates an empty builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{}
}

// WithString adds a string attribute when value is non-empty.
func (ab *AttributeBuilder) WithString(key, value string) *AttributeBuilder {
	if value != "" {
		ab.attrs = append(ab.attrs, attribute.String(key, value))
	}
	return ab
}

// WithInt adds an integer attribute.
func (ab *AttributeBuilder) WithInt(key string, value int) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.Int(key, value))
	return ab
}

// WithBool adds a boolean attribute.
func (ab *AttributeBuilder) WithBool(key string, value bool) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.Bool(key, value))
	return ab
}

// Build returns the attributes as a span start option.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply sets the attributes on span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the accumulated attributes.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
