package decision

import (
	"time"

	"github.com/shopspring/decimal"

	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/policy"
	"mercator-hq/procurement/pkg/procurement"
)

// Request asks the engine for a purchase recommendation.
type Request struct {
	// RequestID correlates logs, spans and audit records. Generated when
	// empty.
	RequestID string `json:"request_id,omitempty"`

	// UserID identifies the requesting user.
	UserID string `json:"user_id"`

	// Query is the already-extracted product search text.
	Query string `json:"query"`
}

// Rejection reasons.
const (
	ReasonNoProduct = "no_product"
	ReasonPolicy    = "policy_violation"
	ReasonBudget    = "budget_exceeded"
	ReasonNoOffer   = "no_qualifying_offer"
)

// Rejection explains why no purchase was recommended.
type Rejection struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`

	// Remaining is the department's headroom, set for budget rejections.
	Remaining *decimal.Decimal `json:"remaining,omitempty"`
}

// Decision is the outcome of one request. It is owned by the call that
// created it.
type Decision struct {
	RequestID    string `json:"request_id"`
	UserID       string `json:"user_id"`
	DepartmentID string `json:"department_id"`
	Query        string `json:"query"`
	State        State  `json:"state"`

	// Candidates are the products the query resolved to, most relevant
	// first. Product is the one the decision was made for.
	Candidates []*procurement.Product `json:"candidates"`
	Product    *procurement.Product   `json:"product,omitempty"`
	Policy     *policy.Result         `json:"policy,omitempty"`

	Strategy      string                `json:"strategy,omitempty"`
	Offers        []procurement.Offer   `json:"offers,omitempty"`
	Selected      *procurement.Offer    `json:"selected,omitempty"`
	Supplier      *procurement.Supplier `json:"supplier,omitempty"`
	Alternatives  []procurement.Offer   `json:"alternatives,omitempty"`
	Justification string                `json:"justification,omitempty"`
	Degraded      bool                  `json:"degraded,omitempty"`

	Rejection *Rejection       `json:"rejection,omitempty"`
	Budget    *budget.Snapshot `json:"budget,omitempty"`
	CommitID  string           `json:"commit_id,omitempty"`

	AuditRecordID string `json:"audit_record_id,omitempty"`

	Trail       []Transition `json:"trail"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
}

// Recommended reports whether the pipeline reached Done.
func (d *Decision) Recommended() bool {
	return d.State == StateDone
}

// Recommendation is the caller-facing view of a successful decision.
type Recommendation struct {
	Product       *procurement.Product  `json:"product"`
	Supplier      *procurement.Supplier `json:"supplier"`
	Offer         procurement.Offer     `json:"offer"`
	TotalCost     decimal.Decimal       `json:"total_cost"`
	Justification string                `json:"justification"`
	Alternatives  []procurement.Offer   `json:"alternatives"`
}

// Recommendation returns the recommendation, or nil unless the decision
// reached Done. TotalCost is the committed price of a single unit.
func (d *Decision) Recommendation() *Recommendation {
	if !d.Recommended() || d.Selected == nil {
		return nil
	}
	return &Recommendation{
		Product:       d.Product,
		Supplier:      d.Supplier,
		Offer:         *d.Selected,
		TotalCost:     d.Selected.Price,
		Justification: d.Justification,
		Alternatives:  d.Alternatives,
	}
}

func (d *Decision) advance(to State, at time.Time) error {
	if !CanTransition(d.State, to) {
		return &TransitionError{RequestID: d.RequestID, From: d.State, To: to}
	}
	d.Trail = append(d.Trail, Transition{From: d.State, To: to, At: at})
	d.State = to
	return nil
}

func (d *Decision) reject(to State, rejection *Rejection, at time.Time) error {
	if err := d.advance(to, at); err != nil {
		return err
	}
	d.Rejection = rejection
	return nil
}
