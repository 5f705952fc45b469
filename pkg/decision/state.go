package decision

import (
	"time"
)

// State is a stage of the decision pipeline.
type State string

const (
	StateResolving      State = "resolving"
	StatePolicyCheck    State = "policy_check"
	StateBudgetPreCheck State = "budget_pre_check"
	StateSelecting      State = "selecting"
	StateBudgetCommit   State = "budget_commit"
	StateAuditing       State = "auditing"
	StateDone           State = "done"

	StateRejectedNoProduct State = "rejected_no_product"
	StateRejectedPolicy    State = "rejected_policy"
	StateRejectedBudget    State = "rejected_budget"
	StateRejectedNoOffer   State = "rejected_no_offer"
)

// transitions lists the states reachable from each non-terminal state.
// Each rejection is reachable only from the step that detects it.
var transitions = map[State][]State{
	StateResolving:      {StatePolicyCheck, StateRejectedNoProduct},
	StatePolicyCheck:    {StateBudgetPreCheck, StateRejectedPolicy},
	StateBudgetPreCheck: {StateSelecting, StateRejectedBudget},
	StateSelecting:      {StateBudgetCommit, StateRejectedNoOffer},
	StateBudgetCommit:   {StateAuditing, StateRejectedBudget},
	StateAuditing:       {StateDone},
}

// CanTransition reports whether the pipeline may move from one state to
// another. Transitions are one-way; terminal states have no successors.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the pipeline.
func (s State) Terminal() bool {
	return s == StateDone || s.Rejected()
}

// Rejected reports whether s is a rejection.
func (s State) Rejected() bool {
	switch s {
	case StateRejectedNoProduct, StateRejectedPolicy, StateRejectedBudget, StateRejectedNoOffer:
		return true
	}
	return false
}

// Transition is one entry of a decision's trail.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}
