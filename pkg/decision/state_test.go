package decision

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from State
		to   State
		want bool
	}{
		{StateResolving, StatePolicyCheck, true},
		{StateResolving, StateRejectedNoProduct, true},
		{StatePolicyCheck, StateBudgetPreCheck, true},
		{StatePolicyCheck, StateRejectedPolicy, true},
		{StateBudgetPreCheck, StateSelecting, true},
		{StateBudgetPreCheck, StateRejectedBudget, true},
		{StateBudgetPreCheck, StateRejectedNoOffer, false},
		{StateSelecting, StateBudgetCommit, true},
		{StateSelecting, StateRejectedNoOffer, true},
		{StateBudgetCommit, StateAuditing, true},
		{StateBudgetCommit, StateRejectedBudget, true},
		{StateAuditing, StateDone, true},

		{StateResolving, StateSelecting, false},
		{StatePolicyCheck, StateRejectedBudget, false},
		{StateSelecting, StateResolving, false},
		{StateBudgetCommit, StateRejectedNoOffer, false},
		{StateDone, StateResolving, false},
		{StateRejectedPolicy, StatePolicyCheck, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestState_Terminal(t *testing.T) {
	terminal := []State{StateDone, StateRejectedNoProduct, StateRejectedPolicy, StateRejectedBudget, StateRejectedNoOffer}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}

	open := []State{StateResolving, StatePolicyCheck, StateBudgetPreCheck, StateSelecting, StateBudgetCommit, StateAuditing}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("Expected %s to be non-terminal", s)
		}
		if _, ok := transitions[s]; !ok {
			t.Errorf("Expected successors for %s", s)
		}
	}

	if StateDone.Rejected() {
		t.Error("Expected done not to be a rejection")
	}
}

func TestDecision_Advance(t *testing.T) {
	at := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	d := &Decision{RequestID: "r1", State: StateResolving}

	if err := d.advance(StatePolicyCheck, at); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if err := d.reject(StateRejectedPolicy, &Rejection{Reason: ReasonPolicy}, at); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if d.State != StateRejectedPolicy || len(d.Trail) != 2 {
		t.Errorf("Expected rejected_policy after 2 transitions, got %s after %d", d.State, len(d.Trail))
	}

	err := d.advance(StateBudgetPreCheck, at)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Expected *TransitionError, got %v", err)
	}
	if te.From != StateRejectedPolicy || te.To != StateBudgetPreCheck {
		t.Errorf("Unexpected transition error %+v", te)
	}
	if d.State != StateRejectedPolicy {
		t.Errorf("Expected state unchanged, got %s", d.State)
	}
	if d.Recommended() || d.Recommendation() != nil {
		t.Error("Expected no recommendation for a rejected decision")
	}
}
