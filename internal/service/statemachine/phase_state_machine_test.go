package statemachine

import (
	"errors"
	"testing"
)

func TestPhaseHappyPath(t *testing.T) {
	sm := NewPhaseStateMachine()
	path := []Phase{PhasePending, PhaseThinking, PhaseIntroducing, PhaseConversing, PhaseFinalizing, PhaseDone}
	for i := 0; i < len(path)-1; i++ {
		if !sm.CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestPhaseFeedbackReopens(t *testing.T) {
	sm := NewPhaseStateMachine()
	if !sm.CanTransition(PhaseDone, PhaseConversing) {
		t.Fatal("expected done -> conversing for feedback iteration")
	}
}

func TestPhaseRejectsSkips(t *testing.T) {
	sm := NewPhaseStateMachine()
	cases := []PhaseTransition{
		{PhasePending, PhaseConversing},
		{PhaseThinking, PhaseFinalizing},
		{PhaseDone, PhaseThinking},
		{PhaseFailed, PhaseThinking},
		{PhaseConversing, PhaseConversing},
	}
	for _, c := range cases {
		if sm.CanTransition(c.From, c.To) {
			t.Errorf("expected %s -> %s to be rejected", c.From, c.To)
		}
	}
}

func TestPhaseValidateTransitionError(t *testing.T) {
	sm := NewPhaseStateMachine()
	err := sm.ValidateTransition(PhasePending, PhaseDone)
	if err == nil {
		t.Fatal("expected error")
	}
	var ite *InvalidPhaseTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidPhaseTransitionError, got %T", err)
	}
	if ite.From != "pending" || ite.To != "done" {
		t.Errorf("unexpected error fields: %+v", ite)
	}
}

func TestPhasePredicates(t *testing.T) {
	if !IsTerminal(PhaseDone) || !IsTerminal(PhaseFailed) {
		t.Error("done/failed should be terminal")
	}
	if IsTerminal(PhaseConversing) {
		t.Error("conversing is not terminal")
	}
	if !IsActive(PhaseThinking) || IsActive(PhasePending) || IsActive(PhaseDone) {
		t.Error("IsActive mismatch")
	}
}
