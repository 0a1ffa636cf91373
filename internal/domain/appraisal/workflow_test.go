package appraisal

import (
	"errors"
	"strings"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    Status
		action  Action
		want    Status
		wantErr bool
	}{
		{StatusOpen, ActionAssignPM, StatusPendingPMReview, false},
		{StatusPendingPMReview, ActionSubmitReview, StatusPendingBossReview, false},
		{StatusPendingBossReview, ActionFinalize, StatusClosed, false},
		{StatusOpen, ActionSubmitReview, StatusOpen, true},
		{StatusOpen, ActionFinalize, StatusOpen, true},
		{StatusPendingPMReview, ActionAssignPM, StatusPendingPMReview, true},
		{StatusPendingPMReview, ActionFinalize, StatusPendingPMReview, true},
		{StatusPendingBossReview, ActionAssignPM, StatusPendingBossReview, true},
		{StatusClosed, ActionFinalize, StatusClosed, true},
		{StatusClosed, ActionAssignPM, StatusClosed, true},
		{StatusClosed, ActionSubmitReview, StatusClosed, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.from)+"/"+string(tc.action), func(t *testing.T) {
			got, err := Transition(tc.from, tc.action)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				var ruleErr *RuleError
				if !errors.As(err, &ruleErr) || ruleErr.Status != tc.from || ruleErr.Action != tc.action {
					t.Fatalf("expected rule error naming state and action, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestClosedIsTerminal(t *testing.T) {
	if len(transitions[StatusClosed]) != 0 {
		t.Fatal("CLOSED must have no outgoing transitions")
	}
	if !StatusClosed.Terminal() || StatusOpen.Terminal() {
		t.Fatal("unexpected terminal flags")
	}
}

func TestRuleErrorMessages(t *testing.T) {
	tests := []struct {
		err  *RuleError
		want string
	}{
		{&RuleError{Status: StatusClosed, Action: ActionFinalize}, "already closed"},
		{&RuleError{Status: StatusPendingPMReview, Action: ActionFinalize}, "current status: PENDING_PM_REVIEW"},
		{&RuleError{Status: StatusPendingBossReview, Action: ActionAssignPM}, "cannot assign_pm while appraisal is PENDING_BOSS_REVIEW"},
	}
	for _, tc := range tests {
		if got := tc.err.Error(); !strings.Contains(got, tc.want) {
			t.Fatalf("expected %q to contain %q", got, tc.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusOpen, StatusPendingPMReview, StatusPendingBossReview, StatusClosed} {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if Status("PENDING_EMPLOYEE_CLARIFICATION").Valid() {
		t.Fatal("unexpected status accepted")
	}
}
