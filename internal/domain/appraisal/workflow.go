package appraisal

var transitions = map[Status]map[Action]Status{
	StatusOpen: {
		ActionAssignPM: StatusPendingPMReview,
	},
	StatusPendingPMReview: {
		ActionSubmitReview: StatusPendingBossReview,
	},
	StatusPendingBossReview: {
		ActionFinalize: StatusClosed,
	},
}

// Transition returns the status a cycle moves to when action is applied in from.
// CLOSED has no outgoing transitions.
func Transition(from Status, action Action) (Status, error) {
	next, ok := transitions[from][action]
	if !ok {
		return from, &RuleError{Status: from, Action: action}
	}
	return next, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPendingPMReview, StatusPendingBossReview, StatusClosed:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusClosed
}
