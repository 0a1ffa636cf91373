package notifications

const (
	TypeCycleInitiated = "cycle_initiated"
	TypeReviewAssigned = "review_assigned"
	TypeFeedbackReady  = "feedback_ready"
	TypeClarification  = "clarification_received"
	TypeCycleClosed    = "cycle_closed"
)
