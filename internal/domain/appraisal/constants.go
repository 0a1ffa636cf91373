package appraisal

type Status string

const (
	StatusOpen              Status = "OPEN"
	StatusPendingPMReview   Status = "PENDING_PM_REVIEW"
	StatusPendingBossReview Status = "PENDING_BOSS_REVIEW"
	StatusClosed            Status = "CLOSED"
)

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewSubmitted ReviewStatus = "SUBMITTED"
)

type Action string

const (
	ActionAssignPM     Action = "assign_pm"
	ActionSubmitReview Action = "submit_review"
	ActionFinalize     Action = "finalize"
)

const (
	MinRating = 1
	MaxRating = 5
)

const (
	constraintCycleEmployeeYear   = "appraisal_cycles_employee_year_key"
	constraintReviewCycleReviewer = "pm_reviews_cycle_reviewer_key"
	constraintSelfCycleQuestion   = "self_assessments_cycle_question_key"
	constraintClarificationRating = "clarifications_pm_rating_key"
)
