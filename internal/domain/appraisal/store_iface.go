package appraisal

import (
	"context"
	"time"

	"appraisal/internal/domain/auth"
)

type StoreAPI interface {
	GetUser(ctx context.Context, userID int64) (User, error)
	ListAppraisableUsers(ctx context.Context) ([]User, error)
	ListUsersByRole(ctx context.Context, role auth.Role) ([]User, error)

	ListQuestions(ctx context.Context, activeOnly bool) ([]Question, error)
	ExistingQuestionIDs(ctx context.Context, ids []int64) ([]int64, error)

	GetCycle(ctx context.Context, cycleID int64) (Cycle, error)
	LockCycle(ctx context.Context, cycleID int64) (Cycle, error)
	FindCycleByEmployeeYear(ctx context.Context, employeeID int64, year string) (Cycle, error)
	ListCycles(ctx context.Context) ([]Cycle, error)
	ListCyclesByStatus(ctx context.Context, status Status) ([]Cycle, error)
	ListCyclesByEmployee(ctx context.Context, employeeID int64) ([]Cycle, error)
	CreateCycle(ctx context.Context, employeeID, hrID int64, startDate time.Time, year string) (int64, error)
	UpdateCycleStatus(ctx context.Context, cycleID int64, status Status) error
	CloseCycle(ctx context.Context, cycleID int64, bossComment *string) error

	ReviewExists(ctx context.Context, cycleID, reviewerID int64) (bool, error)
	CreateReview(ctx context.Context, cycleID, reviewerID int64) (int64, error)
	GetReview(ctx context.Context, reviewID int64) (PmReview, error)
	LockReview(ctx context.Context, reviewID int64) (PmReview, error)
	ListReviewsByReviewer(ctx context.Context, reviewerID int64, status ReviewStatus) ([]PmReview, error)
	InsertRatings(ctx context.Context, reviewID int64, entries []RatingInput) error
	MarkReviewSubmitted(ctx context.Context, reviewID int64, at time.Time) error

	SubmittedRatings(ctx context.Context, cycleID int64) ([]QuestionRating, error)
	SelfRatings(ctx context.Context, cycleID int64) ([]QuestionRating, error)
	UpsertSelfAssessments(ctx context.Context, cycleID int64, entries []RatingInput) error
	ReviewComments(ctx context.Context, cycleID, reviewID int64) ([]ReviewComment, error)

	RatingOwner(ctx context.Context, ratingID int64) (RatingOwner, error)
	ClarificationExists(ctx context.Context, ratingID int64) (bool, error)
	CreateClarification(ctx context.Context, ratingID int64, reply string) (Clarification, error)
}
