package appraisal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"appraisal/internal/domain/auth"
)

// Transactor runs fn inside a database transaction carried on the context.
type Transactor interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type Service struct {
	store StoreAPI
	tx    Transactor
	now   func() time.Time
}

func NewService(store StoreAPI, tx Transactor) *Service {
	return &Service{store: store, tx: tx, now: time.Now}
}

func (s *Service) ListAppraisableEmployees(ctx context.Context) ([]User, error) {
	users, err := s.store.ListAppraisableUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.Roles.Appraisable() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Service) ListProjectManagers(ctx context.Context) ([]User, error) {
	return s.store.ListUsersByRole(ctx, auth.RoleProjectManager)
}

func (s *Service) ListCycles(ctx context.Context) ([]Cycle, error) {
	return s.store.ListCycles(ctx)
}

func (s *Service) PendingBossCycles(ctx context.Context) ([]Cycle, error) {
	return s.store.ListCyclesByStatus(ctx, StatusPendingBossReview)
}

func (s *Service) ActiveQuestions(ctx context.Context) ([]Question, error) {
	return s.store.ListQuestions(ctx, true)
}

func (s *Service) EmployeeCycles(ctx context.Context, employeeID int64) ([]Cycle, error) {
	return s.store.ListCyclesByEmployee(ctx, employeeID)
}

// ActiveCycle returns the caller's cycle for the current calendar year, or nil.
func (s *Service) ActiveCycle(ctx context.Context, employeeID int64) (*Cycle, error) {
	year := strconv.Itoa(s.now().Year())
	cycle, err := s.store.FindCycleByEmployeeYear(ctx, employeeID, year)
	if errors.Is(err, ErrCycleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (s *Service) PendingReviews(ctx context.Context, reviewerID int64) ([]PmReview, error) {
	return s.store.ListReviewsByReviewer(ctx, reviewerID, ReviewPending)
}

func (s *Service) SubmittedReviews(ctx context.Context, reviewerID int64) ([]PmReview, error) {
	return s.store.ListReviewsByReviewer(ctx, reviewerID, ReviewSubmitted)
}

// Initiate opens a cycle for an appraisable employee. At most one cycle exists per
// employee and year.
func (s *Service) Initiate(ctx context.Context, hrID, employeeID int64, rawYear string) (Cycle, error) {
	year, err := normalizeYear(rawYear)
	if err != nil {
		return Cycle{}, err
	}
	if employeeID <= 0 {
		return Cycle{}, invalidInput("employeeId is required")
	}

	var out Cycle
	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		employee, err := s.store.GetUser(ctx, employeeID)
		if err != nil {
			return err
		}
		if !employee.Roles.Has(auth.RoleEmployee) {
			return ErrNotEmployee
		}
		if !employee.Roles.Appraisable() {
			return ErrNotAppraisable
		}
		if _, err := s.store.FindCycleByEmployeeYear(ctx, employeeID, year); err == nil {
			return ErrDuplicateCycle
		} else if !errors.Is(err, ErrCycleNotFound) {
			return err
		}

		id, err := s.store.CreateCycle(ctx, employeeID, hrID, s.today(), year)
		if err != nil {
			return err
		}
		out, err = s.store.GetCycle(ctx, id)
		return err
	})
	if err != nil {
		return Cycle{}, fmt.Errorf("initiate appraisal: %w", err)
	}
	return out, nil
}

// AssignPM creates a pending review for pmID and moves the cycle to PENDING_PM_REVIEW.
func (s *Service) AssignPM(ctx context.Context, cycleID, pmID int64) (PmReview, error) {
	if pmID <= 0 {
		return PmReview{}, invalidInput("pmId is required")
	}

	var out PmReview
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		cycle, err := s.store.LockCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		next, err := Transition(cycle.Status, ActionAssignPM)
		if err != nil {
			return err
		}
		pm, err := s.store.GetUser(ctx, pmID)
		if err != nil {
			return err
		}
		if !pm.Roles.Has(auth.RoleProjectManager) {
			return ErrNotProjectManager
		}
		if pm.ID == cycle.Employee.ID {
			return invalidInput("an employee cannot review their own appraisal")
		}
		exists, err := s.store.ReviewExists(ctx, cycleID, pmID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateReview
		}

		reviewID, err := s.store.CreateReview(ctx, cycleID, pmID)
		if err != nil {
			return err
		}
		if err := s.store.UpdateCycleStatus(ctx, cycleID, next); err != nil {
			return err
		}
		out, err = s.store.GetReview(ctx, reviewID)
		return err
	})
	if err != nil {
		return PmReview{}, fmt.Errorf("assign pm: %w", err)
	}
	return out, nil
}

// Report aggregates self and PM ratings per question for any caller allowed to see the cycle.
func (s *Service) Report(ctx context.Context, cycleID int64) ([]ReportRow, error) {
	var out []ReportRow
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetCycle(ctx, cycleID); err != nil {
			return err
		}
		questions, err := s.store.ListQuestions(ctx, false)
		if err != nil {
			return err
		}
		pm, err := s.store.SubmittedRatings(ctx, cycleID)
		if err != nil {
			return err
		}
		self, err := s.store.SelfRatings(ctx, cycleID)
		if err != nil {
			return err
		}
		out = BuildReport(questions, pm, self)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	return out, nil
}

func (s *Service) Feedback(ctx context.Context, cycleID int64) ([]FeedbackRow, error) {
	var out []FeedbackRow
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetCycle(ctx, cycleID); err != nil {
			return err
		}
		comments, err := s.store.ReviewComments(ctx, cycleID, 0)
		if err != nil {
			return err
		}
		out = BuildFeedback(comments)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build feedback: %w", err)
	}
	return out, nil
}

func (s *Service) EmployeeReport(ctx context.Context, employeeID, cycleID int64) ([]ReportRow, error) {
	if err := s.checkOwner(ctx, employeeID, cycleID); err != nil {
		return nil, err
	}
	return s.Report(ctx, cycleID)
}

func (s *Service) EmployeeFeedback(ctx context.Context, employeeID, cycleID int64) ([]FeedbackRow, error) {
	if err := s.checkOwner(ctx, employeeID, cycleID); err != nil {
		return nil, err
	}
	return s.Feedback(ctx, cycleID)
}

func (s *Service) checkOwner(ctx context.Context, employeeID, cycleID int64) error {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if cycle.Employee.ID != employeeID {
		return ErrForbidden
	}
	return nil
}

// SubmitSelfAssessment stores the employee's ratings, replacing earlier answers to the
// same questions. The whole batch fails if any question is unknown.
func (s *Service) SubmitSelfAssessment(ctx context.Context, employeeID, cycleID int64, entries []RatingInput) error {
	if err := validateRatings(entries); err != nil {
		return err
	}

	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		cycle, err := s.store.LockCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		if cycle.Employee.ID != employeeID {
			return ErrForbidden
		}
		if cycle.Status.Terminal() {
			return ErrCycleClosed
		}
		if err := s.requireQuestions(ctx, entries); err != nil {
			return err
		}
		return s.store.UpsertSelfAssessments(ctx, cycleID, entries)
	})
	if err != nil {
		return fmt.Errorf("submit self assessment: %w", err)
	}
	return nil
}

func (s *Service) requireQuestions(ctx context.Context, entries []RatingInput) error {
	ids := questionIDs(entries)
	existing, err := s.store.ExistingQuestionIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[int64]bool, len(existing))
	for _, id := range existing {
		found[id] = true
	}
	for _, id := range ids {
		if !found[id] {
			return fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
		}
	}
	return nil
}

// SubmitClarification records the employee's single reply to a PM rating on their own cycle.
func (s *Service) SubmitClarification(ctx context.Context, employeeID, ratingID int64, reply string) (Clarification, RatingOwner, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Clarification{}, RatingOwner{}, invalidInput("replyText is required")
	}
	if ratingID <= 0 {
		return Clarification{}, RatingOwner{}, invalidInput("pmRatingId is required")
	}

	var out Clarification
	var owner RatingOwner
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		var err error
		owner, err = s.store.RatingOwner(ctx, ratingID)
		if err != nil {
			return err
		}
		if owner.EmployeeID != employeeID {
			return ErrForbidden
		}
		exists, err := s.store.ClarificationExists(ctx, ratingID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateClarification
		}
		out, err = s.store.CreateClarification(ctx, ratingID, reply)
		return err
	})
	if err != nil {
		return Clarification{}, RatingOwner{}, fmt.Errorf("submit clarification: %w", err)
	}
	return out, owner, nil
}

// ReviewClarifications lists the commented ratings of one review for its reviewer.
func (s *Service) ReviewClarifications(ctx context.Context, reviewerID, reviewID int64) ([]FeedbackRow, error) {
	var out []FeedbackRow
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		review, err := s.store.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.Reviewer.ID != reviewerID {
			return ErrForbidden
		}
		comments, err := s.store.ReviewComments(ctx, review.AppraisalCycle.ID, reviewID)
		if err != nil {
			return err
		}
		out = BuildFeedback(comments)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("review clarifications: %w", err)
	}
	return out, nil
}

// SubmitReview persists the PM's ratings, marks the review submitted and advances the
// cycle, all in one transaction.
func (s *Service) SubmitReview(ctx context.Context, reviewerID, reviewID int64, entries []RatingInput) (PmReview, error) {
	if err := validateRatings(entries); err != nil {
		return PmReview{}, err
	}

	var out PmReview
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		review, err := s.store.LockReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.Reviewer.ID != reviewerID {
			return ErrForbidden
		}
		if review.Status != ReviewPending {
			return ErrReviewAlreadySubmitted
		}
		cycle, err := s.store.LockCycle(ctx, review.AppraisalCycle.ID)
		if err != nil {
			return err
		}
		next, err := Transition(cycle.Status, ActionSubmitReview)
		if err != nil {
			return err
		}
		if err := s.requireQuestions(ctx, entries); err != nil {
			return err
		}

		if err := s.store.InsertRatings(ctx, reviewID, entries); err != nil {
			return err
		}
		if err := s.store.MarkReviewSubmitted(ctx, reviewID, s.now().UTC()); err != nil {
			return err
		}
		if err := s.store.UpdateCycleStatus(ctx, cycle.ID, next); err != nil {
			return err
		}
		out, err = s.store.GetReview(ctx, reviewID)
		return err
	})
	if err != nil {
		return PmReview{}, fmt.Errorf("submit review: %w", err)
	}
	return out, nil
}

// Summary is the boss view: the cycle header plus the shared report and feedback.
func (s *Service) Summary(ctx context.Context, cycleID int64) (BossSummary, error) {
	var out BossSummary
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		cycle, err := s.store.GetCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		reports, err := s.Report(ctx, cycleID)
		if err != nil {
			return err
		}
		feedback, err := s.Feedback(ctx, cycleID)
		if err != nil {
			return err
		}
		out = BossSummary{
			CycleID:        cycle.ID,
			EmployeeName:   cycle.Employee.Name,
			Designation:    cycle.Employee.Designation,
			Year:           cycle.Year,
			Status:         cycle.Status,
			BossComment:    cycle.BossComment,
			Reports:        reports,
			Clarifications: feedback,
		}
		return nil
	})
	if err != nil {
		return BossSummary{}, fmt.Errorf("boss summary: %w", err)
	}
	return out, nil
}

// Close finalizes a cycle awaiting boss review. A blank comment keeps any stored one.
func (s *Service) Close(ctx context.Context, cycleID int64, bossComment string) (Cycle, error) {
	var comment *string
	if trimmed := strings.TrimSpace(bossComment); trimmed != "" {
		comment = &trimmed
	}

	var out Cycle
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		cycle, err := s.store.LockCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		if _, err := Transition(cycle.Status, ActionFinalize); err != nil {
			return err
		}
		if err := s.store.CloseCycle(ctx, cycleID, comment); err != nil {
			return err
		}
		out, err = s.store.GetCycle(ctx, cycleID)
		return err
	})
	if err != nil {
		return Cycle{}, fmt.Errorf("close appraisal: %w", err)
	}
	return out, nil
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
