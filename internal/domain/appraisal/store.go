package appraisal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/db"
)

const uniqueViolationCode = "23505"

type Store struct {
	DB db.Queryer
}

func NewStore(pool db.Queryer) *Store {
	return &Store{DB: pool}
}

func (s *Store) q(ctx context.Context) db.Queryer {
	return db.QueryerFromContext(ctx, s.DB)
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		switch pgErr.ConstraintName {
		case constraintCycleEmployeeYear:
			return ErrDuplicateCycle
		case constraintReviewCycleReviewer:
			return ErrDuplicateReview
		case constraintClarificationRating:
			return ErrDuplicateClarification
		}
	}
	return err
}

func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

const userSelect = `
    SELECT u.id, u.username, u.name, u.email, u.designation,
           COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
    FROM users u
    LEFT JOIN user_roles ur ON ur.user_id = u.id
  `

func scanUser(row pgx.Row) (User, error) {
	var u User
	var roles []string
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Designation, &roles); err != nil {
		return User{}, err
	}
	u.Roles = auth.NormalizeRoles(roles)
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	defer rows.Close()
	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, userID int64) (User, error) {
	u, err := scanUser(s.q(ctx).QueryRow(ctx, userSelect+" WHERE u.id = $1 GROUP BY u.id", userID))
	if err != nil {
		return User{}, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

func (s *Store) ListAppraisableUsers(ctx context.Context) ([]User, error) {
	rows, err := s.q(ctx).Query(ctx, userSelect+`
    GROUP BY u.id
    HAVING NOT COALESCE(bool_or(ur.role = $1), false)
    ORDER BY u.name, u.id
  `, string(auth.RoleBoss))
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) ListUsersByRole(ctx context.Context, role auth.Role) ([]User, error) {
	rows, err := s.q(ctx).Query(ctx, userSelect+`
    WHERE EXISTS (SELECT 1 FROM user_roles x WHERE x.user_id = u.id AND x.role = $1)
    GROUP BY u.id
    ORDER BY u.name, u.id
  `, string(role))
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) ListQuestions(ctx context.Context, activeOnly bool) ([]Question, error) {
	query := "SELECT id, text, category, active FROM questions"
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY id"
	rows, err := s.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Question, 0)
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.Active); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) ExistingQuestionIDs(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := s.q(ctx).Query(ctx, "SELECT id FROM questions WHERE id = ANY($1) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

const cycleSelect = `
    SELECT c.id, c.employee_id, e.name, e.designation, c.hr_initiator_id, h.name, h.designation,
           c.start_date, c.year, c.status, c.boss_comment, c.created_at, c.updated_at
    FROM appraisal_cycles c
    JOIN users e ON e.id = c.employee_id
    JOIN users h ON h.id = c.hr_initiator_id
  `

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	var status string
	err := row.Scan(&c.ID, &c.Employee.ID, &c.Employee.Name, &c.Employee.Designation,
		&c.HRInitiator.ID, &c.HRInitiator.Name, &c.HRInitiator.Designation,
		&c.StartDate, &c.Year, &status, &c.BossComment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Cycle{}, err
	}
	c.Status = Status(status)
	return c, nil
}

func collectCycles(rows pgx.Rows) ([]Cycle, error) {
	defer rows.Close()
	out := make([]Cycle, 0)
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCycle(ctx context.Context, cycleID int64) (Cycle, error) {
	c, err := scanCycle(s.q(ctx).QueryRow(ctx, cycleSelect+" WHERE c.id = $1", cycleID))
	if err != nil {
		return Cycle{}, notFound(err, ErrCycleNotFound)
	}
	return c, nil
}

func (s *Store) LockCycle(ctx context.Context, cycleID int64) (Cycle, error) {
	c, err := scanCycle(s.q(ctx).QueryRow(ctx, cycleSelect+" WHERE c.id = $1 FOR UPDATE OF c", cycleID))
	if err != nil {
		return Cycle{}, notFound(err, ErrCycleNotFound)
	}
	return c, nil
}

func (s *Store) FindCycleByEmployeeYear(ctx context.Context, employeeID int64, year string) (Cycle, error) {
	c, err := scanCycle(s.q(ctx).QueryRow(ctx, cycleSelect+" WHERE c.employee_id = $1 AND c.year = $2", employeeID, year))
	if err != nil {
		return Cycle{}, notFound(err, ErrCycleNotFound)
	}
	return c, nil
}

func (s *Store) ListCycles(ctx context.Context) ([]Cycle, error) {
	rows, err := s.q(ctx).Query(ctx, cycleSelect+" ORDER BY c.year DESC, c.id DESC")
	if err != nil {
		return nil, err
	}
	return collectCycles(rows)
}

func (s *Store) ListCyclesByStatus(ctx context.Context, status Status) ([]Cycle, error) {
	rows, err := s.q(ctx).Query(ctx, cycleSelect+" WHERE c.status = $1 ORDER BY c.updated_at, c.id", string(status))
	if err != nil {
		return nil, err
	}
	return collectCycles(rows)
}

func (s *Store) ListCyclesByEmployee(ctx context.Context, employeeID int64) ([]Cycle, error) {
	rows, err := s.q(ctx).Query(ctx, cycleSelect+" WHERE c.employee_id = $1 ORDER BY c.year DESC, c.id DESC", employeeID)
	if err != nil {
		return nil, err
	}
	return collectCycles(rows)
}

func (s *Store) CreateCycle(ctx context.Context, employeeID, hrID int64, startDate time.Time, year string) (int64, error) {
	var id int64
	err := s.q(ctx).QueryRow(ctx, `
    INSERT INTO appraisal_cycles (employee_id, hr_initiator_id, start_date, year, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, employeeID, hrID, startDate, year, string(StatusOpen)).Scan(&id)
	if err != nil {
		return 0, translatePgError(err)
	}
	return id, nil
}

func (s *Store) UpdateCycleStatus(ctx context.Context, cycleID int64, status Status) error {
	tag, err := s.q(ctx).Exec(ctx, "UPDATE appraisal_cycles SET status = $1, updated_at = now() WHERE id = $2", string(status), cycleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleNotFound
	}
	return nil
}

func (s *Store) CloseCycle(ctx context.Context, cycleID int64, bossComment *string) error {
	tag, err := s.q(ctx).Exec(ctx, `
    UPDATE appraisal_cycles
    SET status = $1, boss_comment = COALESCE($2, boss_comment), updated_at = now()
    WHERE id = $3
  `, string(StatusClosed), bossComment, cycleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleNotFound
	}
	return nil
}

func (s *Store) ReviewExists(ctx context.Context, cycleID, reviewerID int64) (bool, error) {
	var count int
	if err := s.q(ctx).QueryRow(ctx, "SELECT COUNT(1) FROM pm_reviews WHERE cycle_id = $1 AND reviewer_id = $2", cycleID, reviewerID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateReview(ctx context.Context, cycleID, reviewerID int64) (int64, error) {
	var id int64
	err := s.q(ctx).QueryRow(ctx, `
    INSERT INTO pm_reviews (cycle_id, reviewer_id, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, cycleID, reviewerID, string(ReviewPending)).Scan(&id)
	if err != nil {
		return 0, translatePgError(err)
	}
	return id, nil
}

const reviewSelect = `
    SELECT r.id, c.id, e.id, e.name, e.designation, c.year, c.status,
           p.id, p.name, p.designation, r.status, r.feedback_date
    FROM pm_reviews r
    JOIN appraisal_cycles c ON c.id = r.cycle_id
    JOIN users e ON e.id = c.employee_id
    JOIN users p ON p.id = r.reviewer_id
  `

func scanReview(row pgx.Row) (PmReview, error) {
	var r PmReview
	var cycleStatus, status string
	err := row.Scan(&r.ID, &r.AppraisalCycle.ID, &r.AppraisalCycle.Employee.ID, &r.AppraisalCycle.Employee.Name,
		&r.AppraisalCycle.Employee.Designation, &r.AppraisalCycle.Year, &cycleStatus,
		&r.Reviewer.ID, &r.Reviewer.Name, &r.Reviewer.Designation, &status, &r.FeedbackDate)
	if err != nil {
		return PmReview{}, err
	}
	r.AppraisalCycle.Status = Status(cycleStatus)
	r.Status = ReviewStatus(status)
	return r, nil
}

func (s *Store) GetReview(ctx context.Context, reviewID int64) (PmReview, error) {
	r, err := scanReview(s.q(ctx).QueryRow(ctx, reviewSelect+" WHERE r.id = $1", reviewID))
	if err != nil {
		return PmReview{}, notFound(err, ErrReviewNotFound)
	}
	return r, nil
}

func (s *Store) LockReview(ctx context.Context, reviewID int64) (PmReview, error) {
	r, err := scanReview(s.q(ctx).QueryRow(ctx, reviewSelect+" WHERE r.id = $1 FOR UPDATE OF r", reviewID))
	if err != nil {
		return PmReview{}, notFound(err, ErrReviewNotFound)
	}
	return r, nil
}

func (s *Store) ListReviewsByReviewer(ctx context.Context, reviewerID int64, status ReviewStatus) ([]PmReview, error) {
	rows, err := s.q(ctx).Query(ctx, reviewSelect+" WHERE r.reviewer_id = $1 AND r.status = $2 ORDER BY r.id", reviewerID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PmReview, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) InsertRatings(ctx context.Context, reviewID int64, entries []RatingInput) error {
	q := s.q(ctx)
	for _, e := range entries {
		if _, err := q.Exec(ctx, `
      INSERT INTO pm_ratings (pm_review_id, question_id, rating, comment)
      VALUES ($1,$2,$3,$4)
    `, reviewID, e.QuestionID, e.Rating, e.Comment); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) MarkReviewSubmitted(ctx context.Context, reviewID int64, at time.Time) error {
	tag, err := s.q(ctx).Exec(ctx, "UPDATE pm_reviews SET status = $1, feedback_date = $2 WHERE id = $3", string(ReviewSubmitted), at, reviewID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *Store) SubmittedRatings(ctx context.Context, cycleID int64) ([]QuestionRating, error) {
	rows, err := s.q(ctx).Query(ctx, `
    SELECT pr.question_id, pr.rating
    FROM pm_ratings pr
    JOIN pm_reviews r ON r.id = pr.pm_review_id
    WHERE r.cycle_id = $1 AND r.status = $2
    ORDER BY pr.id
  `, cycleID, string(ReviewSubmitted))
	if err != nil {
		return nil, err
	}
	return collectRatings(rows)
}

func (s *Store) SelfRatings(ctx context.Context, cycleID int64) ([]QuestionRating, error) {
	rows, err := s.q(ctx).Query(ctx, "SELECT question_id, rating FROM self_assessments WHERE cycle_id = $1 ORDER BY id", cycleID)
	if err != nil {
		return nil, err
	}
	return collectRatings(rows)
}

func collectRatings(rows pgx.Rows) ([]QuestionRating, error) {
	defer rows.Close()
	out := make([]QuestionRating, 0)
	for rows.Next() {
		var r QuestionRating
		if err := rows.Scan(&r.QuestionID, &r.Rating); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertSelfAssessments(ctx context.Context, cycleID int64, entries []RatingInput) error {
	q := s.q(ctx)
	for _, e := range entries {
		if _, err := q.Exec(ctx, `
      INSERT INTO self_assessments (cycle_id, question_id, rating, comment)
      VALUES ($1,$2,$3,$4)
      ON CONFLICT ON CONSTRAINT `+constraintSelfCycleQuestion+` DO UPDATE
        SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
    `, cycleID, e.QuestionID, e.Rating, e.Comment); err != nil {
			return err
		}
	}
	return nil
}

// ReviewComments returns the commented ratings of submitted reviews on a cycle.
// A non-zero reviewID narrows the result to that review.
func (s *Store) ReviewComments(ctx context.Context, cycleID, reviewID int64) ([]ReviewComment, error) {
	query := `
    SELECT pr.id, r.id, q.text, p.name, pr.rating, pr.comment, cl.reply_text
    FROM pm_ratings pr
    JOIN pm_reviews r ON r.id = pr.pm_review_id
    JOIN questions q ON q.id = pr.question_id
    JOIN users p ON p.id = r.reviewer_id
    LEFT JOIN clarifications cl ON cl.pm_rating_id = pr.id
    WHERE r.cycle_id = $1 AND r.status = $2 AND pr.comment <> ''
  `
	args := []any{cycleID, string(ReviewSubmitted)}
	if reviewID > 0 {
		query += " AND r.id = $3"
		args = append(args, reviewID)
	}
	query += " ORDER BY r.id, pr.id"

	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReviewComment, 0)
	for rows.Next() {
		var c ReviewComment
		if err := rows.Scan(&c.RatingID, &c.ReviewID, &c.QuestionText, &c.ReviewerName, &c.Rating, &c.Comment, &c.Clarification); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) RatingOwner(ctx context.Context, ratingID int64) (RatingOwner, error) {
	var o RatingOwner
	err := s.q(ctx).QueryRow(ctx, `
    SELECT pr.id, r.id, r.reviewer_id, c.id, c.employee_id, e.name
    FROM pm_ratings pr
    JOIN pm_reviews r ON r.id = pr.pm_review_id
    JOIN appraisal_cycles c ON c.id = r.cycle_id
    JOIN users e ON e.id = c.employee_id
    WHERE pr.id = $1
  `, ratingID).Scan(&o.RatingID, &o.ReviewID, &o.ReviewerID, &o.CycleID, &o.EmployeeID, &o.EmployeeName)
	if err != nil {
		return RatingOwner{}, notFound(err, ErrRatingNotFound)
	}
	return o, nil
}

func (s *Store) ClarificationExists(ctx context.Context, ratingID int64) (bool, error) {
	var count int
	if err := s.q(ctx).QueryRow(ctx, "SELECT COUNT(1) FROM clarifications WHERE pm_rating_id = $1", ratingID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateClarification(ctx context.Context, ratingID int64, reply string) (Clarification, error) {
	c := Clarification{PMRatingID: ratingID, ReplyText: reply}
	err := s.q(ctx).QueryRow(ctx, `
    INSERT INTO clarifications (pm_rating_id, reply_text)
    VALUES ($1,$2)
    RETURNING id, created_at
  `, ratingID, reply).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Clarification{}, translatePgError(err)
	}
	return c, nil
}
