package appraisal

import (
	"time"

	"appraisal/internal/domain/auth"
)

type UserRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}

type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Designation string     `json:"designation"`
	Roles       auth.Roles `json:"roles"`
}

func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Designation: u.Designation}
}

type Question struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

type Cycle struct {
	ID          int64     `json:"id"`
	Employee    UserRef   `json:"employee"`
	HRInitiator UserRef   `json:"hrInitiator"`
	StartDate   time.Time `json:"startDate"`
	Year        string    `json:"year"`
	Status      Status    `json:"status"`
	BossComment *string   `json:"bossComment"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CycleRef is the cycle summary embedded in a review.
type CycleRef struct {
	ID       int64   `json:"id"`
	Employee UserRef `json:"employee"`
	Year     string  `json:"year"`
	Status   Status  `json:"status"`
}

type PmReview struct {
	ID             int64        `json:"id"`
	AppraisalCycle CycleRef     `json:"appraisalCycle"`
	Reviewer       UserRef      `json:"reviewer"`
	Status         ReviewStatus `json:"status"`
	FeedbackDate   *time.Time   `json:"feedbackDate"`
}

type RatingInput struct {
	QuestionID int64  `json:"questionId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

type QuestionRating struct {
	QuestionID int64
	Rating     int
}

// ReviewComment is one PM rating of a submitted review joined with its question,
// reviewer and clarification.
type ReviewComment struct {
	RatingID      int64
	ReviewID      int64
	QuestionText  string
	ReviewerName  string
	Rating        int
	Comment       string
	Clarification *string
}

type RatingOwner struct {
	RatingID     int64
	ReviewID     int64
	ReviewerID   int64
	CycleID      int64
	EmployeeID   int64
	EmployeeName string
}

type Clarification struct {
	ID         int64     `json:"id"`
	PMRatingID int64     `json:"pmRatingId"`
	ReplyText  string    `json:"replyText"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ReportRow struct {
	QuestionID      int64   `json:"questionId"`
	QuestionText    string  `json:"questionText"`
	Category        string  `json:"category"`
	PMAverageRating float64 `json:"pmAverageRating"`
	SelfRating      *int    `json:"selfRating"`
}

type FeedbackRow struct {
	PMRatingID            int64   `json:"pmRatingId"`
	QuestionText          string  `json:"questionText"`
	PMName                string  `json:"pmName"`
	Rating                int     `json:"rating"`
	Comment               string  `json:"comment"`
	ExistingClarification *string `json:"existingClarification"`
}

type BossSummary struct {
	CycleID        int64         `json:"cycleId"`
	EmployeeName   string        `json:"employeeName"`
	Designation    string        `json:"designation"`
	Year           string        `json:"year"`
	Status         Status        `json:"status"`
	BossComment    *string       `json:"bossComment"`
	Reports        []ReportRow   `json:"reports"`
	Clarifications []FeedbackRow `json:"clarifications"`
}
