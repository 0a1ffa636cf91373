package appraisalhandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/appraisal"
	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/metrics"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

// Workflow is the appraisal use-case surface the HTTP layer drives.
type Workflow interface {
	ListAppraisableEmployees(ctx context.Context) ([]appraisal.User, error)
	ListProjectManagers(ctx context.Context) ([]appraisal.User, error)
	ListCycles(ctx context.Context) ([]appraisal.Cycle, error)
	PendingBossCycles(ctx context.Context) ([]appraisal.Cycle, error)
	ActiveQuestions(ctx context.Context) ([]appraisal.Question, error)
	EmployeeCycles(ctx context.Context, employeeID int64) ([]appraisal.Cycle, error)
	ActiveCycle(ctx context.Context, employeeID int64) (*appraisal.Cycle, error)
	PendingReviews(ctx context.Context, reviewerID int64) ([]appraisal.PmReview, error)
	SubmittedReviews(ctx context.Context, reviewerID int64) ([]appraisal.PmReview, error)

	Initiate(ctx context.Context, hrID, employeeID int64, year string) (appraisal.Cycle, error)
	AssignPM(ctx context.Context, cycleID, pmID int64) (appraisal.PmReview, error)
	EmployeeReport(ctx context.Context, employeeID, cycleID int64) ([]appraisal.ReportRow, error)
	EmployeeFeedback(ctx context.Context, employeeID, cycleID int64) ([]appraisal.FeedbackRow, error)
	SubmitSelfAssessment(ctx context.Context, employeeID, cycleID int64, entries []appraisal.RatingInput) error
	SubmitClarification(ctx context.Context, employeeID, ratingID int64, reply string) (appraisal.Clarification, appraisal.RatingOwner, error)
	ReviewClarifications(ctx context.Context, reviewerID, reviewID int64) ([]appraisal.FeedbackRow, error)
	SubmitReview(ctx context.Context, reviewerID, reviewID int64, entries []appraisal.RatingInput) (appraisal.PmReview, error)
	Summary(ctx context.Context, cycleID int64) (appraisal.BossSummary, error)
	Close(ctx context.Context, cycleID int64, bossComment string) (appraisal.Cycle, error)
}

type Recorder interface {
	Record(ctx context.Context, actorID int64, action, entityType string, entityID int64, requestID, ip string, before, after any) error
}

type Notifier interface {
	Create(ctx context.Context, userID int64, ntype, title, body string) error
}

type Handler struct {
	Service Workflow
	Perms   middleware.PermissionStore
	Audit   Recorder
	Notify  Notifier
	Metrics *metrics.Collector
}

func NewHandler(service Workflow, perms middleware.PermissionStore, auditSvc Recorder, notify Notifier, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Notify: notify, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/employees", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermAppraisalsManage, h.Perms)).Get("/pms", h.handleListProjectManagers)
	})

	r.Route("/appraisals", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/", h.handleListCycles)
		r.With(middleware.RequirePermission(auth.PermAppraisalsManage, h.Perms)).Post("/", h.handleInitiate)
		r.With(middleware.RequirePermission(auth.PermAppraisalsManage, h.Perms)).Post("/{cycleId}/assign-pm", h.handleAssignPM)
	})

	r.With(middleware.RequirePermission(auth.PermQuestionsRead, h.Perms)).Get("/questions", h.handleQuestions)

	r.Route("/employee", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAppraisalsSelf, h.Perms))
		r.Get("/active-cycle", h.handleActiveCycle)
		r.Get("/cycles", h.handleEmployeeCycles)
		r.Get("/report/{cycleId}", h.handleEmployeeReport)
		r.Get("/feedback/{cycleId}", h.handleEmployeeFeedback)
		r.Post("/self-assessment/{cycleId}", h.handleSelfAssessment)
		r.Post("/clarify", h.handleClarify)
	})

	r.Route("/pm", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReviewsWrite, h.Perms))
		r.Get("/pending-reviews", h.handlePendingReviews)
		r.Get("/submitted-reviews", h.handleSubmittedReviews)
		r.Get("/reviews/{reviewId}/clarifications", h.handleReviewClarifications)
		r.Post("/reviews/{reviewId}/submit", h.handleSubmitReview)
	})

	r.Route("/boss", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAppraisalsFinalize, h.Perms))
		r.Get("/pending", h.handleBossPending)
		r.Get("/summary/{cycleId}", h.handleSummary)
		r.Get("/summary/{cycleId}/pdf", h.handleSummaryPDF)
		r.Post("/close/{cycleId}", h.handleClose)
	})
}

// pathID writes a 400 and reports false when the URL parameter is not a positive id.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := shared.PathID(r, name)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_id", err.Error(), middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}

func caller(r *http.Request) auth.UserContext {
	user, _ := middleware.GetUser(r.Context())
	return user
}

func (h *Handler) audit(r *http.Request, action, entityType string, entityID int64, before, after any) {
	if h.Audit == nil {
		return
	}
	user := caller(r)
	if err := h.Audit.Record(r.Context(), user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) notify(ctx context.Context, userID int64, ntype, title, body string) {
	if h.Notify == nil || userID <= 0 {
		return
	}
	if err := h.Notify.Create(ctx, userID, ntype, title, body); err != nil {
		slog.Warn("notification "+ntype+" failed", "userId", userID, "err", err)
	}
}

func (h *Handler) transitioned(status appraisal.Status) {
	h.Metrics.RecordTransition(string(status))
}

func statusChange(from, to appraisal.Status) (map[string]string, map[string]string) {
	return map[string]string{"status": string(from)}, map[string]string{"status": string(to)}
}

type ratingPayload struct {
	QuestionID int64  `json:"questionId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// decodeRatings reads the rating array body and reports every invalid entry at once.
func decodeRatings(w http.ResponseWriter, r *http.Request) ([]appraisal.RatingInput, bool) {
	var payload []ratingPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	checks := make([]shared.RatingEntry, 0, len(payload))
	entries := make([]appraisal.RatingInput, 0, len(payload))
	for _, p := range payload {
		checks = append(checks, shared.RatingEntry{QuestionID: p.QuestionID, Rating: p.Rating})
		entries = append(entries, appraisal.RatingInput{QuestionID: p.QuestionID, Rating: p.Rating, Comment: p.Comment})
	}
	validator := shared.NewValidator()
	validator.Ratings("ratings", checks, appraisal.MinRating, appraisal.MaxRating)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return nil, false
	}
	return entries, true
}
