package appraisalhandler

import (
	"fmt"
	"net/http"
	"strings"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.Service.ActiveQuestions(r.Context())
	if err != nil {
		writeError(w, r, err, "question_list_failed")
		return
	}
	api.Success(w, questions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActiveCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.Service.ActiveCycle(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err, "active_cycle_failed")
		return
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Service.EmployeeCycles(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err, "cycle_list_failed")
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeReport(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := pathID(w, r, "cycleId")
	if !ok {
		return
	}
	rows, err := h.Service.EmployeeReport(r.Context(), caller(r).UserID, cycleID)
	if err != nil {
		writeError(w, r, err, "report_failed")
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeFeedback(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := pathID(w, r, "cycleId")
	if !ok {
		return
	}
	rows, err := h.Service.EmployeeFeedback(r.Context(), caller(r).UserID, cycleID)
	if err != nil {
		writeError(w, r, err, "feedback_failed")
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfAssessment(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := pathID(w, r, "cycleId")
	if !ok {
		return
	}
	entries, ok := decodeRatings(w, r)
	if !ok {
		return
	}

	if err := h.Service.SubmitSelfAssessment(r.Context(), caller(r).UserID, cycleID, entries); err != nil {
		writeError(w, r, err, "self_assessment_failed")
		return
	}
	h.audit(r, audit.ActionSelfAssessment, audit.EntityCycle, cycleID, nil, map[string]int{"ratings": len(entries)})
	api.Status(w, "Self-assessment submitted", middleware.GetRequestID(r.Context()))
}

type clarifyRequest struct {
	PMRatingID int64  `json:"pmRatingId"`
	ReplyText  string `json:"replyText"`
}

func (h *Handler) handleClarify(w http.ResponseWriter, r *http.Request) {
	var payload clarifyRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Positive("pmRatingId", payload.PMRatingID, "is required")
	validator.Required("replyText", payload.ReplyText, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user := caller(r)
	clarification, owner, err := h.Service.SubmitClarification(r.Context(), user.UserID, payload.PMRatingID, payload.ReplyText)
	if err != nil {
		writeError(w, r, err, "clarification_failed")
		return
	}

	h.audit(r, audit.ActionClarification, audit.EntityClarification, clarification.ID, nil, clarification)
	h.notify(r.Context(), owner.ReviewerID, notifications.TypeClarification,
		"Clarification received",
		fmt.Sprintf("%s replied to one of your ratings: %s", displayName(owner.EmployeeName), clarification.ReplyText))
	api.Status(w, "Clarification submitted", middleware.GetRequestID(r.Context()))
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "The employee"
	}
	return name
}
