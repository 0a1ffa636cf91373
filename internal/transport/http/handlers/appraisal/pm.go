package appraisalhandler

import (
	"fmt"
	"net/http"

	"appraisal/internal/domain/appraisal"
	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
)

func (h *Handler) handlePendingReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Service.PendingReviews(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err, "review_list_failed")
		return
	}
	api.Success(w, reviews, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmittedReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Service.SubmittedReviews(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err, "review_list_failed")
		return
	}
	api.Success(w, reviews, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReviewClarifications(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := pathID(w, r, "reviewId")
	if !ok {
		return
	}
	rows, err := h.Service.ReviewClarifications(r.Context(), caller(r).UserID, reviewID)
	if err != nil {
		writeError(w, r, err, "clarification_list_failed")
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := pathID(w, r, "reviewId")
	if !ok {
		return
	}
	entries, ok := decodeRatings(w, r)
	if !ok {
		return
	}

	review, err := h.Service.SubmitReview(r.Context(), caller(r).UserID, reviewID, entries)
	if err != nil {
		writeError(w, r, err, "review_submit_failed")
		return
	}

	before, after := statusChange(appraisal.StatusPendingPMReview, review.AppraisalCycle.Status)
	h.audit(r, audit.ActionReviewSubmitted, audit.EntityReview, review.ID, before, after)
	h.transitioned(review.AppraisalCycle.Status)
	h.notify(r.Context(), review.AppraisalCycle.Employee.ID, notifications.TypeFeedbackReady,
		"Feedback ready",
		fmt.Sprintf("%s submitted feedback for your %s appraisal.", review.Reviewer.Name, review.AppraisalCycle.Year))
	api.Status(w, "Review submitted", middleware.GetRequestID(r.Context()))
}
