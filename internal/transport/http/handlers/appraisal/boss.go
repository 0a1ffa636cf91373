package appraisalhandler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"appraisal/internal/domain/appraisal"
	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

func (h *Handler) handleBossPending(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Service.PendingBossCycles(r.Context())
	if err != nil {
		writeError(w, r, err, "pending_list_failed")
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := pathID(w, r, "cycleId")
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), cycleID)
	if err != nil {
		writeError(w, r, err, "summary_failed")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := pathID(w, r, "cycleId")
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), cycleID)
	if err != nil {
		writeError(w, r, err, "summary_failed")
		return
	}

	var buf bytes.Buffer
	if err := appraisal.RenderSummaryPDF(&buf, summary); err != nil {
		writeError(w, r, err, "summary_pdf_failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=appraisal-"+strconv.FormatInt(cycleID, 10)+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("summary pdf write failed", "err", err)
	}
}

type closeRequest struct {
	BossComment string `json:"bossComment"`
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := pathID(w, r, "cycleId")
	if !ok {
		return
	}
	var payload closeRequest
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	cycle, err := h.Service.Close(r.Context(), cycleID, payload.BossComment)
	if err != nil {
		writeError(w, r, err, "appraisal_close_failed")
		return
	}

	before, after := statusChange(appraisal.StatusPendingBossReview, cycle.Status)
	h.audit(r, audit.ActionCycleClosed, audit.EntityCycle, cycle.ID, before, after)
	h.transitioned(cycle.Status)
	h.notify(r.Context(), cycle.Employee.ID, notifications.TypeCycleClosed,
		"Appraisal closed",
		fmt.Sprintf("Your %s appraisal has been finalized.", cycle.Year))
	api.Status(w, "Appraisal closed", middleware.GetRequestID(r.Context()))
}
