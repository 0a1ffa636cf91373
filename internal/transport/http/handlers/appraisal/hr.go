package appraisalhandler

import (
	"fmt"
	"net/http"

	"appraisal/internal/domain/appraisal"
	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListAppraisableEmployees(r.Context())
	if err != nil {
		writeError(w, r, err, "employee_list_failed")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListProjectManagers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListProjectManagers(r.Context())
	if err != nil {
		writeError(w, r, err, "pm_list_failed")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Service.ListCycles(r.Context())
	if err != nil {
		writeError(w, r, err, "appraisal_list_failed")
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

type initiateRequest struct {
	EmployeeID shared.Scalar `json:"employeeId"`
	Year       shared.Scalar `json:"year"`
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var payload initiateRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	employeeID := validator.ID("employeeId", payload.EmployeeID)
	validator.Year("year", payload.Year.String())
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user := caller(r)
	cycle, err := h.Service.Initiate(r.Context(), user.UserID, employeeID, payload.Year.String())
	if err != nil {
		writeError(w, r, err, "appraisal_initiate_failed")
		return
	}

	h.audit(r, audit.ActionCycleInitiated, audit.EntityCycle, cycle.ID, nil, cycle)
	h.transitioned(cycle.Status)
	h.notify(r.Context(), cycle.Employee.ID, notifications.TypeCycleInitiated,
		"Appraisal started",
		fmt.Sprintf("Your %s appraisal has been initiated by %s. You can now submit your self-assessment.", cycle.Year, cycle.HRInitiator.Name))
	api.Created(w, cycle, middleware.GetRequestID(r.Context()))
}

type assignRequest struct {
	PMID shared.Scalar `json:"pmId"`
}

func (h *Handler) handleAssignPM(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := pathID(w, r, "cycleId")
	if !ok {
		return
	}
	var payload assignRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	pmID := validator.ID("pmId", payload.PMID)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	review, err := h.Service.AssignPM(r.Context(), cycleID, pmID)
	if err != nil {
		writeError(w, r, err, "appraisal_assign_failed")
		return
	}

	before, after := statusChange(appraisal.StatusOpen, review.AppraisalCycle.Status)
	h.audit(r, audit.ActionPMAssigned, audit.EntityCycle, cycleID, before, after)
	h.transitioned(review.AppraisalCycle.Status)
	h.notify(r.Context(), review.Reviewer.ID, notifications.TypeReviewAssigned,
		"Review assigned",
		fmt.Sprintf("You have been asked to review %s for %s.", review.AppraisalCycle.Employee.Name, review.AppraisalCycle.Year))
	api.Created(w, review, middleware.GetRequestID(r.Context()))
}
