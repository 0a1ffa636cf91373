package appraisalhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"appraisal/internal/domain/appraisal"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
)

var notFoundErrors = []error{
	appraisal.ErrUserNotFound,
	appraisal.ErrQuestionNotFound,
	appraisal.ErrCycleNotFound,
	appraisal.ErrReviewNotFound,
	appraisal.ErrRatingNotFound,
}

var ruleErrors = []error{
	appraisal.ErrInvalidTransition,
	appraisal.ErrDuplicateCycle,
	appraisal.ErrDuplicateReview,
	appraisal.ErrDuplicateClarification,
	appraisal.ErrNotEmployee,
	appraisal.ErrNotAppraisable,
	appraisal.ErrNotProjectManager,
	appraisal.ErrReviewAlreadySubmitted,
	appraisal.ErrCycleClosed,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError maps workflow errors onto the response envelope. Unknown errors are logged
// and reported with the fallback code.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallbackCode string) {
	requestID := middleware.GetRequestID(r.Context())

	var ruleErr *appraisal.RuleError
	switch {
	case errors.As(err, &ruleErr):
		api.Fail(w, http.StatusConflict, "rule_violation", ruleErr.Error(), requestID)
	case matchesAny(err, notFoundErrors):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case matchesAny(err, ruleErrors):
		api.Fail(w, http.StatusConflict, "rule_violation", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, appraisal.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not permitted for this appraisal", requestID)
	default:
		slog.Error("appraisal request failed", "code", fallbackCode, "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, "internal server error", requestID)
	}
}
