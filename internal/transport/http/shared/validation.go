package shared

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"appraisal/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{
		Field:  field,
		Reason: reason,
	})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

func (v *Validator) Positive(field string, value int64, reason string) {
	if value <= 0 {
		v.Add(field, reason)
	}
}

// ID parses a numeric or string id, recording an issue unless it is a positive integer.
func (v *Validator) ID(field string, value Scalar) int64 {
	id, err := value.Int64()
	if err != nil || id <= 0 {
		v.Add(field, "must be a positive id")
		return 0
	}
	return id
}

func (v *Validator) Year(field, value string) {
	value = strings.TrimSpace(value)
	if len(value) != 4 {
		v.Add(field, "must be a four digit year")
		return
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			v.Add(field, "must be a four digit year")
			return
		}
	}
}

// Ratings checks a rating batch field by field so every bad entry is reported at once.
func (v *Validator) Ratings(field string, entries []RatingEntry, minRating, maxRating int) {
	if len(entries) == 0 {
		v.Add(field, "at least one rating is required")
		return
	}
	seen := make(map[int64]bool, len(entries))
	for i, e := range entries {
		prefix := field + "[" + strconv.Itoa(i) + "]"
		if e.QuestionID <= 0 {
			v.Add(prefix+".questionId", "is required")
		} else if seen[e.QuestionID] {
			v.Add(prefix+".questionId", "is duplicated")
		}
		seen[e.QuestionID] = true
		if e.Rating < minRating || e.Rating > maxRating {
			v.Add(prefix+".rating", "must be between "+strconv.Itoa(minRating)+" and "+strconv.Itoa(maxRating))
		}
	}
}

type RatingEntry struct {
	QuestionID int64
	Rating     int
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
