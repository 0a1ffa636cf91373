package appraisalhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/appraisal"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/platform/metrics"
	"appraisal/internal/transport/http/middleware"
)

type fakeWorkflow struct {
	err error

	initiated   []int64
	years       []string
	assignedPM  int64
	selfEntries []appraisal.RatingInput
	closedWith  *string
	reviewer    int64
}

func (f *fakeWorkflow) ListAppraisableEmployees(ctx context.Context) ([]appraisal.User, error) {
	return []appraisal.User{{ID: 1, Name: "John Doe"}}, f.err
}

func (f *fakeWorkflow) ListProjectManagers(ctx context.Context) ([]appraisal.User, error) {
	return []appraisal.User{{ID: 2, Name: "Jane Smith"}}, f.err
}

func (f *fakeWorkflow) ListCycles(ctx context.Context) ([]appraisal.Cycle, error) {
	return []appraisal.Cycle{}, f.err
}

func (f *fakeWorkflow) PendingBossCycles(ctx context.Context) ([]appraisal.Cycle, error) {
	return []appraisal.Cycle{{ID: 10, Status: appraisal.StatusPendingBossReview}}, f.err
}

func (f *fakeWorkflow) ActiveQuestions(ctx context.Context) ([]appraisal.Question, error) {
	return []appraisal.Question{{ID: 1, Text: "Execution", Active: true}}, f.err
}

func (f *fakeWorkflow) EmployeeCycles(ctx context.Context, employeeID int64) ([]appraisal.Cycle, error) {
	return []appraisal.Cycle{}, f.err
}

func (f *fakeWorkflow) ActiveCycle(ctx context.Context, employeeID int64) (*appraisal.Cycle, error) {
	return nil, f.err
}

func (f *fakeWorkflow) PendingReviews(ctx context.Context, reviewerID int64) ([]appraisal.PmReview, error) {
	return []appraisal.PmReview{}, f.err
}

func (f *fakeWorkflow) SubmittedReviews(ctx context.Context, reviewerID int64) ([]appraisal.PmReview, error) {
	return []appraisal.PmReview{}, f.err
}

func (f *fakeWorkflow) Initiate(ctx context.Context, hrID, employeeID int64, year string) (appraisal.Cycle, error) {
	if f.err != nil {
		return appraisal.Cycle{}, f.err
	}
	f.initiated = append(f.initiated, employeeID)
	f.years = append(f.years, year)
	return appraisal.Cycle{
		ID:          10,
		Employee:    appraisal.UserRef{ID: employeeID, Name: "John Doe"},
		HRInitiator: appraisal.UserRef{ID: hrID, Name: "Helen Ross"},
		Year:        year,
		Status:      appraisal.StatusOpen,
	}, nil
}

func (f *fakeWorkflow) AssignPM(ctx context.Context, cycleID, pmID int64) (appraisal.PmReview, error) {
	if f.err != nil {
		return appraisal.PmReview{}, f.err
	}
	f.assignedPM = pmID
	return appraisal.PmReview{
		ID:             20,
		AppraisalCycle: appraisal.CycleRef{ID: cycleID, Employee: appraisal.UserRef{ID: 1, Name: "John Doe"}, Year: "2024", Status: appraisal.StatusPendingPMReview},
		Reviewer:       appraisal.UserRef{ID: pmID, Name: "Jane Smith"},
		Status:         appraisal.ReviewPending,
	}, nil
}

func (f *fakeWorkflow) EmployeeReport(ctx context.Context, employeeID, cycleID int64) ([]appraisal.ReportRow, error) {
	self := 3
	return []appraisal.ReportRow{{QuestionID: 1, PMAverageRating: 4.5, SelfRating: &self}}, f.err
}

func (f *fakeWorkflow) EmployeeFeedback(ctx context.Context, employeeID, cycleID int64) ([]appraisal.FeedbackRow, error) {
	return []appraisal.FeedbackRow{{PMRatingID: 30, Comment: "good"}}, f.err
}

func (f *fakeWorkflow) SubmitSelfAssessment(ctx context.Context, employeeID, cycleID int64, entries []appraisal.RatingInput) error {
	f.selfEntries = entries
	return f.err
}

func (f *fakeWorkflow) SubmitClarification(ctx context.Context, employeeID, ratingID int64, reply string) (appraisal.Clarification, appraisal.RatingOwner, error) {
	if f.err != nil {
		return appraisal.Clarification{}, appraisal.RatingOwner{}, f.err
	}
	return appraisal.Clarification{ID: 40, PMRatingID: ratingID, ReplyText: reply},
		appraisal.RatingOwner{RatingID: ratingID, ReviewerID: 2, EmployeeID: employeeID, EmployeeName: "John Doe"}, nil
}

func (f *fakeWorkflow) ReviewClarifications(ctx context.Context, reviewerID, reviewID int64) ([]appraisal.FeedbackRow, error) {
	return []appraisal.FeedbackRow{}, f.err
}

func (f *fakeWorkflow) SubmitReview(ctx context.Context, reviewerID, reviewID int64, entries []appraisal.RatingInput) (appraisal.PmReview, error) {
	if f.err != nil {
		return appraisal.PmReview{}, f.err
	}
	f.reviewer = reviewerID
	return appraisal.PmReview{
		ID:             reviewID,
		AppraisalCycle: appraisal.CycleRef{ID: 10, Employee: appraisal.UserRef{ID: 1}, Year: "2024", Status: appraisal.StatusPendingBossReview},
		Reviewer:       appraisal.UserRef{ID: reviewerID, Name: "Jane Smith"},
		Status:         appraisal.ReviewSubmitted,
	}, nil
}

func (f *fakeWorkflow) Summary(ctx context.Context, cycleID int64) (appraisal.BossSummary, error) {
	if f.err != nil {
		return appraisal.BossSummary{}, f.err
	}
	return appraisal.BossSummary{
		CycleID:      cycleID,
		EmployeeName: "John Doe",
		Year:         "2024",
		Status:       appraisal.StatusPendingBossReview,
		Reports:      []appraisal.ReportRow{{QuestionID: 1, QuestionText: "Execution", PMAverageRating: 4.5}},
	}, nil
}

func (f *fakeWorkflow) Close(ctx context.Context, cycleID int64, bossComment string) (appraisal.Cycle, error) {
	if f.err != nil {
		return appraisal.Cycle{}, f.err
	}
	f.closedWith = &bossComment
	return appraisal.Cycle{ID: cycleID, Employee: appraisal.UserRef{ID: 1}, Year: "2024", Status: appraisal.StatusClosed}, nil
}

type recordedEvent struct {
	actor    int64
	action   string
	entityID int64
}

type fakeRecorder struct {
	events []recordedEvent
	err    error
}

func (f *fakeRecorder) Record(ctx context.Context, actorID int64, action, entityType string, entityID int64, requestID, ip string, before, after any) error {
	f.events = append(f.events, recordedEvent{actor: actorID, action: action, entityID: entityID})
	return f.err
}

type sentNotification struct {
	userID int64
	ntype  string
	body   string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Create(ctx context.Context, userID int64, ntype, title, body string) error {
	f.sent = append(f.sent, sentNotification{userID: userID, ntype: ntype, body: body})
	return nil
}

type testEnv struct {
	workflow *fakeWorkflow
	recorder *fakeRecorder
	notifier *fakeNotifier
	metrics  *metrics.Collector
	router   http.Handler
}

func newEnv() *testEnv {
	env := &testEnv{
		workflow: &fakeWorkflow{},
		recorder: &fakeRecorder{},
		notifier: &fakeNotifier{},
		metrics:  metrics.New(),
	}
	r := chi.NewRouter()
	NewHandler(env.workflow, auth.StaticPermissions{}, env.recorder, env.notifier, env.metrics).RegisterRoutes(r)
	env.router = r
	return env
}

func (e *testEnv) do(method, path, body string, userID int64, roles ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: userID, Roles: auth.NormalizeRoles(roles)}))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Code
}

func TestRoutePermissions(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		roles  []string
		want   int
	}{
		{name: "employee cannot initiate", method: http.MethodPost, path: "/appraisals", body: `{"employeeId":1,"year":"2024"}`, want: http.StatusForbidden},
		{name: "pm cannot list cycles", method: http.MethodGet, path: "/appraisals", roles: []string{"PROJECT_MANAGER"}, want: http.StatusForbidden},
		{name: "boss lists cycles", method: http.MethodGet, path: "/appraisals", roles: []string{"BOSS"}, want: http.StatusOK},
		{name: "pm lists employees", method: http.MethodGet, path: "/users/employees", roles: []string{"PROJECT_MANAGER"}, want: http.StatusOK},
		{name: "employee cannot list employees", method: http.MethodGet, path: "/users/employees", want: http.StatusForbidden},
		{name: "hr lists pms", method: http.MethodGet, path: "/users/pms", roles: []string{"HR"}, want: http.StatusOK},
		{name: "employee reads questions", method: http.MethodGet, path: "/questions", want: http.StatusOK},
		{name: "employee cannot review", method: http.MethodGet, path: "/pm/pending-reviews", want: http.StatusForbidden},
		{name: "hr cannot close", method: http.MethodPost, path: "/boss/close/10", roles: []string{"HR"}, want: http.StatusForbidden},
		{name: "boss pending", method: http.MethodGet, path: "/boss/pending", roles: []string{"BOSS"}, want: http.StatusOK},
		{name: "employee active cycle", method: http.MethodGet, path: "/employee/active-cycle", want: http.StatusOK},
		{name: "employee cycles", method: http.MethodGet, path: "/employee/cycles", want: http.StatusOK},
		{name: "pm submitted reviews", method: http.MethodGet, path: "/pm/submitted-reviews", roles: []string{"PROJECT_MANAGER"}, want: http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv()
			rec := env.do(tc.method, tc.path, tc.body, 1, tc.roles...)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	env := newEnv()
	if rec := env.do(http.MethodGet, "/employee/cycles", "", 0); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous caller, got %d", rec.Code)
	}
}

func TestInitiate(t *testing.T) {
	env := newEnv()
	rec := env.do(http.MethodPost, "/appraisals", `{"employeeId":1,"year":"2024"}`, 3, "HR")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"OPEN"`) {
		t.Fatalf("expected OPEN cycle in body: %s", rec.Body.String())
	}
	if len(env.recorder.events) != 1 || env.recorder.events[0].actor != 3 || env.recorder.events[0].entityID != 10 {
		t.Fatalf("unexpected audit events: %+v", env.recorder.events)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].userID != 1 || env.notifier.sent[0].ntype != notifications.TypeCycleInitiated {
		t.Fatalf("unexpected notifications: %+v", env.notifier.sent)
	}
	transitions := env.metrics.Snapshot()["transitions"].(map[string]uint64)
	if transitions["OPEN"] != 1 {
		t.Fatalf("expected OPEN transition counted, got %v", transitions)
	}
}

func TestInitiateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed", body: `{"employeeId":`, code: "invalid_payload"},
		{name: "unknown field", body: `{"employee":1,"year":"2024"}`, code: "invalid_payload"},
		{name: "missing employee", body: `{"year":"2024"}`, code: "validation_error"},
		{name: "bad year", body: `{"employeeId":1,"year":"twenty"}`, code: "validation_error"},
		{name: "non numeric employee", body: `{"employeeId":"abc","year":"2024"}`, code: "validation_error"},
		{name: "boolean employee", body: `{"employeeId":true,"year":"2024"}`, code: "invalid_payload"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv()
			rec := env.do(http.MethodPost, "/appraisals", tc.body, 3, "HR")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, got)
			}
			if len(env.workflow.initiated) != 0 {
				t.Fatal("workflow called for invalid payload")
			}
		})
	}
}

func TestInitiateAcceptsStringOrNumberFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "numbers", body: `{"employeeId":3,"year":2024}`},
		{name: "strings", body: `{"employeeId":"3","year":"2024"}`},
		{name: "mixed", body: `{"employeeId":"3","year":2024}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv()
			rec := env.do(http.MethodPost, "/appraisals", tc.body, 3, "HR")
			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(env.workflow.initiated) != 1 || env.workflow.initiated[0] != 3 || env.workflow.years[0] != "2024" {
				t.Fatalf("unexpected workflow input: %v %v", env.workflow.initiated, env.workflow.years)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "duplicate", err: fmt.Errorf("initiate appraisal: %w", appraisal.ErrDuplicateCycle), wantCode: http.StatusConflict, wantErr: "rule_violation"},
		{name: "boss", err: fmt.Errorf("initiate appraisal: %w", appraisal.ErrNotAppraisable), wantCode: http.StatusConflict, wantErr: "rule_violation"},
		{name: "transition", err: fmt.Errorf("x: %w", &appraisal.RuleError{Status: appraisal.StatusClosed, Action: appraisal.ActionFinalize}), wantCode: http.StatusConflict, wantErr: "rule_violation"},
		{name: "missing user", err: fmt.Errorf("x: %w", appraisal.ErrUserNotFound), wantCode: http.StatusNotFound, wantErr: "not_found"},
		{name: "invalid", err: fmt.Errorf("x: %w", appraisal.ErrInvalidInput), wantCode: http.StatusBadRequest, wantErr: "validation_error"},
		{name: "forbidden", err: appraisal.ErrForbidden, wantCode: http.StatusForbidden, wantErr: "forbidden"},
		{name: "unexpected", err: errors.New("connection reset"), wantCode: http.StatusInternalServerError, wantErr: "appraisal_initiate_failed"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv()
			env.workflow.err = tc.err
			rec := env.do(http.MethodPost, "/appraisals", `{"employeeId":1,"year":"2024"}`, 3, "HR")
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			if got := errorCode(t, rec); got != tc.wantErr {
				t.Fatalf("expected %s, got %s", tc.wantErr, got)
			}
			if len(env.recorder.events) != 0 || len(env.notifier.sent) != 0 {
				t.Fatal("side effects ran for failed request")
			}
		})
	}
}

func TestAssignPM(t *testing.T) {
	env := newEnv()
	rec := env.do(http.MethodPost, "/appraisals/10/assign-pm", `{"pmId":2}`, 3, "HR")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].userID != 2 || env.notifier.sent[0].ntype != notifications.TypeReviewAssigned {
		t.Fatalf("expected pm notification, got %+v", env.notifier.sent)
	}

	if rec := env.do(http.MethodPost, "/appraisals/10/assign-pm", `{"pmId":"5"}`, 3, "HR"); rec.Code != http.StatusCreated || env.workflow.assignedPM != 5 {
		t.Fatalf("expected string pm id accepted, got %d pm %d", rec.Code, env.workflow.assignedPM)
	}

	if rec := env.do(http.MethodPost, "/appraisals/abc/assign-pm", `{"pmId":2}`, 3, "HR"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestSelfAssessment(t *testing.T) {
	env := newEnv()
	body := `[{"questionId":1,"rating":4,"comment":"ok"},{"questionId":2,"rating":5,"comment":""}]`
	rec := env.do(http.MethodPost, "/employee/self-assessment/10", body, 1)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.workflow.selfEntries) != 2 || env.workflow.selfEntries[0].Comment != "ok" {
		t.Fatalf("unexpected entries: %+v", env.workflow.selfEntries)
	}

	for _, bad := range []string{`[]`, `[{"questionId":1,"rating":9}]`, `{"questionId":1}`} {
		if rec := env.do(http.MethodPost, "/employee/self-assessment/10", bad, 1); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", bad, rec.Code)
		}
	}
}

func TestClarify(t *testing.T) {
	env := newEnv()
	rec := env.do(http.MethodPost, "/employee/clarify", `{"pmRatingId":30,"replyText":"context"}`, 1)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].userID != 2 || env.notifier.sent[0].ntype != notifications.TypeClarification {
		t.Fatalf("expected reviewer notification, got %+v", env.notifier.sent)
	}
	if !strings.HasPrefix(env.notifier.sent[0].body, "John Doe replied") {
		t.Fatalf("expected employee display name in notification, got %q", env.notifier.sent[0].body)
	}

	if rec := env.do(http.MethodPost, "/employee/clarify", `{"pmRatingId":30,"replyText":"  "}`, 1); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank reply, got %d", rec.Code)
	}

	env.workflow.err = fmt.Errorf("submit clarification: %w", appraisal.ErrDuplicateClarification)
	if rec := env.do(http.MethodPost, "/employee/clarify", `{"pmRatingId":30,"replyText":"again"}`, 1); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}
}

func TestSubmitReview(t *testing.T) {
	env := newEnv()
	rec := env.do(http.MethodPost, "/pm/reviews/20/submit", `[{"questionId":1,"rating":4,"comment":"solid"}]`, 2, "PROJECT_MANAGER")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.workflow.reviewer != 2 {
		t.Fatalf("expected caller passed as reviewer, got %d", env.workflow.reviewer)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].ntype != notifications.TypeFeedbackReady {
		t.Fatalf("expected feedback notification, got %+v", env.notifier.sent)
	}
	transitions := env.metrics.Snapshot()["transitions"].(map[string]uint64)
	if transitions["PENDING_BOSS_REVIEW"] != 1 {
		t.Fatalf("expected transition counted, got %v", transitions)
	}
}

func TestCloseAcceptsEmptyBody(t *testing.T) {
	env := newEnv()
	rec := env.do(http.MethodPost, "/boss/close/10", "", 4, "BOSS")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.workflow.closedWith == nil || *env.workflow.closedWith != "" {
		t.Fatalf("expected empty comment, got %v", env.workflow.closedWith)
	}

	rec = env.do(http.MethodPost, "/boss/close/10", `{"bossComment":"Great year"}`, 4, "BOSS")
	if rec.Code != http.StatusOK || *env.workflow.closedWith != "Great year" {
		t.Fatalf("expected comment forwarded, got %d %v", rec.Code, env.workflow.closedWith)
	}
	if len(env.recorder.events) != 2 {
		t.Fatalf("expected audit per close, got %d", len(env.recorder.events))
	}
}

func TestCloseTwiceIsConflict(t *testing.T) {
	env := newEnv()
	env.workflow.err = fmt.Errorf("close appraisal: %w", &appraisal.RuleError{Status: appraisal.StatusClosed, Action: appraisal.ActionFinalize})
	rec := env.do(http.MethodPost, "/boss/close/10", "", 4, "BOSS")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already closed") {
		t.Fatalf("expected already closed message: %s", rec.Body.String())
	}
}

func TestSummaryPDF(t *testing.T) {
	env := newEnv()
	rec := env.do(http.MethodGet, "/boss/summary/10/pdf", "", 4, "BOSS")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatal("expected pdf body")
	}
}

func TestSummaryJSON(t *testing.T) {
	env := newEnv()
	rec := env.do(http.MethodGet, "/boss/summary/10", "", 4, "BOSS")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data appraisal.BossSummary `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.CycleID != 10 || len(body.Data.Reports) != 1 || body.Data.Reports[0].PMAverageRating != 4.5 {
		t.Fatalf("unexpected summary: %+v", body.Data)
	}
}

func TestAuditFailureDoesNotFailRequest(t *testing.T) {
	env := newEnv()
	env.recorder.err = errors.New("audit down")
	rec := env.do(http.MethodPost, "/boss/close/10", "", 4, "BOSS")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite audit failure, got %d", rec.Code)
	}
}
