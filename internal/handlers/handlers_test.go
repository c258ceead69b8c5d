package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-service/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/report"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===== MOCK SERVICES =====

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Start(ctx context.Context, req *services.StartSessionRequest, studentID string) (*report.StartResult, error) {
	args := m.Called(ctx, req, studentID)
	if r := args.Get(0); r != nil {
		return r.(*report.StartResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionService) SubmitAnswer(ctx context.Context, sessionID string, req *services.SubmitAnswerRequest, studentID string) (*services.AnswerResult, error) {
	args := m.Called(ctx, sessionID, req, studentID)
	if r := args.Get(0); r != nil {
		return r.(*services.AnswerResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionService) History(ctx context.Context, studentID string) ([]report.HistoryEntry, error) {
	args := m.Called(ctx, studentID)
	if r := args.Get(0); r != nil {
		return r.([]report.HistoryEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTelemetryService struct {
	mock.Mock
}

func (m *MockTelemetryService) RecordEvents(ctx context.Context, sessionID string, req *services.TelemetryBatch, studentID string) (int, error) {
	args := m.Called(ctx, sessionID, req, studentID)
	return args.Int(0), args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) CompleteSession(ctx context.Context, session *models.Session, answers []*models.AnsweredQuestion) utils.Optional[*models.RiskReport] {
	args := m.Called(ctx, session, answers)
	return args.Get(0).(utils.Optional[*models.RiskReport])
}

func (m *MockAnalyticsService) GetRiskReport(ctx context.Context, sessionID string) (*report.RiskReportView, error) {
	args := m.Called(ctx, sessionID)
	if r := args.Get(0); r != nil {
		return r.(*report.RiskReportView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalyticsService) RecomputeRisk(ctx context.Context, sessionID string) (*report.RiskReportView, error) {
	args := m.Called(ctx, sessionID)
	if r := args.Get(0); r != nil {
		return r.(*report.RiskReportView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalyticsService) ComputeProfile(ctx context.Context, sessionID string, caller models.Caller) (*report.ProfileView, error) {
	args := m.Called(ctx, sessionID, caller)
	if r := args.Get(0); r != nil {
		return r.(*report.ProfileView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalyticsService) GetProfile(ctx context.Context, sessionID string) (*report.ProfileView, error) {
	args := m.Called(ctx, sessionID)
	if r := args.Get(0); r != nil {
		return r.(*report.ProfileView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalyticsService) RecomputeSubject(ctx context.Context, subject string) (*services.RecomputeSummary, error) {
	args := m.Called(ctx, subject)
	if r := args.Get(0); r != nil {
		return r.(*services.RecomputeSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportSubject(ctx context.Context, subject string) ([]byte, error) {
	args := m.Called(ctx, subject)
	if r := args.Get(0); r != nil {
		return r.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExportService) WriteFile(ctx context.Context, subject, path string) error {
	return m.Called(ctx, subject, path).Error(0)
}

type mockServiceManager struct {
	session   *MockSessionService
	telemetry *MockTelemetryService
	analytics *MockAnalyticsService
	export    *MockExportService
}

func (m *mockServiceManager) Session() services.SessionService     { return m.session }
func (m *mockServiceManager) Telemetry() services.TelemetryService { return m.telemetry }
func (m *mockServiceManager) Analytics() services.AnalyticsService { return m.analytics }
func (m *mockServiceManager) Export() services.ExportService       { return m.export }
func (m *mockServiceManager) Events() services.EventService        { return nil }

// ===== HELPERS =====

func newTestRouter(t *testing.T) (*gin.Engine, *mockServiceManager) {
	t.Helper()
	sm := &mockServiceManager{
		session:   &MockSessionService{},
		telemetry: &MockTelemetryService{},
		analytics: &MockAnalyticsService{},
		export:    &MockExportService{},
	}
	t.Cleanup(func() {
		sm.session.AssertExpectations(t)
		sm.telemetry.AssertExpectations(t)
		sm.analytics.AssertExpectations(t)
		sm.export.AssertExpectations(t)
	})

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hm := NewHandlerManager(sm, HeaderAuthenticator{}, logger)
	return NewRouter(hm, []string{"http://localhost:3000"}, logger), sm
}

func doRequest(router *gin.Engine, method, path, body, userID, role string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(headerUserID, userID)
	}
	if role != "" {
		req.Header.Set(headerUserRole, role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ===== TESTS =====

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), serviceName)
}

func TestAuthMiddleware_RejectsMissingIdentity(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/adaptive/start", `{"subject":"Math"}`, "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthenticated, decodeError(t, w).Code)
}

func TestStartSession(t *testing.T) {
	router, sm := newTestRouter(t)

	start := &report.StartResult{SessionID: "s1", QuestionNumber: 1, TotalQuestions: 10, CurrentSkill: 5, Difficulty: 5.2}
	sm.session.On("Start", mock.Anything, &services.StartSessionRequest{Subject: "Math"}, "student-1").Return(start, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/adaptive/start", `{"subject":"Math"}`, "student-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "s1", body["sessionId"])
	assert.EqualValues(t, 10, body["totalQuestions"])
}

func TestStartSession_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperrors.ValidationErrors{{Field: "subject", Message: "required"}}, http.StatusBadRequest, CodeValidationFailed},
		{"generation", errors.Join(services.ErrQuestionGeneration, errors.New("timeout")), http.StatusBadGateway, CodeQuestionGeneration},
		{"internal", errors.New("db down"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sm := newTestRouter(t)
			sm.session.On("Start", mock.Anything, mock.Anything, "student-1").Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/api/v1/adaptive/start", `{"subject":""}`, "student-1", "")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestStartSession_MalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/adaptive/start", `{"subject":`, "student-1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidationFailed, decodeError(t, w).Code)
}

func TestSubmitAnswer(t *testing.T) {
	body := `{"questionText":"Q","options":["A","B","C","D"],"correctAnswer":"A","studentAnswer":"A","difficulty":5}`

	t.Run("next question", func(t *testing.T) {
		router, sm := newTestRouter(t)
		next := &report.NextQuestionResult{IsCorrect: true, SkillBefore: 5, SkillAfter: 6, QuestionNumber: 2}
		sm.session.On("SubmitAnswer", mock.Anything, "s1", mock.AnythingOfType("*services.SubmitAnswerRequest"), "student-1").
			Return(&services.AnswerResult{Next: next}, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/answer", body, "student-1", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["done"])
		assert.Equal(t, true, resp["isCorrect"])
		assert.EqualValues(t, 2, resp["questionNumber"])
	})

	t.Run("completion", func(t *testing.T) {
		router, sm := newTestRouter(t)
		done := &report.CompletionResult{Done: true, Score: 7, TotalQuestions: 10, FinalSkill: 6.4}
		sm.session.On("SubmitAnswer", mock.Anything, "s1", mock.Anything, "student-1").
			Return(&services.AnswerResult{Completion: done}, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/answer", body, "student-1", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["done"])
		assert.EqualValues(t, 7, resp["score"])
	})

	t.Run("session not found", func(t *testing.T) {
		router, sm := newTestRouter(t)
		sm.session.On("SubmitAnswer", mock.Anything, "s1", mock.Anything, "student-1").Return(nil, services.ErrSessionNotFound)

		w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/answer", body, "student-1", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, CodeSessionNotFound, decodeError(t, w).Code)
	})

	t.Run("conflict", func(t *testing.T) {
		router, sm := newTestRouter(t)
		sm.session.On("SubmitAnswer", mock.Anything, "s1", mock.Anything, "student-1").Return(nil, services.ErrAnswerConflict)

		w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/answer", body, "student-1", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeAnswerConflict, decodeError(t, w).Code)
	})
}

func TestGetHistory(t *testing.T) {
	router, sm := newTestRouter(t)
	sm.session.On("History", mock.Anything, "student-1").Return([]report.HistoryEntry{}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/adaptive/history", "", "student-1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRecordEvents(t *testing.T) {
	t.Run("records batch", func(t *testing.T) {
		router, sm := newTestRouter(t)
		sm.telemetry.On("RecordEvents", mock.Anything, "s1", mock.MatchedBy(func(b *services.TelemetryBatch) bool {
			return len(b.Events) == 2 && b.Events[0].Type == "focus_lost"
		}), "student-1").Return(2, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/events",
			`{"events":[{"type":"focus_lost","questionNumber":1},{"type":"paste","value":{"length":40}}]}`, "student-1", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"recorded":2}`, w.Body.String())
	})

	t.Run("events not an array", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/events", `{"events":"nope"}`, "student-1", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "events must be an array", resp.Message)
	})

	t.Run("foreign session", func(t *testing.T) {
		router, sm := newTestRouter(t)
		sm.telemetry.On("RecordEvents", mock.Anything, "s1", mock.Anything, "student-2").Return(0, services.ErrSessionNotFound)

		w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/events", `{"events":[]}`, "student-2", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetRiskReport(t *testing.T) {
	router, sm := newTestRouter(t)
	sm.analytics.On("GetRiskReport", mock.Anything, "missing").Return(nil, services.ErrReportNotFound)

	w := doRequest(router, http.MethodGet, "/api/v1/adaptive/missing/report", "", "student-1", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeReportNotFound, decodeError(t, w).Code)
}

func TestRecomputeRiskReport_RequiresStaff(t *testing.T) {
	router, sm := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/report/recompute", "", "student-1", "student")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, decodeError(t, w).Code)

	view := &report.RiskReportView{RiskReport: &models.RiskReport{SessionID: "s1", RiskIndex: 50, RiskLevel: "high"}}
	sm.analytics.On("RecomputeRisk", mock.Anything, "s1").Return(view, nil)

	w = doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/report/recompute", "", "teacher-1", "teacher")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecomputeRiskReport_NotCompleted(t *testing.T) {
	router, sm := newTestRouter(t)
	sm.analytics.On("RecomputeRisk", mock.Anything, "s1").
		Return(nil, services.NewBusinessRuleError("session_completed", "Session is not completed", map[string]interface{}{"session_id": "s1"}))

	w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/report/recompute", "", "admin-1", "admin")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeSessionState, decodeError(t, w).Code)
}

func TestComputeProfile_PassesCaller(t *testing.T) {
	router, sm := newTestRouter(t)
	caller := models.Caller{UserID: "teacher-1", Role: models.RoleTeacher}
	sm.analytics.On("ComputeProfile", mock.Anything, "s1", caller).Return(&report.ProfileView{}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/profile", "", "teacher-1", "Teacher")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComputeProfile_Forbidden(t *testing.T) {
	router, sm := newTestRouter(t)
	sm.analytics.On("ComputeProfile", mock.Anything, "s1", mock.Anything).
		Return(nil, services.NewPermissionError("student-2", "s1", "session", "profile", "not the session owner"))

	w := doRequest(router, http.MethodPost, "/api/v1/adaptive/s1/profile", "", "student-2", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetProfile_NotFound(t *testing.T) {
	router, sm := newTestRouter(t)
	sm.analytics.On("GetProfile", mock.Anything, "s1").Return(nil, services.ErrProfileNotFound)

	w := doRequest(router, http.MethodGet, "/api/v1/adaptive/s1/profile", "", "student-1", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeProfileNotFound, decodeError(t, w).Code)
}

func TestExportSubject(t *testing.T) {
	router, sm := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/adaptive/export?subject=Math", "", "student-1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/adaptive/export", "", "teacher-1", "teacher")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sm.export.On("ExportSubject", mock.Anything, "Linear Algebra").Return([]byte("xlsx"), nil)
	w = doRequest(router, http.MethodGet, "/api/v1/adaptive/export?subject=Linear%20Algebra", "", "teacher-1", "teacher")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "adaptive_Linear_Algebra.xlsx")
	assert.Equal(t, "xlsx", w.Body.String())
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "adaptive_Math.xlsx", exportFileName("Math"))
	assert.Equal(t, "adaptive_C_basics.xlsx", exportFileName("C++ basics"))
	assert.Equal(t, "adaptive_subject.xlsx", exportFileName("/../"))
}

// ===== AUTHENTICATORS =====

type fakeTokenParser struct {
	claims *casdoorsdk.Claims
	err    error
	token  string
}

func (f *fakeTokenParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	f.token = token
	return f.claims, f.err
}

func newContextWithHeader(key, value string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if key != "" {
		c.Request.Header.Set(key, value)
	}
	return c
}

func TestCasdoorAuthenticator(t *testing.T) {
	claims := &casdoorsdk.Claims{User: casdoorsdk.User{Id: "u-1", Name: "alice", DisplayName: "Alice", Tag: "student"}}
	parser := &fakeTokenParser{claims: claims}
	auth := NewCasdoorAuthenticator(parser)

	caller, err := auth.Authenticate(newContextWithHeader("Authorization", "Bearer abc.def"))
	require.NoError(t, err)
	assert.Equal(t, "abc.def", parser.token)
	assert.Equal(t, models.Caller{UserID: "u-1", Name: "Alice", Role: models.RoleStudent}, caller)

	_, err = auth.Authenticate(newContextWithHeader("", ""))
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = auth.Authenticate(newContextWithHeader("Authorization", "Basic abc"))
	assert.ErrorIs(t, err, ErrMissingCredentials)

	parser.err = errors.New("signature mismatch")
	_, err = auth.Authenticate(newContextWithHeader("Authorization", "Bearer bad"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCallerFromClaims_Roles(t *testing.T) {
	tests := []struct {
		name string
		user casdoorsdk.User
		role models.UserRole
		id   string
	}{
		{"tag teacher", casdoorsdk.User{Id: "1", Tag: "teacher"}, models.RoleTeacher, "1"},
		{"admin flag", casdoorsdk.User{Id: "2", IsAdmin: true}, models.RoleAdmin, "2"},
		{"role list", casdoorsdk.User{Id: "3", Roles: []*casdoorsdk.Role{nil, {Name: "teacher"}}}, models.RoleTeacher, "3"},
		{"admin wins", casdoorsdk.User{Id: "4", Roles: []*casdoorsdk.Role{{Name: "admin"}, {Name: "teacher"}}}, models.RoleAdmin, "4"},
		{"name fallback", casdoorsdk.User{Name: "bob"}, models.RoleStudent, "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller, err := callerFromClaims(&casdoorsdk.Claims{User: tt.user})
			require.NoError(t, err)
			assert.Equal(t, tt.role, caller.Role)
			assert.Equal(t, tt.id, caller.UserID)
		})
	}

	_, err := callerFromClaims(&casdoorsdk.Claims{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
