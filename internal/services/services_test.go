package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/adaptive"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/llm"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/questiongen"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ===== TEST DOUBLES =====

type MockQuestionGenerator struct {
	mock.Mock
}

func (m *MockQuestionGenerator) Generate(ctx context.Context, subject string, difficulty float64) (*models.GeneratedQuestion, error) {
	args := m.Called(ctx, subject, difficulty)
	if q := args.Get(0); q != nil {
		return q.(*models.GeneratedQuestion), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== FIXTURES =====

type fixture struct {
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	manager   ServiceManager
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepository(t *testing.T) repositories.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return postgres.NewRepository(db)
}

func sampleGenerator() questiongen.QuestionGenerator {
	provider := llm.NewMockProvider()
	provider.Responder = questiongen.SampleResponder
	return questiongen.NewGenerator(provider, 0, discardLogger())
}

func newFixture(t *testing.T, generator questiongen.QuestionGenerator) *fixture {
	t.Helper()
	repo := newTestRepository(t)
	publisher := events.NewMockEventPublisher(discardLogger())

	manager := NewServiceManager(Dependencies{
		Repo:      repo,
		Generator: generator,
		Publisher: publisher,
		Settings:  config.NewStaticAnalyticsStore(config.DefaultAnalyticsSettings()),
		Rand:      adaptive.NewSeededSource(7, 11),
		Logger:    discardLogger(),
	})
	return &fixture{repo: repo, publisher: publisher, manager: manager}
}

func answerRequest(correct bool) *SubmitAnswerRequest {
	student := "A"
	if !correct {
		student = "B"
	}
	return &SubmitAnswerRequest{
		QuestionText:  "What is 2 + 2?",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: "A",
		StudentAnswer: student,
		Explanation:   "because",
		Topic:         "arithmetic",
		Difficulty:    5.0,
	}
}

func seedCompletedSession(t *testing.T, repo repositories.Repository, studentID, subject string, answers []string, completedAt time.Time) *models.Session {
	t.Helper()
	ctx := context.Background()

	session := &models.Session{
		ID:                uuid.NewString(),
		StudentID:         studentID,
		Subject:           subject,
		CurrentSkill:      6,
		QuestionsAnswered: len(answers),
		TotalQuestions:    len(answers),
		Status:            models.SessionCompleted,
		StartedAt:         completedAt.Add(-10 * time.Minute),
		CompletedAt:       &completedAt,
	}
	require.NoError(t, repo.Session().Create(ctx, nil, session))

	for i, a := range answers {
		require.NoError(t, repo.Answer().Create(ctx, nil, &models.AnsweredQuestion{
			ID:                 uuid.NewString(),
			SessionID:          session.ID,
			QuestionNumber:     i + 1,
			QuestionText:       "question",
			Options:            datatypes.JSON(`["A","B","C","D"]`),
			CorrectAnswer:      a,
			StudentAnswer:      a,
			IsCorrect:          true,
			QuestionDifficulty: 5,
			SkillBefore:        5,
			SkillAfter:         5,
		}))
	}
	return session
}

// ===== SESSION FLOW =====

func TestSessionService_FullSessionAlternatingAnswers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	start, err := f.manager.Session().Start(ctx, &StartSessionRequest{Subject: "Physics"}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 1, start.QuestionNumber)
	assert.Equal(t, 10, start.TotalQuestions)
	assert.Equal(t, adaptive.InitialSkill, start.CurrentSkill)
	assert.InDelta(t, 5.0, start.Difficulty, 0.3)
	require.NotNil(t, start.Question)
	assert.Len(t, start.Question.Options, 4)

	var final *AnswerResult
	for i := 0; i < 10; i++ {
		result, err := f.manager.Session().SubmitAnswer(ctx, start.SessionID, answerRequest(i%2 == 0), "student-1")
		require.NoError(t, err, "answer %d", i+1)

		if i < 9 {
			require.False(t, result.Done())
			assert.Equal(t, i+2, result.Next.QuestionNumber)
			assert.Equal(t, i%2 == 0, result.Next.IsCorrect)
			assert.GreaterOrEqual(t, result.Next.Difficulty, adaptive.MinSkill)
			assert.LessOrEqual(t, result.Next.Difficulty, adaptive.MaxSkill)
		}
		final = result
	}

	require.True(t, final.Done())
	completion := final.Completion
	assert.Equal(t, 5, completion.Score)
	assert.InDelta(t, 5.0, completion.FinalSkill, 1.5)
	require.Len(t, completion.SkillProgression, 10)
	for i, point := range completion.SkillProgression {
		assert.Equal(t, i+1, point.Q)
		assert.Equal(t, 5.0, point.Difficulty)
	}

	// No telemetry and no peers: a clean report
	require.NotNil(t, completion.AntiCheat)
	assert.Equal(t, 0, completion.AntiCheat.RiskIndex)
	assert.Equal(t, models.RiskLow, completion.AntiCheat.RiskLevel)

	session, err := f.repo.Session().GetByID(ctx, nil, start.SessionID)
	require.NoError(t, err)
	assert.True(t, session.IsCompleted())
	assert.Equal(t, 10, session.QuestionsAnswered)
	require.NotNil(t, session.RiskIndex)
	assert.Equal(t, 0, *session.RiskIndex)

	stored, err := f.manager.Analytics().GetRiskReport(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, stored.RiskLevel)

	profile, err := f.manager.Analytics().GetProfile(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, start.SessionID, profile.SessionID)

	assert.Len(t, f.publisher.EventsOfType(events.EventSessionStarted), 1)
	assert.Len(t, f.publisher.EventsOfType(events.EventSessionCompleted), 1)
	assert.Len(t, f.publisher.EventsOfType(events.EventProfileComputed), 1)
	assert.Empty(t, f.publisher.EventsOfType(events.EventRiskFlagged))

	// The session is closed for further answers
	_, err = f.manager.Session().SubmitAnswer(ctx, start.SessionID, answerRequest(true), "student-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	history, err := f.manager.Session().History(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, start.SessionID, history[0].ID)
	assert.NotEmpty(t, history[0].Level.Label)
}

func TestSessionService_StartValidation(t *testing.T) {
	f := newFixture(t, sampleGenerator())

	_, err := f.manager.Session().Start(context.Background(), &StartSessionRequest{}, "student-1")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSessionService_StartGenerationFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	generator := new(MockQuestionGenerator)
	generator.On("Generate", mock.Anything, "Chemistry", mock.AnythingOfType("float64")).
		Return(nil, errors.New("model offline"))

	f := newFixture(t, generator)

	_, err := f.manager.Session().Start(ctx, &StartSessionRequest{Subject: "Chemistry"}, "student-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuestionGeneration)
	assert.True(t, IsUpstream(err))

	sessions, err := f.repo.Session().ListByStudent(ctx, nil, "student-1", 10)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	generator.AssertExpectations(t)
}

func TestSessionService_GenerationFailureAfterAnswerKeepsAnswer(t *testing.T) {
	ctx := context.Background()
	generator := new(MockQuestionGenerator)
	generator.On("Generate", mock.Anything, "Math", mock.AnythingOfType("float64")).
		Return(questiongen.SampleQuestion("Math", 5), nil).Once()
	generator.On("Generate", mock.Anything, "Math", mock.AnythingOfType("float64")).
		Return(nil, errors.New("rate limited"))

	f := newFixture(t, generator)

	start, err := f.manager.Session().Start(ctx, &StartSessionRequest{Subject: "Math"}, "student-1")
	require.NoError(t, err)

	_, err = f.manager.Session().SubmitAnswer(ctx, start.SessionID, answerRequest(true), "student-1")
	assert.ErrorIs(t, err, ErrQuestionGeneration)

	session, err := f.repo.Session().GetByID(ctx, nil, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.QuestionsAnswered)
	assert.Greater(t, session.CurrentSkill, adaptive.InitialSkill)

	answers, err := f.repo.Answer().ListBySession(ctx, nil, start.SessionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, 1, answers[0].QuestionNumber)
}

func TestSessionService_SubmitAnswerOwnershipAndValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	start, err := f.manager.Session().Start(ctx, &StartSessionRequest{Subject: "History"}, "student-1")
	require.NoError(t, err)

	_, err = f.manager.Session().SubmitAnswer(ctx, start.SessionID, answerRequest(true), "student-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.manager.Session().SubmitAnswer(ctx, "missing", answerRequest(true), "student-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	bad := answerRequest(true)
	bad.Difficulty = 11
	_, err = f.manager.Session().SubmitAnswer(ctx, start.SessionID, bad, "student-1")
	assert.True(t, IsValidation(err))

	session, err := f.repo.Session().GetByID(ctx, nil, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, session.QuestionsAnswered)
}

// ===== TELEMETRY =====

func TestTelemetryService_RecordEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	start, err := f.manager.Session().Start(ctx, &StartSessionRequest{Subject: "Biology"}, "student-1")
	require.NoError(t, err)

	q0, q2 := 0, 2
	batch := &TelemetryBatch{Events: []TelemetryEventInput{
		{Type: "answer_time", QuestionNumber: &q2, Value: json.RawMessage(`{"time_ms": 1200, "difficulty": 6}`)},
		{Type: "paste", QuestionNumber: &q0, Value: json.RawMessage(`null`)},
		{Type: "tab_switch"},
	}}

	recorded, err := f.manager.Telemetry().RecordEvents(ctx, start.SessionID, batch, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 3, recorded)

	stored, err := f.repo.Telemetry().ListBySession(ctx, nil, start.SessionID)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.Equal(t, models.EventAnswerTime, stored[0].Type)
	assert.Equal(t, 2, stored[0].Question())
	assert.Equal(t, 1200.0, stored[0].TimeMs())

	assert.Equal(t, models.EventPaste, stored[1].Type)
	assert.Nil(t, stored[1].QuestionNumber)
	assert.JSONEq(t, `{}`, string(stored[1].Value))
	assert.JSONEq(t, `{}`, string(stored[2].Value))

	// Duplicates are appended, not merged
	_, err = f.manager.Telemetry().RecordEvents(ctx, start.SessionID, batch, "student-1")
	require.NoError(t, err)
	stored, err = f.repo.Telemetry().ListBySession(ctx, nil, start.SessionID)
	require.NoError(t, err)
	var pastes int
	for _, e := range stored {
		if e.Type == models.EventPaste {
			pastes++
		}
	}
	assert.Equal(t, 2, pastes)
}

func TestTelemetryService_RejectsForeignSessionAndBadEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	start, err := f.manager.Session().Start(ctx, &StartSessionRequest{Subject: "Biology"}, "student-1")
	require.NoError(t, err)

	_, err = f.manager.Telemetry().RecordEvents(ctx, start.SessionID, &TelemetryBatch{Events: []TelemetryEventInput{{Type: "blur"}}}, "student-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.manager.Telemetry().RecordEvents(ctx, start.SessionID, &TelemetryBatch{}, "student-1")
	assert.True(t, IsValidation(err))

	_, err = f.manager.Telemetry().RecordEvents(ctx, start.SessionID, &TelemetryBatch{Events: []TelemetryEventInput{{Type: " "}}}, "student-1")
	assert.True(t, IsValidation(err))

	recorded, err := f.manager.Telemetry().RecordEvents(ctx, start.SessionID, &TelemetryBatch{Events: []TelemetryEventInput{}}, "student-1")
	require.NoError(t, err)
	assert.Zero(t, recorded)
}

// ===== ANALYTICS =====

func TestAnalyticsService_RecomputeRiskFlagsIdenticalPeer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	answers := []string{"A", "B", "C", "D", "A", "B", "C", "D", "A", "B"}
	now := time.Now().UTC()
	seedCompletedSession(t, f.repo, "student-2", "Math", answers, now.Add(-time.Hour))
	mine := seedCompletedSession(t, f.repo, "student-1", "Math", answers, now)

	view, err := f.manager.Analytics().RecomputeRisk(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, view.RiskIndex)
	assert.Equal(t, models.RiskHigh, view.RiskLevel)
	assert.Equal(t, 1.0, view.Details.Breakdown.PatternSimilarity)
	assert.Equal(t, 10, view.Details.Breakdown.LongestIdenticalRun)

	// Recomputing an unchanged session is idempotent
	again, err := f.manager.Analytics().RecomputeRisk(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, view.RiskIndex, again.RiskIndex)
	assert.Equal(t, view.Details.Signals, again.Details.Signals)

	assert.Len(t, f.publisher.EventsOfType(events.EventRiskFlagged), 2)
}

func TestAnalyticsService_NotFoundAndSessionState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	_, err := f.manager.Analytics().GetRiskReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.True(t, IsNotFound(err))

	_, err = f.manager.Analytics().GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = f.manager.Analytics().RecomputeRisk(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	start, err := f.manager.Session().Start(ctx, &StartSessionRequest{Subject: "Art"}, "student-1")
	require.NoError(t, err)

	_, err = f.manager.Analytics().RecomputeRisk(ctx, start.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotCompleted)
	assert.True(t, IsBusinessRule(err))

	owner := models.Caller{UserID: "student-1", Role: models.RoleStudent}
	_, err = f.manager.Analytics().ComputeProfile(ctx, start.SessionID, owner)
	assert.ErrorIs(t, err, ErrSessionNotCompleted)
}

func TestAnalyticsService_ComputeProfileAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	session := seedCompletedSession(t, f.repo, "student-1", "Math", []string{"A", "B"}, time.Now().UTC())

	stranger := models.Caller{UserID: "student-9", Role: models.RoleStudent}
	_, err := f.manager.Analytics().ComputeProfile(ctx, session.ID, stranger)
	assert.True(t, IsUnauthorized(err))

	teacher := models.Caller{UserID: "teacher-1", Role: models.RoleTeacher}
	view, err := f.manager.Analytics().ComputeProfile(ctx, session.ID, teacher)
	require.NoError(t, err)
	assert.Equal(t, session.ID, view.SessionID)
	assert.Equal(t, models.ArchetypeDecisiveConfident, view.Profile.ID)

	owner := models.Caller{UserID: "student-1", Role: models.RoleStudent}
	_, err = f.manager.Analytics().ComputeProfile(ctx, session.ID, owner)
	require.NoError(t, err)

	stored, err := f.manager.Analytics().GetProfile(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ConfidenceIndex, stored.ConfidenceIndex)
}

func TestAnalyticsService_RecomputeSubject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	now := time.Now().UTC()
	seedCompletedSession(t, f.repo, "student-1", "Math", []string{"A", "B", "C"}, now.Add(-2*time.Hour))
	seedCompletedSession(t, f.repo, "student-2", "Math", []string{"A", "C", "C"}, now.Add(-time.Hour))
	seedCompletedSession(t, f.repo, "student-3", "Physics", []string{"A"}, now)

	summary, err := f.manager.Analytics().RecomputeSubject(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, &RecomputeSummary{Subject: "Math", Sessions: 2, RiskReports: 2, Profiles: 2}, summary)
}

// ===== EXPORT =====

func TestExportService_ExportSubject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleGenerator())

	now := time.Now().UTC()
	first := seedCompletedSession(t, f.repo, "student-1", "Math", []string{"A", "B"}, now.Add(-time.Hour))
	seedCompletedSession(t, f.repo, "student-2", "Math", []string{"C", "D"}, now)

	_, err := f.manager.Analytics().RecomputeRisk(ctx, first.ID)
	require.NoError(t, err)

	data, err := f.manager.Export().ExportSubject(ctx, "Math")
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	riskRows, err := book.GetRows(riskSheet)
	require.NoError(t, err)
	require.Len(t, riskRows, 3)
	assert.Equal(t, "Session ID", riskRows[0][0])
	assert.Equal(t, "Score", riskRows[0][4])

	profileRows, err := book.GetRows(profileSheet)
	require.NoError(t, err)
	require.Len(t, profileRows, 3)

	var reported int
	for _, row := range riskRows[1:] {
		assert.Equal(t, "2", row[4])
		if len(row) > 5 {
			reported++
		}
	}
	assert.Equal(t, 1, reported)
}
