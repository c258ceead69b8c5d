package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	riskSheet    = "Risk"
	profileSheet = "Profiles"
)

var (
	riskHeaders = []interface{}{
		"Session ID", "Student ID", "Completed At", "Final Skill", "Score", "Risk Index", "Risk Level",
		"Paste Events", "Tab Switches", "Speed Flags", "Correctness Spike", "Pattern Similarity",
		"Longest Identical Run", "Avg Answer Time (ms)", "Min Answer Time (ms)",
	}
	profileHeaders = []interface{}{
		"Session ID", "Student ID", "Confidence Index", "Stress Level", "Archetype", "Label",
		"Avg Answer (ms)", "Answer Changes", "Skips", "Pauses",
	}
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportSubject renders one workbook with a risk row and a profile row per
// completed session of the subject. Sessions without a stored report or
// profile leave those columns empty.
func (s *exportService) ExportSubject(ctx context.Context, subject string) ([]byte, error) {
	sessions, err := s.repo.Session().ListCompletedBySubject(ctx, nil, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	risks, err := s.repo.RiskReport().GetMultiple(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load risk reports: %w", err)
	}
	profiles, err := s.repo.CognitiveProfile().GetMultiple(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cognitive profiles: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", riskSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if _, err := f.NewSheet(profileSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	if err := writeRow(f, riskSheet, 1, riskHeaders); err != nil {
		return nil, err
	}
	if err := writeRow(f, profileSheet, 1, profileHeaders); err != nil {
		return nil, err
	}

	for i, session := range sessions {
		row := i + 2
		score, err := s.repo.Answer().CountCorrect(ctx, nil, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count correct answers: %w", err)
		}
		if err := writeRow(f, riskSheet, row, riskRow(session, score, risks[session.ID])); err != nil {
			return nil, err
		}
		if err := writeRow(f, profileSheet, row, profileRow(session, profiles[session.ID])); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Subject analytics exported",
		"subject", subject,
		"sessions", len(sessions),
		"risk_reports", len(risks),
		"profiles", len(profiles))
	return buf.Bytes(), nil
}

func (s *exportService) WriteFile(ctx context.Context, subject, path string) error {
	data, err := s.ExportSubject(ctx, subject)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func riskRow(session *models.Session, score int, r *models.RiskReport) []interface{} {
	completedAt := ""
	if session.CompletedAt != nil {
		completedAt = session.CompletedAt.UTC().Format("2006-01-02 15:04:05")
	}
	row := []interface{}{session.ID, session.StudentID, completedAt, session.CurrentSkill, score}
	if r == nil {
		return row
	}
	return append(row,
		r.RiskIndex, string(r.RiskLevel),
		r.PasteEvents, r.TabSwitches, r.SpeedFlags, r.CorrectnessSpike, r.PatternSimilarity,
		r.LongestIdenticalRun, r.AvgAnswerTimeMs, r.MinAnswerTimeMs,
	)
}

func profileRow(session *models.Session, p *models.CognitiveProfile) []interface{} {
	row := []interface{}{session.ID, session.StudentID}
	if p == nil {
		return row
	}
	stats := p.StatsValue()
	return append(row,
		p.ConfidenceIndex, p.StressLevel, string(p.ArchetypeID), p.Label,
		stats.AvgAnswerMs, stats.TotalAnswerChanges, stats.TotalSkips, stats.TotalPauses,
	)
}
