package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Session specific errors
	ErrSessionNotFound     = errors.New("session not found or already completed")
	ErrSessionNotCompleted = errors.New("session is not completed")
	ErrAnswerConflict      = errors.New("question already answered")

	// Analytics specific errors
	ErrReportNotFound  = errors.New("no report found")
	ErrProfileNotFound = errors.New("no cognitive profile found")
	ErrNoAnswers       = errors.New("session has no answered questions")

	// Collaborator errors
	ErrQuestionGeneration = errors.New("failed to generate question")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// Unwrap lets errors.Is match the sentinel named by the rule
func (bre *BusinessRuleError) Unwrap() error {
	if bre.Rule == ruleSessionCompleted {
		return ErrSessionNotCompleted
	}
	return nil
}

const ruleSessionCompleted = "session_completed"

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// sessionNotCompleted is raised when analytics are requested for an active session
func sessionNotCompleted(sessionID string) *BusinessRuleError {
	return NewBusinessRuleError(ruleSessionCompleted,
		"analytics are only available for completed sessions",
		map[string]interface{}{"session_id": sessionID})
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrReportNotFound) ||
		errors.Is(err, ErrProfileNotFound)
}

// IsUnauthorized checks if error represents a permission failure
func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrForbidden) || errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAnswerConflict)
}

// IsUpstream checks if error came from a collaborator the service depends on
func IsUpstream(err error) bool {
	return errors.Is(err, ErrQuestionGeneration)
}
