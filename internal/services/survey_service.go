package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorValidation   ErrorCode = "validation"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	// Fields carries field-level validation messages for validation errors.
	Fields map[string]string
	// Data carries extra payload surfaced to the client, e.g. the existing
	// response reference on a duplicate submission conflict.
	Data map[string]any
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }

func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewValidationError(fields map[string]string) error {
	return &ServiceError{Code: ErrorValidation, Message: "validation failed", Fields: fields}
}

func NewConflictDataError(msg string, data map[string]any) error {
	return &ServiceError{Code: ErrorConflict, Message: msg, Data: data}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// SurveyStore abstracts persistence operations required by SurveyService.
// Lookups scoped to a team return nil for surveys owned by other teams, so
// cross-team access surfaces as "not found" rather than "forbidden".
type SurveyStore interface {
	ListSurveysByTeam(teamID string) ([]*Survey, error)
	InsertSurvey(sv *Survey) (*Survey, error)
	GetSurveyByTeam(id, teamID string) (*Survey, error)
	UpdateSurveyStatus(id, status string) error
	DeleteSurvey(id string) error
}

type SurveyService struct {
	store SurveyStore
	loc   *time.Location
	now   func() time.Time
	idGen func() string
}

func NewSurveyService(store SurveyStore, loc *time.Location) *SurveyService {
	if loc == nil {
		loc = time.UTC
	}
	return &SurveyService{
		store: store,
		loc:   loc,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

// ListSurveys returns the caller team's surveys, newest first, each annotated
// with its response count by the store.
func (s *SurveyService) ListSurveys(teamID string) ([]*Survey, error) {
	if teamID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	return s.store.ListSurveysByTeam(teamID)
}

func (s *SurveyService) CreateSurvey(teamID, userID string, raw map[string]any) (*Survey, error) {
	if teamID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	input, err := ValidateSurveyPayload(raw, s.loc)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sv := &Survey{
		ID:                     s.idGen(),
		Title:                  input.Title,
		Description:            input.Description,
		Category:               input.Category,
		Status:                 input.Status,
		AllowMultipleResponses: input.AllowMultipleResponses,
		StartDate:              input.StartDate,
		EndDate:                input.EndDate,
		Questions:              input.Questions,
		Configs:                input.Configs,
		CreatedBy:              userID,
		TeamID:                 teamID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	created, err := s.store.InsertSurvey(sv)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return sv, nil
	}
	return created, nil
}

func (s *SurveyService) GetSurvey(teamID, id string) (*Survey, error) {
	if teamID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	sv, err := s.store.GetSurveyByTeam(id, teamID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("Survey not found.")
	}
	return sv, nil
}

// DeleteSurvey removes a survey and cascades to its responses. A published
// survey that has collected responses cannot be deleted.
func (s *SurveyService) DeleteSurvey(teamID, id string) (string, error) {
	sv, err := s.GetSurvey(teamID, id)
	if err != nil {
		return "", err
	}
	if sv.Status == StatusPublished && sv.ResponseCount > 0 {
		return "", NewConflictError("Cannot delete published survey with responses.")
	}
	if err := s.store.DeleteSurvey(id); err != nil {
		return "", err
	}
	return sv.Title, nil
}

// SetPublishState toggles a survey between draft and published.
func (s *SurveyService) SetPublishState(teamID, id, action string) (*Survey, string, error) {
	sv, err := s.GetSurvey(teamID, id)
	if err != nil {
		return nil, "", err
	}
	var message string
	switch action {
	case "publish":
		if len(sv.Questions) == 0 {
			return nil, "", NewConflictError("Survey must have at least one question to publish.")
		}
		sv.Status = StatusPublished
		message = "Survey published successfully."
	case "unpublish":
		sv.Status = StatusDraft
		message = "Survey unpublished successfully."
	default:
		return nil, "", NewInvalidError(`Invalid action. Use "publish" or "unpublish".`)
	}
	if err := s.store.UpdateSurveyStatus(id, sv.Status); err != nil {
		return nil, "", err
	}
	sv.UpdatedAt = s.now()
	return sv, message, nil
}
