package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubmissionStore abstracts persistence operations required by the public
// submission workflow.
type SubmissionStore interface {
	// GetPublishedSurvey returns nil when no survey with that id is published.
	GetPublishedSurvey(id string) (*Survey, error)
	GetSurvey(id string) (*Survey, error)
	GetRespondentByEmail(email string) (*Respondent, error)
	InsertRespondent(r *Respondent) (*Respondent, error)
	UpdateRespondent(r *Respondent) error
	// FindCompletedResponse returns nil when the (survey, respondent) pair has
	// no completed response yet.
	FindCompletedResponse(surveyID, respondentID string) (*SurveyResponse, error)
	// InsertResponse persists a response. When allowDuplicate is false the
	// store must reject a second completed response for the same
	// (survey, respondent) pair within the same transaction.
	InsertResponse(r *SurveyResponse, allowDuplicate bool) (*SurveyResponse, error)
	GetResponse(id string) (*SurveyResponse, error)
	GetRespondent(id string) (*Respondent, error)
}

// ErrDuplicateResponse is returned by stores that detect a concurrent
// duplicate submission at insert time.
var ErrDuplicateResponse = errors.New("duplicate response")

// RespondentInfo is the contact block accompanying a public submission.
type RespondentInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// SubmissionStatus answers "has this email already submitted?".
type SubmissionStatus struct {
	HasSubmitted      bool       `json:"has_submitted"`
	ResponseID        string     `json:"response_id,omitempty"`
	ViewSubmissionURL string     `json:"view_submission_url,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
}

// SubmissionResult reports a recorded submission back to the respondent.
type SubmissionResult struct {
	ResponseID        string     `json:"response_id"`
	SurveyTitle       string     `json:"survey_title"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	AnswersCount      int        `json:"answers_count"`
	ViewSubmissionURL string     `json:"view_submission_url"`
	EmailSent         bool       `json:"email_sent"`
}

// SubmissionView is the public projection of a stored submission.
type SubmissionView struct {
	ResponseID  string         `json:"response_id"`
	Survey      map[string]any `json:"survey"`
	Respondent  map[string]any `json:"respondent"`
	Answers     map[string]any `json:"answers"`
	SubmittedAt time.Time      `json:"submitted_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	IsComplete  bool           `json:"is_complete"`
}

// SubmissionService hosts the respondent-facing workflow: fetch an active
// published survey, record a response, detect duplicates and send the
// confirmation email.
type SubmissionService struct {
	store   SubmissionStore
	mailer  Mailer
	baseURL string
	now     func() time.Time
	idGen   func() string
}

func NewSubmissionService(store SubmissionStore, mailer Mailer, frontendBaseURL string) *SubmissionService {
	return &SubmissionService{
		store:   store,
		mailer:  mailer,
		baseURL: strings.TrimRight(frontendBaseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   uuid.NewString,
	}
}

func (s *SubmissionService) viewSubmissionURL(responseID string) string {
	return s.baseURL + "/survey/submission/" + responseID + "/view"
}

// GetPublicSurvey returns a published, currently active survey for public
// consumption. Draft surveys are indistinguishable from missing ones.
func (s *SubmissionService) GetPublicSurvey(id string) (*Survey, error) {
	sv, err := s.store.GetPublishedSurvey(id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("Survey not found or not available.")
	}
	if !sv.IsActive(s.now()) {
		return nil, NewInvalidError("This survey is not currently active.")
	}
	return sv, nil
}

// CheckExistingSubmission reports whether the given email has a completed
// response for the survey. An unknown email is a normal negative result.
func (s *SubmissionService) CheckExistingSubmission(surveyID, email string) (*SubmissionStatus, error) {
	sv, err := s.store.GetPublishedSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("Survey not found or not available.")
	}
	if email == "" {
		return &SubmissionStatus{HasSubmitted: false}, nil
	}
	respondent, err := s.store.GetRespondentByEmail(email)
	if err != nil {
		return nil, err
	}
	if respondent == nil {
		return &SubmissionStatus{HasSubmitted: false}, nil
	}
	existing, err := s.store.FindCompletedResponse(surveyID, respondent.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &SubmissionStatus{HasSubmitted: false}, nil
	}
	submitted := existing.CreatedAt
	return &SubmissionStatus{
		HasSubmitted:      true,
		ResponseID:        existing.ID,
		ViewSubmissionURL: s.viewSubmissionURL(existing.ID),
		SubmittedAt:       &submitted,
	}, nil
}

func requiredFieldName(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// SubmitResponse records a respondent's answers against an active survey.
// Answers are stored verbatim; they are not cross-checked against the survey's
// question definitions.
func (s *SubmissionService) SubmitResponse(surveyID string, answers map[string]any, info RespondentInfo) (*SubmissionResult, error) {
	sv, err := s.GetPublicSurvey(surveyID)
	if err != nil {
		return nil, err
	}

	for _, rf := range []struct{ name, value string }{
		{"full_name", info.FullName},
		{"email", info.Email},
		{"phone", info.Phone},
	} {
		if strings.TrimSpace(rf.value) == "" {
			return nil, NewInvalidError(requiredFieldName(rf.name) + " is required.")
		}
	}
	if !ValidRespondentEmail(info.Email) {
		return nil, NewInvalidError("Please provide a valid email address.")
	}

	respondent, err := s.store.GetRespondentByEmail(info.Email)
	if err != nil {
		return nil, err
	}
	created := false
	if respondent == nil {
		now := s.now()
		respondent, err = s.store.InsertRespondent(&Respondent{
			ID:          s.idGen(),
			Email:       info.Email,
			FullName:    info.FullName,
			PhoneNumber: info.Phone,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return nil, err
		}
		created = true
	}

	// Last writer wins on contact details supplied with a later submission.
	if !created {
		updated := false
		if respondent.FullName != info.FullName {
			respondent.FullName = info.FullName
			updated = true
		}
		if respondent.PhoneNumber != info.Phone {
			respondent.PhoneNumber = info.Phone
			updated = true
		}
		if updated {
			respondent.UpdatedAt = s.now()
			if err := s.store.UpdateRespondent(respondent); err != nil {
				return nil, err
			}
		}
	}

	existing, err := s.store.FindCompletedResponse(surveyID, respondent.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !sv.AllowMultipleResponses {
		return nil, s.duplicateConflict(existing)
	}

	now := s.now()
	completedAt := now
	if answers == nil {
		answers = map[string]any{}
	}
	response, err := s.store.InsertResponse(&SurveyResponse{
		ID:           s.idGen(),
		SurveyID:     surveyID,
		RespondentID: respondent.ID,
		Answers:      answers,
		IsComplete:   true,
		CompletedAt:  &completedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, sv.AllowMultipleResponses)
	if err != nil {
		if errors.Is(err, ErrDuplicateResponse) {
			if existing, ferr := s.store.FindCompletedResponse(surveyID, respondent.ID); ferr == nil && existing != nil {
				return nil, s.duplicateConflict(existing)
			}
		}
		return nil, err
	}

	viewURL := s.viewSubmissionURL(response.ID)
	emailSent := false
	if s.mailer != nil {
		subject, body := ComposeConfirmationEmail(respondent.FullName, sv.Title, response.ID, viewURL, response.CreatedAt)
		if err := s.mailer.Send(subject, body, []string{respondent.Email}); err != nil {
			log.Printf("submission service: confirmation email to %s failed: %v", respondent.Email, err)
		} else {
			emailSent = true
		}
	}

	return &SubmissionResult{
		ResponseID:        response.ID,
		SurveyTitle:       sv.Title,
		SubmittedAt:       response.CreatedAt,
		CompletedAt:       response.CompletedAt,
		AnswersCount:      len(answers),
		ViewSubmissionURL: viewURL,
		EmailSent:         emailSent,
	}, nil
}

func (s *SubmissionService) duplicateConflict(existing *SurveyResponse) error {
	return NewConflictDataError("You have already submitted a response to this survey.", map[string]any{
		"already_submitted":   true,
		"response_id":         existing.ID,
		"view_submission_url": s.viewSubmissionURL(existing.ID),
		"submitted_at":        existing.CreatedAt,
	})
}

// GetSubmission returns the public view of a stored submission.
func (s *SubmissionService) GetSubmission(responseID string) (*SubmissionView, error) {
	response, err := s.store.GetResponse(responseID)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, NewNotFoundError("Submission not found or not available.")
	}
	sv, err := s.store.GetSurvey(response.SurveyID)
	if err != nil {
		return nil, err
	}
	respondent, err := s.store.GetRespondent(response.RespondentID)
	if err != nil {
		return nil, err
	}
	if sv == nil || respondent == nil {
		return nil, NewNotFoundError("Submission not found or not available.")
	}
	return &SubmissionView{
		ResponseID: response.ID,
		Survey: map[string]any{
			"title":       sv.Title,
			"description": sv.Description,
			"questions":   sv.Questions,
		},
		Respondent: map[string]any{
			"full_name": respondent.FullName,
			"email":     respondent.Email,
			"phone":     respondent.PhoneNumber,
		},
		Answers:     response.Answers,
		SubmittedAt: response.CreatedAt,
		CompletedAt: response.CompletedAt,
		IsComplete:  response.IsComplete,
	}, nil
}
