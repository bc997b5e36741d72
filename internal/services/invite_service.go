package services

import "log"

// InviteStore is the persistence surface needed to send survey invitations.
type InviteStore interface {
	GetSurveyByTeam(id, teamID string) (*Survey, error)
}

type FailedEmail struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type InviteResult struct {
	SentCount      int           `json:"sent_count"`
	TotalAttempted int           `json:"total_attempted"`
	SurveyTitle    string        `json:"survey_title"`
	InvalidEmails  []string      `json:"invalid_emails,omitempty"`
	FailedEmails   []FailedEmail `json:"failed_emails,omitempty"`
}

// InviteService sends survey invitation emails, one message per recipient.
// Individual delivery failures are collected, never fatal to the batch.
type InviteService struct {
	store  InviteStore
	mailer Mailer
}

func NewInviteService(store InviteStore, mailer Mailer) *InviteService {
	return &InviteService{store: store, mailer: mailer}
}

func (s *InviteService) SendInvites(teamID, surveyID string, emails []string, surveyURL, customMessage, senderName, senderTeam string) (*InviteResult, error) {
	if teamID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	sv, err := s.store.GetSurveyByTeam(surveyID, teamID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("Survey not found.")
	}
	if len(emails) == 0 {
		return nil, NewInvalidError("Email list is required")
	}
	if surveyURL == "" {
		return nil, NewInvalidError("Survey URL is required")
	}

	valid, invalid := PartitionEmails(emails)
	if len(valid) == 0 {
		return nil, NewInvalidError("No valid email addresses provided")
	}

	subject, body := ComposeInviteEmail(sv, surveyURL, customMessage, senderName, senderTeam)

	result := &InviteResult{
		TotalAttempted: len(valid),
		SurveyTitle:    sv.Title,
		InvalidEmails:  invalid,
	}
	for _, email := range valid {
		if err := s.mailer.Send(subject, body, []string{email}); err != nil {
			log.Printf("invite service: send to %s failed: %v", email, err)
			result.FailedEmails = append(result.FailedEmails, FailedEmail{Email: email, Error: err.Error()})
			continue
		}
		result.SentCount++
	}
	return result, nil
}
