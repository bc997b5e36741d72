package api

import (
	"errors"

	"github.com/vipero7/surveycorps/internal/services"
)

type submissionStoreAdapter struct{ store Store }

func newSubmissionStoreAdapter(store Store) services.SubmissionStore {
	return &submissionStoreAdapter{store: store}
}

func (a *submissionStoreAdapter) GetPublishedSurvey(id string) (*services.Survey, error) {
	sv := a.store.GetSurvey(id)
	if sv == nil || sv.Status != services.StatusPublished {
		return nil, nil
	}
	return convertSurvey(a.store, sv), nil
}

func (a *submissionStoreAdapter) GetSurvey(id string) (*services.Survey, error) {
	return convertSurvey(a.store, a.store.GetSurvey(id)), nil
}

func (a *submissionStoreAdapter) GetRespondentByEmail(email string) (*services.Respondent, error) {
	return convertRespondent(a.store.FindRespondentByEmail(email)), nil
}

func (a *submissionStoreAdapter) InsertRespondent(r *services.Respondent) (*services.Respondent, error) {
	stored := &Respondent{
		ID:          r.ID,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		FullName:    r.FullName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	a.store.AddRespondent(stored)
	return convertRespondent(stored), nil
}

func (a *submissionStoreAdapter) UpdateRespondent(r *services.Respondent) error {
	ok := a.store.UpdateRespondent(&Respondent{
		ID:          r.ID,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		FullName:    r.FullName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	})
	if !ok {
		return services.NewNotFoundError("respondent not found")
	}
	return nil
}

func (a *submissionStoreAdapter) FindCompletedResponse(surveyID, respondentID string) (*services.SurveyResponse, error) {
	return convertResponse(a.store.FindCompletedResponse(surveyID, respondentID)), nil
}

func (a *submissionStoreAdapter) InsertResponse(r *services.SurveyResponse, allowDuplicate bool) (*services.SurveyResponse, error) {
	stored := &SurveyResponse{
		ID:           r.ID,
		SurveyID:     r.SurveyID,
		RespondentID: r.RespondentID,
		Answers:      r.Answers,
		IsComplete:   r.IsComplete,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if err := a.store.AddResponse(stored, allowDuplicate); err != nil {
		if errors.Is(err, ErrDuplicateResponse) {
			return nil, services.ErrDuplicateResponse
		}
		return nil, err
	}
	return convertResponse(stored), nil
}

func (a *submissionStoreAdapter) GetResponse(id string) (*services.SurveyResponse, error) {
	return convertResponse(a.store.GetResponse(id)), nil
}

func (a *submissionStoreAdapter) GetRespondent(id string) (*services.Respondent, error) {
	return convertRespondent(a.store.GetRespondent(id)), nil
}

func convertRespondent(r *Respondent) *services.Respondent {
	if r == nil {
		return nil
	}
	return &services.Respondent{
		ID:          r.ID,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		FullName:    r.FullName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func convertResponse(r *SurveyResponse) *services.SurveyResponse {
	if r == nil {
		return nil
	}
	return &services.SurveyResponse{
		ID:           r.ID,
		SurveyID:     r.SurveyID,
		RespondentID: r.RespondentID,
		Answers:      r.Answers,
		IsComplete:   r.IsComplete,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
