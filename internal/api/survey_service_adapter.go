package api

import "github.com/vipero7/surveycorps/internal/services"

type surveyStoreAdapter struct{ store Store }

func newSurveyStoreAdapter(store Store) *surveyStoreAdapter {
	return &surveyStoreAdapter{store: store}
}

// convertSurvey maps a stored survey into the service shape, annotated with
// creator/team names and the response count.
func convertSurvey(store Store, sv *Survey) *services.Survey {
	if sv == nil {
		return nil
	}
	out := &services.Survey{
		ID:                     sv.ID,
		Title:                  sv.Title,
		Description:            sv.Description,
		Category:               sv.Category,
		Status:                 sv.Status,
		AllowMultipleResponses: sv.AllowMultipleResponses,
		StartDate:              sv.StartDate,
		EndDate:                sv.EndDate,
		Questions:              convertQuestions(sv.Questions),
		Configs:                sv.Configs,
		CreatedBy:              sv.CreatedBy,
		TeamID:                 sv.TeamID,
		ResponseCount:          store.CountResponses(sv.ID),
		CreatedAt:              sv.CreatedAt,
		UpdatedAt:              sv.UpdatedAt,
	}
	if u := store.GetUser(sv.CreatedBy); u != nil {
		out.CreatedByName = (&services.User{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}).FullName()
	}
	if t := store.GetTeam(sv.TeamID); t != nil {
		out.TeamName = t.Name
	}
	return out
}

func convertQuestions(qs []Question) []services.Question {
	out := make([]services.Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, services.Question{Question: q.Question, Type: q.Type, Options: q.Options})
	}
	return out
}

func toStoreQuestions(qs []services.Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, Question{Question: q.Question, Type: q.Type, Options: q.Options})
	}
	return out
}

func (a *surveyStoreAdapter) ListSurveysByTeam(teamID string) ([]*services.Survey, error) {
	list := a.store.ListSurveysByTeam(teamID)
	out := make([]*services.Survey, 0, len(list))
	for _, sv := range list {
		out = append(out, convertSurvey(a.store, sv))
	}
	return out, nil
}

func (a *surveyStoreAdapter) InsertSurvey(sv *services.Survey) (*services.Survey, error) {
	stored := &Survey{
		ID:                     sv.ID,
		Title:                  sv.Title,
		Description:            sv.Description,
		Category:               sv.Category,
		Status:                 sv.Status,
		AllowMultipleResponses: sv.AllowMultipleResponses,
		StartDate:              sv.StartDate,
		EndDate:                sv.EndDate,
		Questions:              toStoreQuestions(sv.Questions),
		Configs:                sv.Configs,
		CreatedBy:              sv.CreatedBy,
		TeamID:                 sv.TeamID,
		CreatedAt:              sv.CreatedAt,
		UpdatedAt:              sv.UpdatedAt,
	}
	a.store.AddSurvey(stored)
	return convertSurvey(a.store, stored), nil
}

func (a *surveyStoreAdapter) GetSurveyByTeam(id, teamID string) (*services.Survey, error) {
	sv := a.store.GetSurvey(id)
	if sv == nil || sv.TeamID != teamID {
		return nil, nil
	}
	return convertSurvey(a.store, sv), nil
}

func (a *surveyStoreAdapter) UpdateSurveyStatus(id, status string) error {
	if !a.store.UpdateSurveyStatus(id, status) {
		return services.NewNotFoundError("Survey not found.")
	}
	return nil
}

func (a *surveyStoreAdapter) DeleteSurvey(id string) error {
	if !a.store.DeleteSurvey(id) {
		return services.NewNotFoundError("Survey not found.")
	}
	return nil
}

var (
	_ services.SurveyStore = (*surveyStoreAdapter)(nil)
	_ services.InviteStore = (*surveyStoreAdapter)(nil)
)
