package api

import "errors"

// ErrDuplicateResponse is reported by AddResponse when a completed response
// already exists for the (survey, respondent) pair and duplicates are not
// allowed.
var ErrDuplicateResponse = errors.New("duplicate response")

type Store interface {
	AddTeam(t *Team)
	GetTeam(id string) *Team
	FindTeamByName(name string) *Team

	AddUser(u *User)
	GetUser(id string) *User
	FindUserByEmail(email string) *User

	AddSurvey(sv *Survey)
	GetSurvey(id string) *Survey
	ListSurveysByTeam(teamID string) []*Survey
	UpdateSurveyStatus(id, status string) bool
	DeleteSurvey(id string) bool
	CountResponses(surveyID string) int

	AddRespondent(r *Respondent)
	GetRespondent(id string) *Respondent
	FindRespondentByEmail(email string) *Respondent
	UpdateRespondent(r *Respondent) bool

	AddResponse(r *SurveyResponse, allowDuplicate bool) error
	GetResponse(id string) *SurveyResponse
	FindCompletedResponse(surveyID, respondentID string) *SurveyResponse
}

var _ Store = (*memoryStore)(nil)
