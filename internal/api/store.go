package api

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	TeamID    string    `json:"team_id,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Question struct {
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
}

type Survey struct {
	ID                     string         `json:"oid"`
	Title                  string         `json:"title"`
	Description            string         `json:"description"`
	Category               string         `json:"category"`
	Status                 string         `json:"status"`
	AllowMultipleResponses bool           `json:"allow_multiple_responses"`
	StartDate              *time.Time     `json:"start_date,omitempty"`
	EndDate                *time.Time     `json:"end_date,omitempty"`
	Questions              []Question     `json:"questions"`
	Configs                map[string]any `json:"configs,omitempty"`
	CreatedBy              string         `json:"created_by"`
	TeamID                 string         `json:"team_id"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

type Respondent struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	FullName    string    `json:"full_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SurveyResponse struct {
	ID           string         `json:"id"`
	SurveyID     string         `json:"survey_id"`
	RespondentID string         `json:"respondent_id"`
	Answers      map[string]any `json:"answers"`
	IsComplete   bool           `json:"is_complete"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// memoryStore keeps everything in maps. It backs the router in tests and
// small deployments; production uses the sqlite store.
type memoryStore struct {
	mu          sync.RWMutex
	teams       map[string]*Team
	users       map[string]*User
	surveys     map[string]*Survey
	respondents map[string]*Respondent
	responses   map[string]*SurveyResponse
}

func NewMemoryStore() Store {
	return &memoryStore{
		teams:       map[string]*Team{},
		users:       map[string]*User{},
		surveys:     map[string]*Survey{},
		respondents: map[string]*Respondent{},
		responses:   map[string]*SurveyResponse{},
	}
}

func (s *memoryStore) AddTeam(t *Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
}

func (s *memoryStore) GetTeam(id string) *Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams[id]
}

func (s *memoryStore) FindTeamByName(name string) *Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teams {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (s *memoryStore) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memoryStore) GetUser(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id]
}

func (s *memoryStore) FindUserByEmail(email string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *memoryStore) AddSurvey(sv *Survey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surveys[sv.ID] = sv
}

func (s *memoryStore) GetSurvey(id string) *Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surveys[id]
}

func (s *memoryStore) ListSurveysByTeam(teamID string) []*Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Survey, 0)
	for _, sv := range s.surveys {
		if sv.TeamID == teamID {
			out = append(out, sv)
		}
	}
	// newest created first
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memoryStore) UpdateSurveyStatus(id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv := s.surveys[id]
	if sv == nil {
		return false
	}
	sv.Status = status
	sv.UpdatedAt = time.Now().UTC()
	return true
}

func (s *memoryStore) DeleteSurvey(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[id]; !ok {
		return false
	}
	delete(s.surveys, id)
	for rid, r := range s.responses {
		if r.SurveyID == id {
			delete(s.responses, rid)
		}
	}
	return true
}

func (s *memoryStore) CountResponses(surveyID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			n++
		}
	}
	return n
}

func (s *memoryStore) AddRespondent(r *Respondent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respondents[r.ID] = r
}

func (s *memoryStore) GetRespondent(id string) *Respondent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.respondents[id]
}

// FindRespondentByEmail matches the stored email exactly, case sensitive.
func (s *memoryStore) FindRespondentByEmail(email string) *Respondent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.respondents {
		if r.Email == email {
			return r
		}
	}
	return nil
}

func (s *memoryStore) UpdateRespondent(r *Respondent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.respondents[r.ID]; !ok {
		return false
	}
	s.respondents[r.ID] = r
	return true
}

func (s *memoryStore) AddResponse(r *SurveyResponse, allowDuplicate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !allowDuplicate {
		for _, existing := range s.responses {
			if existing.SurveyID == r.SurveyID && existing.RespondentID == r.RespondentID && existing.IsComplete {
				return ErrDuplicateResponse
			}
		}
	}
	s.responses[r.ID] = r
	return nil
}

func (s *memoryStore) GetResponse(id string) *SurveyResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.responses[id]
}

func (s *memoryStore) FindCompletedResponse(surveyID, respondentID string) *SurveyResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *SurveyResponse
	for _, r := range s.responses {
		if r.SurveyID == surveyID && r.RespondentID == respondentID && r.IsComplete {
			if found == nil || r.CreatedAt.Before(found.CreatedAt) {
				found = r
			}
		}
	}
	return found
}
