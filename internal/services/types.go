package services

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// SurveyCategories maps category keys to their display names.
var SurveyCategories = map[string]string{
	"feedback":  "Feedback",
	"research":  "Research",
	"marketing": "Marketing",
	"event":     "Event",
	"education": "Education",
	"other":     "Other",
}

// QuestionTypes is the fixed set of accepted question types.
var QuestionTypes = map[string]bool{
	"text":     true,
	"textarea": true,
	"number":   true,
	"email":    true,
	"phone":    true,
	"date":     true,
	"radio":    true,
	"checkbox": true,
	"dropdown": true,
	"rating":   true,
}

// OptionQuestionTypes are the question types that require an options list.
var OptionQuestionTypes = map[string]bool{
	"radio":    true,
	"checkbox": true,
	"dropdown": true,
}

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

// FullName returns "First Last", falling back to the email address.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// Question is one entry of a survey definition.
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
	Configs                map[string]any `json:"configs"`
	CreatedBy              string         `json:"created_by,omitempty"`
	CreatedByName          string         `json:"created_by_name,omitempty"`
	TeamID                 string         `json:"team,omitempty"`
	TeamName               string         `json:"team_name,omitempty"`
	ResponseCount          int            `json:"total_responses"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// IsActive reports whether the survey accepts public submissions at now:
// published and inside the optional start/end window.
func (s *Survey) IsActive(now time.Time) bool {
	if s.Status != StatusPublished {
		return false
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// CategoryDisplay returns the human readable category name.
func (s *Survey) CategoryDisplay() string {
	if d, ok := SurveyCategories[s.Category]; ok {
		return d
	}
	return SurveyCategories["other"]
}

func (s *Survey) StatusDisplay() string {
	switch s.Status {
	case StatusPublished:
		return "Published"
	default:
		return "Draft"
	}
}

func (s *Survey) PublicURL() string    { return "/surveys/" + s.ID + "/" }
func (s *Survey) EditURL() string      { return "/surveys/" + s.ID + "/edit/" }
func (s *Survey) ResponsesURL() string { return "/surveys/" + s.ID + "/responses/" }

// Respondent is a non-authenticated participant identified by email,
// shared across surveys.
type Respondent struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	FullName    string    `json:"full_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SurveyResponse struct {
	ID           string         `json:"response_id"`
	SurveyID     string         `json:"survey_id"`
	RespondentID string         `json:"respondent_id"`
	Answers      map[string]any `json:"answers"`
	IsComplete   bool           `json:"is_complete"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
