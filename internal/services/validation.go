package services

import (
	"fmt"
	"strings"
	"time"
)

// SurveyInput is a survey payload after validation and normalization.
type SurveyInput struct {
	Title                  string
	Description            string
	Category               string
	Status                 string
	AllowMultipleResponses bool
	StartDate              *time.Time
	EndDate                *time.Time
	Questions              []Question
	Configs                map[string]any
}

// Accepted datetime layouts for start/end dates. Values without a zone offset
// are interpreted in the configured location.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(raw any, loc *time.Location) (*time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, true
	}
	for _, layout := range dateLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// ValidateSurveyPayload checks a create/update payload and returns the
// normalized input. It has no side effects; on failure it returns a
// validation error carrying one message per offending field.
func ValidateSurveyPayload(raw map[string]any, loc *time.Location) (*SurveyInput, error) {
	if loc == nil {
		loc = time.UTC
	}
	fields := map[string]string{}
	input := &SurveyInput{
		Category:  "other",
		Status:    StatusDraft,
		Questions: []Question{},
		Configs:   map[string]any{},
	}

	title, _ := raw["title"].(string)
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		fields["title"] = "Survey title is required."
	case len(title) < 3:
		fields["title"] = "Survey title must be at least 3 characters long."
	default:
		input.Title = title
	}

	if v, ok := raw["description"].(string); ok {
		input.Description = v
	}
	if v, ok := raw["category"].(string); ok && v != "" {
		if _, valid := SurveyCategories[v]; !valid {
			fields["category"] = fmt.Sprintf("%q is not a valid category.", v)
		} else {
			input.Category = v
		}
	}
	if v, ok := raw["status"].(string); ok && v != "" {
		if v != StatusDraft && v != StatusPublished {
			fields["status"] = fmt.Sprintf("%q is not a valid status.", v)
		} else {
			input.Status = v
		}
	}
	if v, ok := raw["allow_multiple_responses"].(bool); ok {
		input.AllowMultipleResponses = v
	}
	if v, ok := raw["configs"].(map[string]any); ok {
		input.Configs = v
	}

	if v, present := raw["start_date"]; present && v != nil {
		t, ok := parseDate(v, loc)
		if !ok {
			fields["start_date"] = "Invalid datetime format."
		} else {
			input.StartDate = t
		}
	}
	if v, present := raw["end_date"]; present && v != nil {
		t, ok := parseDate(v, loc)
		if !ok {
			fields["end_date"] = "Invalid datetime format."
		} else {
			input.EndDate = t
		}
	}
	if input.StartDate != nil && input.EndDate != nil && !input.StartDate.Before(*input.EndDate) {
		fields["start_date"] = "Start date must be before end date."
	}

	if v, present := raw["questions"]; present && v != nil {
		questions, msg := validateQuestions(v)
		if msg != "" {
			fields["questions"] = msg
		} else {
			input.Questions = questions
		}
	}

	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	return input, nil
}

// validateQuestions checks the question list and returns the typed questions,
// or the first error message encountered. Positions in messages are 1-indexed.
// An empty list is accepted here; publishing enforces the one-question minimum.
func validateQuestions(raw any) ([]Question, string) {
	list, ok := raw.([]any)
	if !ok {
		return nil, "Questions must be a list."
	}
	questions := make([]Question, 0, len(list))
	for i, entry := range list {
		n := i + 1
		q, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Sprintf("Question %d must be an object.", n)
		}
		text, _ := q["question"].(string)
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Sprintf("Question %d must have a title.", n)
		}
		qType, ok := q["type"].(string)
		if !ok || qType == "" {
			return nil, fmt.Sprintf("Question %d must have a type.", n)
		}
		if !QuestionTypes[qType] {
			return nil, fmt.Sprintf("Question %d has invalid type.", n)
		}
		question := Question{Question: text, Type: qType}
		if OptionQuestionTypes[qType] {
			rawOpts, present := q["options"]
			opts, isList := rawOpts.([]any)
			if !present || rawOpts == nil || (isList && len(opts) == 0) {
				return nil, fmt.Sprintf("Question %d must have options.", n)
			}
			if !isList {
				return nil, fmt.Sprintf("Question %d must have at least one option.", n)
			}
			for j, o := range opts {
				val := strings.TrimSpace(fmt.Sprint(o))
				if o == nil || val == "" {
					return nil, fmt.Sprintf("Question %d, option %d cannot be empty.", n, j+1)
				}
				question.Options = append(question.Options, val)
			}
		}
		questions = append(questions, question)
	}
	return questions, ""
}
