package services

import (
	"testing"
	"time"
)

func validPayload() map[string]any {
	return map[string]any{
		"title":    "Customer pulse",
		"category": "feedback",
		"questions": []any{
			map[string]any{"question": "How are we doing?", "type": "text"},
		},
	}
}

func fieldError(t *testing.T, err error, field string) string {
	t.Helper()
	se, ok := AsServiceError(err)
	if !ok {
		t.Fatalf("error is %T, want *ServiceError", err)
	}
	if se.Code != ErrorValidation {
		t.Fatalf("code = %q, want %q", se.Code, ErrorValidation)
	}
	msg, ok := se.Fields[field]
	if !ok {
		t.Fatalf("no error for field %q, got %v", field, se.Fields)
	}
	return msg
}

func TestValidateSurveyPayloadDefaults(t *testing.T) {
	input, err := ValidateSurveyPayload(map[string]any{"title": "Bare minimum"}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Category != "other" {
		t.Fatalf("category = %q, want other", input.Category)
	}
	if input.Status != StatusDraft {
		t.Fatalf("status = %q, want %q", input.Status, StatusDraft)
	}
	if len(input.Questions) != 0 {
		t.Fatalf("questions = %v, want empty", input.Questions)
	}
	if input.AllowMultipleResponses {
		t.Fatal("allow_multiple_responses should default to false")
	}
}

func TestValidateSurveyPayloadTitle(t *testing.T) {
	cases := []struct {
		title any
		want  string
	}{
		{nil, "Survey title is required."},
		{"", "Survey title is required."},
		{"  ", "Survey title is required."},
		{"ab", "Survey title must be at least 3 characters long."},
	}
	for _, tc := range cases {
		p := validPayload()
		p["title"] = tc.title
		_, err := ValidateSurveyPayload(p, time.UTC)
		if got := fieldError(t, err, "title"); got != tc.want {
			t.Fatalf("title %v: message = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestValidateSurveyPayloadCategoryAndStatus(t *testing.T) {
	p := validPayload()
	p["category"] = "sports"
	p["status"] = "archived"
	_, err := ValidateSurveyPayload(p, time.UTC)
	fieldError(t, err, "category")
	fieldError(t, err, "status")
}

func TestValidateSurveyPayloadDates(t *testing.T) {
	p := validPayload()
	p["start_date"] = "2026-03-01"
	p["end_date"] = "2026-03-15T12:00:00Z"
	input, err := ValidateSurveyPayload(p, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.StartDate == nil || input.EndDate == nil {
		t.Fatal("dates not parsed")
	}
	if !input.StartDate.Before(*input.EndDate) {
		t.Fatal("start should precede end")
	}
}

func TestValidateSurveyPayloadDateOrdering(t *testing.T) {
	p := validPayload()
	p["start_date"] = "2026-03-15"
	p["end_date"] = "2026-03-01"
	_, err := ValidateSurveyPayload(p, time.UTC)
	if got := fieldError(t, err, "start_date"); got != "Start date must be before end date." {
		t.Fatalf("message = %q", got)
	}
}

func TestValidateSurveyPayloadBadDateFormat(t *testing.T) {
	p := validPayload()
	p["start_date"] = "March 1st"
	_, err := ValidateSurveyPayload(p, time.UTC)
	if got := fieldError(t, err, "start_date"); got != "Invalid datetime format." {
		t.Fatalf("message = %q", got)
	}
}

func TestValidateSurveyPayloadNaiveDateUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	p := validPayload()
	p["start_date"] = "2026-03-01 09:00:00"
	input, verr := ValidateSurveyPayload(p, loc)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	want := time.Date(2026, 3, 1, 9, 0, 0, 0, loc)
	if !input.StartDate.Equal(want) {
		t.Fatalf("start = %v, want %v", input.StartDate, want)
	}
}

func TestValidateQuestions(t *testing.T) {
	cases := []struct {
		name      string
		questions []any
		want      string
	}{
		{
			name:      "missing title",
			questions: []any{map[string]any{"question": " ", "type": "text"}},
			want:      "Question 1 must have a title.",
		},
		{
			name:      "missing type",
			questions: []any{map[string]any{"question": "Q"}},
			want:      "Question 1 must have a type.",
		},
		{
			name:      "bad type",
			questions: []any{map[string]any{"question": "Q", "type": "matrix"}},
			want:      "Question 1 has invalid type.",
		},
		{
			name: "option type without options",
			questions: []any{
				map[string]any{"question": "Q1", "type": "text"},
				map[string]any{"question": "Q2", "type": "radio"},
			},
			want: "Question 2 must have options.",
		},
		{
			name: "empty option",
			questions: []any{
				map[string]any{"question": "Q", "type": "dropdown", "options": []any{"a", " "}},
			},
			want: "Question 1, option 2 cannot be empty.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPayload()
			p["questions"] = tc.questions
			_, err := ValidateSurveyPayload(p, time.UTC)
			if got := fieldError(t, err, "questions"); got != tc.want {
				t.Fatalf("message = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateQuestionsTrimsOptions(t *testing.T) {
	p := validPayload()
	p["questions"] = []any{
		map[string]any{"question": "Pick one", "type": "radio", "options": []any{" yes ", "no"}},
	}
	input, err := ValidateSurveyPayload(p, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := input.Questions[0].Options
	if len(got) != 2 || got[0] != "yes" || got[1] != "no" {
		t.Fatalf("options = %v", got)
	}
}
