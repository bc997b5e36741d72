package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubSubmissionStore struct {
	surveys     map[string]*Survey
	respondents map[string]*Respondent
	responses   map[string]*SurveyResponse
	insertErr   error
	// findMisses makes FindCompletedResponse report nil that many times,
	// simulating a concurrent submission landing between check and insert.
	findMisses int
}

func newStubSubmissionStore() *stubSubmissionStore {
	return &stubSubmissionStore{
		surveys:     map[string]*Survey{},
		respondents: map[string]*Respondent{},
		responses:   map[string]*SurveyResponse{},
	}
}

func (s *stubSubmissionStore) GetPublishedSurvey(id string) (*Survey, error) {
	sv := s.surveys[id]
	if sv == nil || sv.Status != StatusPublished {
		return nil, nil
	}
	copy := *sv
	return &copy, nil
}

func (s *stubSubmissionStore) GetSurvey(id string) (*Survey, error) {
	sv := s.surveys[id]
	if sv == nil {
		return nil, nil
	}
	copy := *sv
	return &copy, nil
}

func (s *stubSubmissionStore) GetRespondentByEmail(email string) (*Respondent, error) {
	for _, r := range s.respondents {
		if r.Email == email {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *stubSubmissionStore) InsertRespondent(r *Respondent) (*Respondent, error) {
	copy := *r
	s.respondents[r.ID] = &copy
	return &copy, nil
}

func (s *stubSubmissionStore) UpdateRespondent(r *Respondent) error {
	if _, ok := s.respondents[r.ID]; !ok {
		return NewNotFoundError("respondent not found")
	}
	copy := *r
	s.respondents[r.ID] = &copy
	return nil
}

func (s *stubSubmissionStore) FindCompletedResponse(surveyID, respondentID string) (*SurveyResponse, error) {
	if s.findMisses > 0 {
		s.findMisses--
		return nil, nil
	}
	for _, r := range s.responses {
		if r.SurveyID == surveyID && r.RespondentID == respondentID && r.IsComplete {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *stubSubmissionStore) InsertResponse(r *SurveyResponse, allowDuplicate bool) (*SurveyResponse, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	if !allowDuplicate {
		if existing, _ := s.FindCompletedResponse(r.SurveyID, r.RespondentID); existing != nil {
			return nil, ErrDuplicateResponse
		}
	}
	copy := *r
	s.responses[r.ID] = &copy
	return &copy, nil
}

func (s *stubSubmissionStore) GetResponse(id string) (*SurveyResponse, error) {
	r := s.responses[id]
	if r == nil {
		return nil, nil
	}
	copy := *r
	return &copy, nil
}

func (s *stubSubmissionStore) GetRespondent(id string) (*Respondent, error) {
	r := s.respondents[id]
	if r == nil {
		return nil, nil
	}
	copy := *r
	return &copy, nil
}

type captureMailer struct {
	sent []string
	err  error
}

func (m *captureMailer) Send(subject, body string, recipients []string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, recipients...)
	return nil
}

func publishedSurvey(id string) *Survey {
	return &Survey{
		ID:       id,
		Title:    "Onboarding feedback",
		Category: "feedback",
		Status:   StatusPublished,
		Questions: []Question{
			{Question: "How was onboarding?", Type: "text"},
		},
	}
}

func newTestSubmissionService(store SubmissionStore, mailer Mailer) *SubmissionService {
	svc := NewSubmissionService(store, mailer, "http://localhost:3000/")
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }
	n := 0
	svc.idGen = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return svc
}

func sampleInfo() RespondentInfo {
	return RespondentInfo{FullName: "Sam Vee", Email: "sam@respondent.example", Phone: "+15550100"}
}

func TestGetPublicSurvey(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, nil)

	if _, err := svc.GetPublicSurvey("sv-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.GetPublicSurvey("missing")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("missing survey err = %v, want not_found", err)
	}
	if se.Message != "Survey not found or not available." {
		t.Fatalf("message = %q", se.Message)
	}
}

func TestGetPublicSurveyDraftLooksMissing(t *testing.T) {
	store := newStubSubmissionStore()
	sv := publishedSurvey("sv-1")
	sv.Status = StatusDraft
	store.surveys["sv-1"] = sv
	svc := newTestSubmissionService(store, nil)

	_, err := svc.GetPublicSurvey("sv-1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("draft survey err = %v, want not_found", err)
	}
}

func TestGetPublicSurveyOutsideWindow(t *testing.T) {
	store := newStubSubmissionStore()
	sv := publishedSurvey("sv-1")
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sv.EndDate = &end
	store.surveys["sv-1"] = sv
	svc := newTestSubmissionService(store, nil)

	_, err := svc.GetPublicSurvey("sv-1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("err = %v, want invalid", err)
	}
	if se.Message != "This survey is not currently active." {
		t.Fatalf("message = %q", se.Message)
	}
}

func TestSubmitResponse(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	mailer := &captureMailer{}
	svc := newTestSubmissionService(store, mailer)

	result, err := svc.SubmitResponse("sv-1", map[string]any{"0": "Smooth"}, sampleInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AnswersCount != 1 {
		t.Fatalf("answers_count = %d, want 1", result.AnswersCount)
	}
	if !result.EmailSent {
		t.Fatal("email_sent = false, want true")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "sam@respondent.example" {
		t.Fatalf("mailer.sent = %v", mailer.sent)
	}
	if !strings.HasPrefix(result.ViewSubmissionURL, "http://localhost:3000/survey/submission/") {
		t.Fatalf("view url = %q", result.ViewSubmissionURL)
	}
	if len(store.responses) != 1 {
		t.Fatalf("stored responses = %d", len(store.responses))
	}
}

func TestSubmitResponseRequiredFields(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, nil)

	cases := []struct {
		mutate func(*RespondentInfo)
		want   string
	}{
		{func(i *RespondentInfo) { i.FullName = " " }, "Full Name is required."},
		{func(i *RespondentInfo) { i.Email = "" }, "Email is required."},
		{func(i *RespondentInfo) { i.Phone = "" }, "Phone is required."},
	}
	for _, tc := range cases {
		info := sampleInfo()
		tc.mutate(&info)
		_, err := svc.SubmitResponse("sv-1", nil, info)
		se, ok := AsServiceError(err)
		if !ok || se.Message != tc.want {
			t.Fatalf("err = %v, want %q", err, tc.want)
		}
	}
	if len(store.respondents) != 0 {
		t.Fatal("no respondent should be created on validation failure")
	}
}

func TestSubmitResponseInvalidEmail(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, nil)

	info := sampleInfo()
	info.Email = "not-an-email"
	_, err := svc.SubmitResponse("sv-1", nil, info)
	se, ok := AsServiceError(err)
	if !ok || se.Message != "Please provide a valid email address." {
		t.Fatalf("err = %v", err)
	}
	if len(store.respondents) != 0 || len(store.responses) != 0 {
		t.Fatal("nothing should be persisted for a rejected submission")
	}
}

func TestSubmitResponseDuplicate(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, &captureMailer{})

	first, err := svc.SubmitResponse("sv-1", map[string]any{"0": "ok"}, sampleInfo())
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}

	info := sampleInfo()
	info.FullName = "Samantha Vee"
	_, err = svc.SubmitResponse("sv-1", map[string]any{"0": "again"}, info)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	if se.Message != "You have already submitted a response to this survey." {
		t.Fatalf("message = %q", se.Message)
	}
	if se.Data["response_id"] != first.ResponseID {
		t.Fatalf("data response_id = %v, want %v", se.Data["response_id"], first.ResponseID)
	}
	if se.Data["already_submitted"] != true {
		t.Fatalf("data = %v", se.Data)
	}
	if len(store.responses) != 1 {
		t.Fatalf("stored responses = %d, want 1", len(store.responses))
	}
	// Contact details are refreshed even when the submission is rejected.
	r, _ := store.GetRespondentByEmail("sam@respondent.example")
	if r.FullName != "Samantha Vee" {
		t.Fatalf("full name = %q, want updated value", r.FullName)
	}
}

func TestSubmitResponseAllowMultiple(t *testing.T) {
	store := newStubSubmissionStore()
	sv := publishedSurvey("sv-1")
	sv.AllowMultipleResponses = true
	store.surveys["sv-1"] = sv
	svc := newTestSubmissionService(store, &captureMailer{})

	if _, err := svc.SubmitResponse("sv-1", map[string]any{"0": "a"}, sampleInfo()); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.SubmitResponse("sv-1", map[string]any{"0": "b"}, sampleInfo()); err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(store.responses) != 2 {
		t.Fatalf("stored responses = %d, want 2", len(store.responses))
	}
}

func TestSubmitResponseRecoversInsertRace(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, &captureMailer{})

	first, err := svc.SubmitResponse("sv-1", map[string]any{"0": "ok"}, sampleInfo())
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}

	// Simulate losing the insert race: the pre-check misses, the store
	// rejects at insert time, and the recovery fetch finds the winner.
	store.findMisses = 1
	store.insertErr = ErrDuplicateResponse

	_, err = svc.SubmitResponse("sv-1", map[string]any{"0": "again"}, sampleInfo())
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	if se.Data["response_id"] != first.ResponseID {
		t.Fatalf("data response_id = %v, want %v", se.Data["response_id"], first.ResponseID)
	}
}

func TestSubmitResponseUpdatesRespondentDetails(t *testing.T) {
	store := newStubSubmissionStore()
	sv := publishedSurvey("sv-1")
	sv.AllowMultipleResponses = true
	store.surveys["sv-1"] = sv
	svc := newTestSubmissionService(store, &captureMailer{})

	if _, err := svc.SubmitResponse("sv-1", nil, sampleInfo()); err != nil {
		t.Fatalf("first: %v", err)
	}
	info := sampleInfo()
	info.FullName = "Samantha Vee"
	info.Phone = "+15550199"
	if _, err := svc.SubmitResponse("sv-1", nil, info); err != nil {
		t.Fatalf("second: %v", err)
	}

	r, _ := store.GetRespondentByEmail("sam@respondent.example")
	if r.FullName != "Samantha Vee" || r.PhoneNumber != "+15550199" {
		t.Fatalf("respondent = %+v", r)
	}
}

func TestSubmitResponseMailFailureIsNotFatal(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, &captureMailer{err: errors.New("smtp down")})

	result, err := svc.SubmitResponse("sv-1", map[string]any{"0": "ok"}, sampleInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EmailSent {
		t.Fatal("email_sent = true, want false")
	}
	if len(store.responses) != 1 {
		t.Fatal("response should be stored despite mail failure")
	}
}

func TestCheckExistingSubmission(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, &captureMailer{})

	status, err := svc.CheckExistingSubmission("sv-1", "sam@respondent.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.HasSubmitted {
		t.Fatal("has_submitted = true before any submission")
	}

	result, err := svc.SubmitResponse("sv-1", map[string]any{"0": "ok"}, sampleInfo())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	status, err = svc.CheckExistingSubmission("sv-1", "sam@respondent.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.HasSubmitted || status.ResponseID != result.ResponseID {
		t.Fatalf("status = %+v", status)
	}

	// Empty email is a normal negative, not an error.
	status, err = svc.CheckExistingSubmission("sv-1", "")
	if err != nil || status.HasSubmitted {
		t.Fatalf("empty email: status = %+v, err = %v", status, err)
	}
}

func TestGetSubmission(t *testing.T) {
	store := newStubSubmissionStore()
	store.surveys["sv-1"] = publishedSurvey("sv-1")
	svc := newTestSubmissionService(store, &captureMailer{})

	result, err := svc.SubmitResponse("sv-1", map[string]any{"0": "ok"}, sampleInfo())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	view, err := svc.GetSubmission(result.ResponseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Respondent["email"] != "sam@respondent.example" {
		t.Fatalf("respondent = %v", view.Respondent)
	}
	if view.Survey["title"] != "Onboarding feedback" {
		t.Fatalf("survey = %v", view.Survey)
	}
	if !view.IsComplete {
		t.Fatal("is_complete = false")
	}

	_, err = svc.GetSubmission("missing")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("missing err = %v, want not_found", err)
	}
}
