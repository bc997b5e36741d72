package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vipero7/surveycorps/internal/api"
)

// SQLiteStore persists the platform's data in a single sqlite database.
// Write methods without an error return log failures instead; the router
// owns its own not-found semantics on top of nil results.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func encodeJSON(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("sqlite store: encode json: %v", err)
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func decodeQuestions(raw string) []api.Question {
	if raw == "" {
		return nil
	}
	var out []api.Question
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("sqlite store: decode questions: %v", err)
		return nil
	}
	return out
}

func decodeAnyMap(ns sql.NullString) map[string]any {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode map: %v", err)
		return nil
	}
	return out
}

// ---- teams ----

func (s *SQLiteStore) AddTeam(t *api.Team) {
	_, err := s.db.Exec(`INSERT INTO teams (id, name, created_at) VALUES (?, ?, ?)`,
		t.ID, t.Name, t.CreatedAt)
	s.logErr("insert team", err)
}

func (s *SQLiteStore) GetTeam(id string) *api.Team {
	row := s.db.QueryRow(`SELECT id, name, created_at FROM teams WHERE id = ?`, id)
	return scanTeam(row)
}

func (s *SQLiteStore) FindTeamByName(name string) *api.Team {
	row := s.db.QueryRow(`SELECT id, name, created_at FROM teams WHERE name = ?`, name)
	return scanTeam(row)
}

func scanTeam(row *sql.Row) *api.Team {
	var t api.Team
	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		log.Printf("sqlite store: scan team: %v", err)
		return nil
	}
	return &t
}

// ---- users ----

func (s *SQLiteStore) AddUser(u *api.User) {
	_, err := s.db.Exec(`INSERT INTO users
		(id, email, pass_hash, first_name, last_name, team_id, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.FirstName, u.LastName, u.TeamID, u.Role,
		boolToInt64(u.IsActive), u.CreatedAt)
	s.logErr("insert user", err)
}

const userColumns = `id, email, pass_hash, first_name, last_name, team_id, role, is_active, created_at`

func (s *SQLiteStore) GetUser(id string) *api.User {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLiteStore) FindUserByEmail(email string) *api.User {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func scanUser(row *sql.Row) *api.User {
	var u api.User
	var active int64
	err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.FirstName, &u.LastName,
		&u.TeamID, &u.Role, &active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		log.Printf("sqlite store: scan user: %v", err)
		return nil
	}
	u.IsActive = int64ToBool(active)
	return &u
}

// ---- surveys ----

const surveyColumns = `id, title, description, category, status, allow_multiple_responses,
	start_date, end_date, questions, configs, created_by, team_id, created_at, updated_at`

func (s *SQLiteStore) AddSurvey(sv *api.Survey) {
	questions := encodeJSON(sv.Questions)
	if !questions.Valid {
		questions = sql.NullString{String: "[]", Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO surveys (`+surveyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.Title, sv.Description, sv.Category, sv.Status,
		boolToInt64(sv.AllowMultipleResponses),
		toNullTime(sv.StartDate), toNullTime(sv.EndDate),
		questions.String, encodeJSON(sv.Configs),
		sv.CreatedBy, sv.TeamID, sv.CreatedAt, sv.UpdatedAt)
	s.logErr("insert survey", err)
}

func (s *SQLiteStore) GetSurvey(id string) *api.Survey {
	rows, err := s.db.Query(`SELECT `+surveyColumns+` FROM surveys WHERE id = ?`, id)
	if err != nil {
		s.logErr("get survey", err)
		return nil
	}
	defer rows.Close()
	if !rows.Next() {
		return nil
	}
	return scanSurvey(rows)
}

func (s *SQLiteStore) ListSurveysByTeam(teamID string) []*api.Survey {
	rows, err := s.db.Query(`SELECT `+surveyColumns+` FROM surveys
		WHERE team_id = ? ORDER BY created_at DESC, id`, teamID)
	if err != nil {
		s.logErr("list surveys", err)
		return nil
	}
	defer rows.Close()
	var out []*api.Survey
	for rows.Next() {
		if sv := scanSurvey(rows); sv != nil {
			out = append(out, sv)
		}
	}
	s.logErr("list surveys rows", rows.Err())
	return out
}

func scanSurvey(rows *sql.Rows) *api.Survey {
	var sv api.Survey
	var allowMulti int64
	var start, end sql.NullTime
	var questions string
	var configs sql.NullString
	err := rows.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Category, &sv.Status,
		&allowMulti, &start, &end, &questions, &configs,
		&sv.CreatedBy, &sv.TeamID, &sv.CreatedAt, &sv.UpdatedAt)
	if err != nil {
		log.Printf("sqlite store: scan survey: %v", err)
		return nil
	}
	sv.AllowMultipleResponses = int64ToBool(allowMulti)
	sv.StartDate = fromNullTime(start)
	sv.EndDate = fromNullTime(end)
	sv.Questions = decodeQuestions(questions)
	sv.Configs = decodeAnyMap(configs)
	return &sv
}

func (s *SQLiteStore) UpdateSurveyStatus(id, status string) bool {
	res, err := s.db.Exec(`UPDATE surveys SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		s.logErr("update survey status", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteSurvey(id string) bool {
	res, err := s.db.Exec(`DELETE FROM surveys WHERE id = ?`, id)
	if err != nil {
		s.logErr("delete survey", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) CountResponses(surveyID string) int {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM survey_responses WHERE survey_id = ?`, surveyID).Scan(&n)
	if err != nil {
		s.logErr("count responses", err)
		return 0
	}
	return n
}

// ---- respondents ----

const respondentColumns = `id, email, phone_number, full_name, created_at, updated_at`

func (s *SQLiteStore) AddRespondent(r *api.Respondent) {
	_, err := s.db.Exec(`INSERT INTO respondents (`+respondentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Email, r.PhoneNumber, r.FullName, r.CreatedAt, r.UpdatedAt)
	s.logErr("insert respondent", err)
}

func (s *SQLiteStore) GetRespondent(id string) *api.Respondent {
	return scanRespondent(s.db.QueryRow(`SELECT `+respondentColumns+` FROM respondents WHERE id = ?`, id))
}

func (s *SQLiteStore) FindRespondentByEmail(email string) *api.Respondent {
	return scanRespondent(s.db.QueryRow(`SELECT `+respondentColumns+` FROM respondents WHERE email = ?`, email))
}

func scanRespondent(row *sql.Row) *api.Respondent {
	var r api.Respondent
	err := row.Scan(&r.ID, &r.Email, &r.PhoneNumber, &r.FullName, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		log.Printf("sqlite store: scan respondent: %v", err)
		return nil
	}
	return &r
}

func (s *SQLiteStore) UpdateRespondent(r *api.Respondent) bool {
	res, err := s.db.Exec(`UPDATE respondents
		SET email = ?, phone_number = ?, full_name = ?, updated_at = ?
		WHERE id = ?`,
		r.Email, r.PhoneNumber, r.FullName, r.UpdatedAt, r.ID)
	if err != nil {
		s.logErr("update respondent", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// ---- responses ----

const responseColumns = `id, survey_id, respondent_id, answers, is_complete, completed_at, created_at, updated_at`

// AddResponse inserts a response. With allowDuplicate false the insert is
// conditional on no completed response existing for the same survey and
// respondent, which closes the check-then-insert race between concurrent
// submissions.
func (s *SQLiteStore) AddResponse(r *api.SurveyResponse, allowDuplicate bool) error {
	answers := encodeJSON(r.Answers)
	if !answers.Valid {
		answers = sql.NullString{String: "{}", Valid: true}
	}
	args := []any{r.ID, r.SurveyID, r.RespondentID, answers.String,
		boolToInt64(r.IsComplete), toNullTime(r.CompletedAt), r.CreatedAt, r.UpdatedAt}

	if allowDuplicate {
		_, err := s.db.Exec(`INSERT INTO survey_responses (`+responseColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		return err
	}

	res, err := s.db.Exec(`INSERT INTO survey_responses (`+responseColumns+`)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM survey_responses
			WHERE survey_id = ?2 AND respondent_id = ?3 AND is_complete = 1
		)`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return api.ErrDuplicateResponse
	}
	return nil
}

func (s *SQLiteStore) GetResponse(id string) *api.SurveyResponse {
	rows, err := s.db.Query(`SELECT `+responseColumns+` FROM survey_responses WHERE id = ?`, id)
	if err != nil {
		s.logErr("get response", err)
		return nil
	}
	defer rows.Close()
	if !rows.Next() {
		return nil
	}
	return scanResponse(rows)
}

func (s *SQLiteStore) FindCompletedResponse(surveyID, respondentID string) *api.SurveyResponse {
	rows, err := s.db.Query(`SELECT `+responseColumns+` FROM survey_responses
		WHERE survey_id = ? AND respondent_id = ? AND is_complete = 1
		ORDER BY created_at LIMIT 1`, surveyID, respondentID)
	if err != nil {
		s.logErr("find completed response", err)
		return nil
	}
	defer rows.Close()
	if !rows.Next() {
		return nil
	}
	return scanResponse(rows)
}

func scanResponse(rows *sql.Rows) *api.SurveyResponse {
	var r api.SurveyResponse
	var complete int64
	var completedAt sql.NullTime
	var answers sql.NullString
	err := rows.Scan(&r.ID, &r.SurveyID, &r.RespondentID, &answers, &complete,
		&completedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		log.Printf("sqlite store: scan response: %v", err)
		return nil
	}
	r.Answers = decodeAnyMap(answers)
	r.IsComplete = int64ToBool(complete)
	r.CompletedAt = fromNullTime(completedAt)
	return &r
}

var _ api.Store = (*SQLiteStore)(nil)
