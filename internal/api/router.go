package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vipero7/surveycorps/internal/middleware"
	"github.com/vipero7/surveycorps/internal/services"
)

type Router struct {
	store       Store
	auth        *services.AuthService
	surveys     *services.SurveyService
	submissions *services.SubmissionService
	invites     *services.InviteService
}

// NewRouter wires the services over the given store. Mailer failures never
// fail the triggering request; loc is the timezone naive survey dates are
// interpreted in.
func NewRouter(store Store, mailer services.Mailer, loc *time.Location, frontendBaseURL string) *Router {
	surveyStore := newSurveyStoreAdapter(store)
	return &Router{
		store:       store,
		auth:        services.NewAuthService(newAuthStoreAdapter(store), middleware.SignToken),
		surveys:     services.NewSurveyService(surveyStore, loc),
		submissions: services.NewSubmissionService(newSubmissionStoreAdapter(store), mailer, frontendBaseURL),
		invites:     services.NewInviteService(surveyStore, mailer),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.HandleFunc("/api/auth/logout", rt.handleLogout)     // POST
	mux.HandleFunc("/api/survey/", rt.handleSurveyScoped)
}

// ---- response envelope ----

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	body := map[string]any{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, status, body)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeError maps a service error onto the response envelope. Unexpected
// errors are logged with context and surfaced as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		writeErrorMessage(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	switch se.Code {
	case services.ErrorValidation:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "errors": se.Fields})
	case services.ErrorNotFound:
		writeErrorMessage(w, http.StatusNotFound, se.Message)
	case services.ErrorConflict:
		body := map[string]any{"success": false, "error": se.Message}
		if se.Data != nil {
			body["data"] = se.Data
		}
		writeJSON(w, http.StatusConflict, body)
	case services.ErrorUnauthorized:
		writeErrorMessage(w, http.StatusUnauthorized, se.Message)
	default:
		writeErrorMessage(w, http.StatusBadRequest, se.Message)
	}
}

// writeConflictAsBadRequest downgrades conflict errors to 400 for the
// endpoints where the HTTP contract reports state conflicts that way
// (delete-with-responses, publish-without-questions).
func writeConflictAsBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorConflict {
		writeErrorMessage(w, http.StatusBadRequest, se.Message)
		return
	}
	writeError(w, r, err)
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return services.NewInvalidError("Invalid JSON body.")
	}
	return nil
}

func (rt *Router) principal(w http.ResponseWriter, r *http.Request) (*middleware.Claims, bool) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || c.TID == "" {
		writeErrorMessage(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return nil, false
	}
	return c, true
}

// ---- auth ----

func (rt *Router) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(rt.auth.TokenTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		TeamName  string `json:"team_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := rt.auth.Register(req.Email, req.Password, req.FirstName, req.LastName, req.TeamName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.setAuthCookie(w, result.Token)
	writeData(w, http.StatusCreated, "Registered successfully", result)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.setAuthCookie(w, result.Token)
	writeData(w, http.StatusOK, "Logged in successfully", result)
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeData(w, http.StatusOK, "Logged out successfully", nil)
}

// ---- survey routes ----

// handleSurveyScoped dispatches everything under /api/survey/:
//
//	GET/POST  /api/survey/                               list / create
//	GET/DELETE /api/survey/{oid}/                        detail / delete
//	POST      /api/survey/{oid}/publish/                 publish toggle
//	GET/POST  /api/survey/{oid}/get-public/              public fetch / submit
//	POST      /api/survey/{oid}/send-invites/            invitations
//	POST      /api/survey/{oid}/check-submission/        duplicate probe
//	GET       /api/survey/submission/{response_oid}/get/ submission view
func (rt *Router) handleSurveyScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/survey/")
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		rt.handleSurveyListCreate(w, r)
		return
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		rt.handleSurveyDetail(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "publish":
		rt.handleSurveyPublish(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "get-public":
		rt.handleSurveyPublic(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "send-invites":
		rt.handleSendInvites(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "check-submission":
		rt.handleCheckSubmission(w, r, parts[0])
	case len(parts) == 3 && parts[0] == "submission" && parts[2] == "get":
		rt.handleSubmissionView(w, r, parts[1])
	default:
		writeErrorMessage(w, http.StatusNotFound, "not found")
	}
}

func (rt *Router) handleSurveyListCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := rt.principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		surveys, err := rt.surveys.ListSurveys(claims.TID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items := make([]map[string]any, 0, len(surveys))
		for _, sv := range surveys {
			items = append(items, surveyListItem(sv))
		}
		writeData(w, http.StatusOK, "", map[string]any{"surveys": items})
	case http.MethodPost:
		var payload map[string]any
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, r, err)
			return
		}
		sv, err := rt.surveys.CreateSurvey(claims.TID, claims.UID, payload)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, "Survey created successfully.", surveyDetail(sv))
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) handleSurveyDetail(w http.ResponseWriter, r *http.Request, oid string) {
	claims, ok := rt.principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		sv, err := rt.surveys.GetSurvey(claims.TID, oid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, "", surveyDetail(sv))
	case http.MethodDelete:
		title, err := rt.surveys.DeleteSurvey(claims.TID, oid)
		if err != nil {
			writeConflictAsBadRequest(w, r, err)
			return
		}
		writeData(w, http.StatusOK, `Survey "`+title+`" deleted successfully.`, nil)
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) handleSurveyPublish(w http.ResponseWriter, r *http.Request, oid string) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, ok := rt.principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sv, message, err := rt.surveys.SetPublishState(claims.TID, oid, req.Action)
	if err != nil {
		writeConflictAsBadRequest(w, r, err)
		return
	}
	writeData(w, http.StatusOK, message, surveyDetail(sv))
}

func (rt *Router) handleSurveyPublic(w http.ResponseWriter, r *http.Request, oid string) {
	switch r.Method {
	case http.MethodGet:
		sv, err := rt.submissions.GetPublicSurvey(oid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, "", surveyPublic(sv))
	case http.MethodPost:
		var req struct {
			Responses      map[string]any          `json:"responses"`
			RespondentInfo services.RespondentInfo `json:"respondent_info"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.RespondentInfo == (services.RespondentInfo{}) {
			writeErrorMessage(w, http.StatusBadRequest, "Respondent information is required.")
			return
		}
		result, err := rt.submissions.SubmitResponse(oid, req.Responses, req.RespondentInfo)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated,
			"Thank you for your response! A confirmation email has been sent to you.", result)
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) handleSendInvites(w http.ResponseWriter, r *http.Request, oid string) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, ok := rt.principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Emails        []string `json:"emails"`
		SurveyURL     string   `json:"survey_url"`
		CustomMessage string   `json:"custom_message"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	senderName, senderTeam := rt.senderIdentity(claims.UID)
	result, err := rt.invites.SendInvites(claims.TID, oid, req.Emails, req.SurveyURL, req.CustomMessage, senderName, senderTeam)
	if err != nil {
		writeError(w, r, err)
		return
	}
	message := "Successfully sent " + strconv.Itoa(result.SentCount) + " survey invitations"
	if len(result.FailedEmails) > 0 {
		message += " (" + strconv.Itoa(len(result.FailedEmails)) + " failed)"
	}
	writeData(w, http.StatusOK, message, result)
}

func (rt *Router) senderIdentity(userID string) (name, team string) {
	u := rt.store.GetUser(userID)
	if u == nil {
		return "", ""
	}
	name = convertUser(u).FullName()
	if t := rt.store.GetTeam(u.TeamID); t != nil {
		team = t.Name
	}
	return name, team
}

func (rt *Router) handleCheckSubmission(w http.ResponseWriter, r *http.Request, oid string) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := rt.submissions.CheckExistingSubmission(oid, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", status)
}

func (rt *Router) handleSubmissionView(w http.ResponseWriter, r *http.Request, responseID string) {
	if r.Method != http.MethodGet {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := rt.submissions.GetSubmission(responseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", view)
}

// ---- projections ----

func surveyListItem(sv *services.Survey) map[string]any {
	return map[string]any{
		"oid":              sv.ID,
		"title":            sv.Title,
		"description":      sv.Description,
		"category":         sv.Category,
		"category_display": sv.CategoryDisplay(),
		"status":           sv.Status,
		"status_display":   sv.StatusDisplay(),
		"created_by_name":  sv.CreatedByName,
		"team_name":        sv.TeamName,
		"total_responses":  sv.ResponseCount,
		"is_active":        sv.IsActive(time.Now().UTC()),
		"public_url":       sv.PublicURL(),
		"created_at":       sv.CreatedAt,
		"updated_at":       sv.UpdatedAt,
	}
}

func surveyDetail(sv *services.Survey) map[string]any {
	out := surveyListItem(sv)
	out["allow_multiple_responses"] = sv.AllowMultipleResponses
	out["start_date"] = sv.StartDate
	out["end_date"] = sv.EndDate
	out["questions"] = sv.Questions
	out["configs"] = sv.Configs
	out["created_by"] = sv.CreatedBy
	out["team"] = sv.TeamID
	out["edit_url"] = sv.EditURL()
	out["responses_url"] = sv.ResponsesURL()
	return out
}

// surveyPublic omits creator, team and admin fields.
func surveyPublic(sv *services.Survey) map[string]any {
	return map[string]any{
		"oid":                      sv.ID,
		"title":                    sv.Title,
		"description":              sv.Description,
		"category_display":         sv.CategoryDisplay(),
		"allow_multiple_responses": sv.AllowMultipleResponses,
		"questions":                sv.Questions,
		"is_active":                sv.IsActive(time.Now().UTC()),
	}
}

