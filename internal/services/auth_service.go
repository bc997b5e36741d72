package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthStore interface {
	FindUserByEmail(email string) (*User, error)
	InsertUser(u *User) error
	FindTeamByName(name string) (*Team, error)
	InsertTeam(t *Team) error
}

type TokenSigner func(uid, tid, email string, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token  string `json:"token"`
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
	Name   string `json:"user"`
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     uuid.NewString,
		signToken: signer,
		tokenTTL:  24 * time.Hour,
	}
}

// Register creates a user and attaches it to the named team, creating the
// team when the name is unknown. Team names are unique.
func (s *AuthService) Register(email, password, firstName, lastName, teamName string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	if !ValidRespondentEmail(email) {
		return nil, NewInvalidError("Please provide a valid email address.")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}

	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return nil, NewInvalidError("team name required")
	}
	team, err := s.store.FindTeamByName(teamName)
	if err != nil {
		return nil, err
	}
	if team == nil {
		team = &Team{ID: s.idGen(), Name: teamName, CreatedAt: s.now()}
		if err := s.store.InsertTeam(team); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:        s.idGen(),
		Email:     email,
		PassHash:  hash,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		TeamID:    team.ID,
		Role:      "member",
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertUser(user); err != nil {
		return nil, err
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(user.ID, team.ID, email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, TeamID: team.ID, UserID: user.ID, Name: user.FullName()}, nil
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("Invalid email or password")
	}
	if !u.IsActive {
		return nil, NewUnauthorizedError("Invalid email or password")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.TeamID, u.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, TeamID: u.TeamID, UserID: u.ID, Name: u.FullName()}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
