package api

import "github.com/vipero7/surveycorps/internal/services"

type authStoreAdapter struct{ store Store }

func newAuthStoreAdapter(store Store) services.AuthStore {
	return &authStoreAdapter{store: store}
}

func (a *authStoreAdapter) FindUserByEmail(email string) (*services.User, error) {
	u := a.store.FindUserByEmail(email)
	if u == nil {
		return nil, nil
	}
	return convertUser(u), nil
}

func (a *authStoreAdapter) InsertUser(u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	a.store.AddUser(&User{
		ID:        u.ID,
		Email:     u.Email,
		PassHash:  u.PassHash,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		TeamID:    u.TeamID,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	})
	return nil
}

func (a *authStoreAdapter) FindTeamByName(name string) (*services.Team, error) {
	t := a.store.FindTeamByName(name)
	if t == nil {
		return nil, nil
	}
	return &services.Team{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}, nil
}

func (a *authStoreAdapter) InsertTeam(t *services.Team) error {
	if t == nil {
		return services.NewInvalidError("team required")
	}
	a.store.AddTeam(&Team{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt})
	return nil
}

func convertUser(u *User) *services.User {
	if u == nil {
		return nil
	}
	return &services.User{
		ID:        u.ID,
		Email:     u.Email,
		PassHash:  u.PassHash,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		TeamID:    u.TeamID,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

var _ services.AuthStore = (*authStoreAdapter)(nil)
