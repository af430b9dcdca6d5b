package models

import "encoding/json"

// User is a stored account. The JSON shape matches the users file:
// {"users": [ {...}, ... ]}.
type User struct {
	ID                       uint       `json:"-" gorm:"primaryKey"`
	Username                 string     `json:"username" gorm:"uniqueIndex;not null"`
	Password                 string     `json:"password" gorm:"not null"`
	Email                    string     `json:"email"`
	CreatedAt                Timestamp  `json:"created_at"`
	LastLogin                *Timestamp `json:"last_login"`
	TotalGames               int        `json:"total_games"`
	HighScore                int        `json:"high_score"`
	IsActive                 bool       `json:"is_active"`
	DisabledAt               *Timestamp `json:"disabled_at,omitempty"`
	SavedProgress            *Progress  `json:"saved_progress,omitempty" gorm:"serializer:json"`
	GameCompletedPermanently bool       `json:"game_completed_permanently,omitempty"`
}

// UnmarshalJSON treats a missing is_active as true, which is how records
// created before soft-disable existed must be read.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		IsActive *bool `json:"is_active"`
	}{alias: (*alias)(u)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.IsActive = aux.IsActive == nil || *aux.IsActive
	return nil
}

// PublicUser is a User without its password hash.
type PublicUser struct {
	Username                 string     `json:"username"`
	Email                    string     `json:"email"`
	CreatedAt                Timestamp  `json:"created_at"`
	LastLogin                *Timestamp `json:"last_login"`
	TotalGames               int        `json:"total_games"`
	HighScore                int        `json:"high_score"`
	IsActive                 bool       `json:"is_active"`
	DisabledAt               *Timestamp `json:"disabled_at,omitempty"`
	SavedProgress            *Progress  `json:"saved_progress,omitempty"`
	GameCompletedPermanently bool       `json:"game_completed_permanently"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		Username:                 u.Username,
		Email:                    u.Email,
		CreatedAt:                u.CreatedAt,
		LastLogin:                u.LastLogin,
		TotalGames:               u.TotalGames,
		HighScore:                u.HighScore,
		IsActive:                 u.IsActive,
		DisabledAt:               u.DisabledAt,
		SavedProgress:            u.SavedProgress.Clone(),
		GameCompletedPermanently: u.GameCompletedPermanently,
	}
}

// UserStatus is the account-status view used by the admin panel.
type UserStatus struct {
	Username   string     `json:"username"`
	IsActive   bool       `json:"is_active"`
	DisabledAt *Timestamp `json:"disabled_at"`
	CreatedAt  Timestamp  `json:"created_at"`
	LastLogin  *Timestamp `json:"last_login"`
}

// UsersDocument is the on-disk layout of the users file.
type UsersDocument struct {
	Users []User `json:"users"`
}
