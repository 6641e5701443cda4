package model

import (
	"time"
)

const (
	AuthProviderLocal    = "local"
	AuthProviderReplit   = "replit"
	AuthProviderFirebase = "firebase"
)

type User struct {
	ID              string    `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	Email           *string   `db:"email" json:"email"`
	DisplayName     string    `db:"display_name" json:"displayName"`
	PasswordHash    *string   `db:"password_hash" json:"-"` // Nullable for external identities
	AuthProvider    string    `db:"auth_provider" json:"authProvider"`
	ProviderSubject *string   `db:"provider_subject" json:"-"`
	AvatarURL       string    `db:"avatar_url" json:"avatarUrl"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// EmailAddress returns the email or an empty string.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Name is what the UI and exports show for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
