// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account known to the server. A user has a password hash, an
// external (federated) id, or both.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ExternalID   string    `json:"external_id,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the user can authenticate locally.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
