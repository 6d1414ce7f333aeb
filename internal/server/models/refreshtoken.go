package models

import "time"

// RefreshToken is a server-side, single-use token that mints new access tokens.
type RefreshToken struct {
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
