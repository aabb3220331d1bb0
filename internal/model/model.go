package model

import "time"

// User represents a registered user. Accounts come from username/password
// registration, Google OAuth, or dev login.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	Provider     string    `json:"provider"`
	ProviderID   string    `json:"provider_id"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Score is one leaderboard row.
type Score struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
}
