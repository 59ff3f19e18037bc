package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Picture      *string   `json:"picture,omitempty"`
	GoogleID     *string   `json:"-"`
	PasswordHash *string   `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is the author shape embedded in pen and collection listings.
type UserSummary struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Picture *string `json:"picture,omitempty"`
}
