package models

import "time"

// UserAuth is the persisted account row, including the password hash.
type UserAuth struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ToUser strips credentials.
func (u UserAuth) ToUser() User {
	return User{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}

// Tokens are issued on login.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Review is a durable destination review.
type Review struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	DestinationID string    `json:"destination_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
