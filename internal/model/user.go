package model

// User is created on first sign-in via the identity exchange.
type User struct {
	Base

	Email    string `json:"email" db:"email"`
	GoogleID string `json:"google_id" db:"google_id"`
	Name     string `json:"name" db:"name"`
	Picture  string `json:"picture" db:"picture"`
}

// TokenResponse carries a session token issued after the identity exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}
