package dto

import "time"

type UserOutput struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type ProfileOutput struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

// AuthResult is what a successful register/login/refresh hands back to the
// HTTP boundary. The refresh-token secret travels in an HttpOnly cookie, not
// in the JSON body.
type AuthResult struct {
	AccessToken      string     `json:"accessToken"`
	User             UserOutput `json:"account"`
	RefreshToken     string     `json:"-"`
	RefreshExpiresAt time.Time  `json:"-"`
}
