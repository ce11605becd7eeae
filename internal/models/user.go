package models

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Avatar    Image     `json:"avatar"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
