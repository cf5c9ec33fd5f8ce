package domain

import "time"

// Role names are persisted and looked up by name; they double as
// authorization tokens, so never rename them.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Roles lists every role the system knows about, in seeding order.
var Roles = []string{RoleUser, RoleAdmin}

// Role is a named permission tag granted to users.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
