package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the account domain.
// Password holds the bcrypt digest and is only populated by lookups that
// explicitly ask for it (see repository.UserRepository.GetByIdentifier).
type User struct {
	ID           string    `json:"_id"`
	UserName     string    `json:"userName"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	ProfileImage string    `json:"profileImage,omitempty"`
	IsAdmin      bool      `json:"isAdmin"`
	Status       bool      `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// WithoutPassword returns a copy of u with the digest cleared.
func (u *User) WithoutPassword() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Password = ""
	return &cp
}

// IsEmailIdentifier reports whether a login identifier addresses the email
// field. User names never contain '@', so the two namespaces cannot overlap.
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}
