// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// Roles. Anything above RoleUser counts as an administrator.
const (
	RoleUser  = 0
	RoleAdmin = 1
)

// User represents a registered account.
//
// Password holds the keyed digest, never the plaintext, and is excluded from
// JSON together with the reset-token fields.
type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	MiddleName   string     `json:"middleName,omitempty"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Password     string     `json:"-"`
	Role         int        `json:"role"`
	ResetToken   string     `json:"-"`
	ResetExpires *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user may use the admin routes.
func (u *User) IsAdmin() bool {
	return u.Role > RoleUser
}

// FullName joins the non-empty name parts with single spaces.
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// SetFullName splits a "First [Middle...] Last" string into the name fields.
// A single word only sets the first name.
func (u *User) SetFullName(full string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return
	case 1:
		u.FirstName = fields[0]
	default:
		u.FirstName = fields[0]
		u.LastName = fields[len(fields)-1]
		u.MiddleName = strings.Join(fields[1:len(fields)-1], " ")
	}
}

// Owner is the public projection of a user attached to recipes.
type Owner struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Email     string `json:"email,omitempty"`
}

// OwnerOf projects u; email is only included when withEmail is set.
func OwnerOf(u *User, withEmail bool) *Owner {
	o := &Owner{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
	}
	if withEmail {
		o.Email = u.Email
	}
	return o
}

// UserDetails is what a signed-in user sees about themselves.
type UserDetails struct {
	FirstName   string  `json:"firstName"`
	MiddleName  string  `json:"middleName,omitempty"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	AvgRating   float64 `json:"avgRating"`
	RecipeCount int     `json:"recipeCount"`
}
