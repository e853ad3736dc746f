package user

import (
	"time"

	"github.com/darivadeneira/evento-web/core"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
)

var (
	AllRoles = []string{RoleAdmin, RoleOrganizer, RoleAttendee}

	Roles = []Role{
		{Name: "Asistente", Value: RoleAttendee},
		{Name: "Organizador", Value: RoleOrganizer},
		{Name: "Administrador", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credentials are sent to the backend login endpoint.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Clean trims the username, keeping its case: signup accepts mixed-case usernames.
// The password is sent as typed.
func (c *Credentials) Clean() {
	c.Username = core.CleanString(c.Username)
}

// LoginResult is the backend login response.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
