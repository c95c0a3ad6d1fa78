package domain

import (
	"strings"
	"time"
)

// Role enumerates the dashboard roles.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleAgent  Role = "AGENTE"
	RoleClient Role = "CLIENTE"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleAgent, RoleClient}

// ParseRole normalizes a role string; ok is false for unknown roles.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return "", false
}

// User is an account of any role. Role never changes after registration.
type User struct {
	ID           int64
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// FullName joins name and surname.
func (u User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}
