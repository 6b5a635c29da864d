package domain

import "time"

// AuthorityRole enumerates authority-side operator roles.
type AuthorityRole string

const (
	AuthorityRoleOfficer    AuthorityRole = "OFFICER"
	AuthorityRoleSupervisor AuthorityRole = "SUPERVISOR"
	AuthorityRoleAdmin      AuthorityRole = "ADMIN"
)

// Authority models an official who processes complaints.
type Authority struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AuthorityRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
