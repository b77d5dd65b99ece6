package model

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the access level of a user.
type Role string

const (
	RoleMother Role = "mother"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
)

// Profile represents a registered user.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleRank returns the numeric rank of a role (higher = more privileges).
// Only relative ordering matters.
func RoleRank(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleCoach:
		return 2
	case RoleMother:
		return 1
	default:
		return 0
	}
}

// RoleAtLeast returns true if role r has at least the privileges of minRole.
func RoleAtLeast(r, minRole Role) bool {
	return RoleRank(r) >= RoleRank(minRole)
}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleMother || r == RoleCoach || r == RoleAdmin
}
