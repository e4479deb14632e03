package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent:
		return true
	default:
		return false
	}
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Name           string
	Username       string
	Email          string
	PhoneNumber    string
	IsActive       bool
	HashedPassword string
	Role           Role
	AvatarURL      *string // nil if user has no avatar
}
