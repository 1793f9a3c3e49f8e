package domain

import (
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// Identity is the authenticated caller as supplied by the auth service.
type Identity struct {
	HolderID uuid.UUID
	Role     Role
}

// SystemIdentity acts for scheduled jobs.
var SystemIdentity = Identity{Role: RoleSystem}

func (i Identity) IsStaff() bool {
	return i.Role == RoleStaff || i.Role == RoleAdmin
}

func (i Identity) Is(roles ...Role) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}

	return false
}

func NewID() uuid.UUID {
	return uuid.New()
}

// ParseID normalizes an identifier received from a caller.
func ParseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, &ValidationError{Field: field, Message: "must be a valid identifier"}
	}

	return id, nil
}
