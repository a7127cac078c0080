package enums

import (
	"fmt"
	"strings"
)

// ActorRole is the role carried in an access token.
type ActorRole string

const (
	ActorRoleAdmin    ActorRole = "admin"
	ActorRoleVendor   ActorRole = "vendor"
	ActorRoleCourier  ActorRole = "courier"
	ActorRoleCustomer ActorRole = "customer"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleVendor,
	ActorRoleCourier,
	ActorRoleCustomer,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	normalized := ActorRole(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
