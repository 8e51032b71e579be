package identity

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when an actor's role does not permit an
// operation outside the transition table, e.g. resolving disputes.
var ErrForbidden = errors.New("role not permitted for this operation")

// Role represents a portal role.
type Role string

const (
	RoleClient     Role = "client"
	RoleKAM        Role = "kam"
	RoleCreditTeam Role = "credit_team"
	RoleNBFC       Role = "nbfc"
	RoleAdmin      Role = "admin"
)

// ParseRole normalizes a role token. Unknown tokens are returned as-is so
// the transition validator can reject them with a precise message.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether the role is one of the portal roles.
func (r Role) Known() bool {
	switch r {
	case RoleClient, RoleKAM, RoleCreditTeam, RoleNBFC, RoleAdmin:
		return true
	}
	return false
}

// Identity describes the authenticated caller of a mutating operation.
// Tokens are issued by the external auth service; this package only carries
// the verified claims.
type Identity struct {
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	ClientID string `json:"clientId,omitempty"`
	KamID    string `json:"kamId,omitempty"`
}

// ActorString renders the identity for history and audit attribution.
func (i Identity) ActorString() string {
	if i.Email == "" {
		return "system"
	}
	return string(i.Role) + ":" + i.Email
}
