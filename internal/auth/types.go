package auth

import "errors"

// Role represents an authorisation tier on the capture API.
type Role string

const (
	// RoleViewer may read stream health and the command log and watch the
	// live packet feed. It cannot send commands.
	RoleViewer Role = "viewer"

	// RoleOperator may additionally send capture commands to any stream.
	RoleOperator Role = "operator"

	// RoleAdmin has everything operator can do plus device reset and the
	// free-form ISP 3A command, which can leave a camera in an odd state.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of roles a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if the role is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Sentinel errors for auth operations.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
	ErrForbidden    = errors.New("insufficient permissions")
)
