package auth

import "github.com/nerrad567/gray-logic-capture/internal/capture"

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermStreamRead      Permission = "stream:read"
	PermCommandLogRead  Permission = "commandlog:read"
	PermCaptureOperate  Permission = "capture:operate"
	PermCaptureMaintain Permission = "capture:maintain"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermStreamRead,
		PermCommandLogRead,
	},
	RoleOperator: {
		PermStreamRead,
		PermCommandLogRead,
		PermCaptureOperate,
	},
	RoleAdmin: {
		PermStreamRead,
		PermCommandLogRead,
		PermCaptureOperate,
		PermCaptureMaintain,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}

// CommandPermission returns the permission needed to send a named capture
// command. Device reset and ISP 3A need PermCaptureMaintain; everything else,
// including unknown names (rejected later by the dispatcher), needs
// PermCaptureOperate.
func CommandPermission(command string) Permission {
	switch command {
	case capture.CommandDeviceReset, capture.CommandISP3A:
		return PermCaptureMaintain
	default:
		return PermCaptureOperate
	}
}

// CanSendCommand reports whether a role may send the named command.
func CanSendCommand(role Role, command string) bool {
	return HasPermission(role, CommandPermission(command))
}
