// Package policy holds the access-control decision for user records.
// It is a pure function of the principal and the target so it can be
// exercised without any HTTP scaffolding.
package policy

import "github.com/userdesk/apiserver/types"

// Operation names the action a principal wants to perform on a user record.
type Operation string

const (
	OpGet    Operation = "GET"
	OpCreate Operation = "POST"
	OpUpdate Operation = "PUT"
	OpDelete Operation = "DELETE"
)

// CanAccess reports whether the principal may perform op against the user
// identified by targetID. Rules, in order:
//
//  1. ROOT may do anything to any target.
//  2. GET and PUT are allowed against the principal's own record.
//  3. DELETE is ROOT-only.
//  4. POST is open to any authenticated principal.
func CanAccess(p types.Principal, targetID int, op Operation) bool {
	if IsRoot(p) {
		return true
	}
	switch op {
	case OpGet, OpUpdate:
		return p.UserID == targetID
	case OpCreate:
		return true
	default:
		return false
	}
}

// CanAssignRoles reports whether the principal may set the roles field on
// a created or updated user. Non-root principals have the field silently
// ignored, not rejected.
func CanAssignRoles(p types.Principal) bool {
	return IsRoot(p)
}

// IsRoot reports whether the principal carries the ROOT role.
func IsRoot(p types.Principal) bool {
	for _, role := range p.Roles {
		if role == types.RoleRoot {
			return true
		}
	}
	return false
}
