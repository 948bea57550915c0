// Package ctxkeys defines typed context keys shared between middleware and handlers.
// Both middleware and handlers import this package; neither imports the other.
package ctxkeys

import "context"

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID   Key = "userID"
	UserRole Key = "userRole"
)

// ValidRoles lists all valid role strings.
var ValidRoles = map[string]bool{
	"crew":        true,
	"admin":       true,
	"super_admin": true,
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"crew":        1,
	"admin":       2,
	"super_admin": 3,
}

// GetUserID returns the authenticated user's ID, or "" outside an authenticated request.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserID).(string)
	return id
}

// GetUserRole returns the authenticated user's role, or "".
func GetUserRole(ctx context.Context) string {
	role, _ := ctx.Value(UserRole).(string)
	return role
}

// IsAdmin reports whether the current user may see every crew member's records.
func IsAdmin(ctx context.Context) bool {
	return RoleLevel[GetUserRole(ctx)] >= RoleLevel["admin"]
}

// WithUser returns a copy of ctx carrying the user's identity.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserID, userID)
	return context.WithValue(ctx, UserRole, role)
}
