package identity

import (
	"context"
	"strings"
)

// Role is the acting user's role as supplied by the external identity
// provider. The engine trusts it and never authenticates.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleFinance Role = "finance"
	RoleStaff   Role = "staff"
	RoleViewer  Role = "viewer"
)

// Valid reports whether the role is one the engine knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleFinance, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// ParseRole normalizes a raw role string.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// User is the verified acting identity attached to every mutating call.
type User struct {
	ID   string
	Name string
	Role Role
}

type userContextKey struct{}

// WithUser stores the acting user in the context.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the acting user, if one was attached.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	u, ok := ctx.Value(userContextKey{}).(User)
	if !ok || u.ID == "" {
		return User{}, false
	}
	return u, true
}
