package authz

import "context"

type roleContextKey struct{}

// ContextWithRole stores the freshly resolved role in context.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext extracts the role stamped by the pipeline. The second
// return is false on paths where no role lookup happened.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(Role)
	return role, ok
}
