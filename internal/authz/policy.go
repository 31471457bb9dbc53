// Package authz implements the role/permission policy and the per-request
// authorization pipeline of the Atrium admin gateway.
package authz

// Role groups permissions under a named privilege level. There is no
// hierarchy between roles; each role carries an explicit permission set.
type Role string

// Defined roles.
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Action is a CRUD capability on a resource.
type Action string

// Defined actions.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource names a gated entity collection.
type Resource string

// Defined resources.
const (
	ResourceOrders     Resource = "orders"
	ResourceProducts   Resource = "products"
	ResourceClients    Resource = "clients"
	ResourceCategories Resource = "categories"
)

// Resources lists every defined resource.
func Resources() []Resource {
	return []Resource{ResourceOrders, ResourceProducts, ResourceClients, ResourceCategories}
}

// Permission is an (action, resource) capability pair. Immutable, compared
// by value.
type Permission struct {
	Action   Action
	Resource Resource
}

// ParseRole maps a stored role name to a Role. Unknown names fall back to
// RoleUser, the least privileged defined role.
func ParseRole(name string) Role {
	switch Role(name) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RoleUser:
		return RoleUser
	}
	return RoleUser
}

// rolePermissions is fixed at process start and never mutated.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		{ActionCreate, ResourceOrders},
		{ActionRead, ResourceOrders},
		{ActionUpdate, ResourceOrders},
		{ActionDelete, ResourceOrders},
		{ActionCreate, ResourceProducts},
		{ActionRead, ResourceProducts},
		{ActionUpdate, ResourceProducts},
		{ActionDelete, ResourceProducts},
		{ActionCreate, ResourceClients},
		{ActionRead, ResourceClients},
		{ActionUpdate, ResourceClients},
		{ActionDelete, ResourceClients},
		{ActionCreate, ResourceCategories},
		{ActionRead, ResourceCategories},
		{ActionUpdate, ResourceCategories},
		{ActionDelete, ResourceCategories},
	},
	RoleManager: {
		{ActionCreate, ResourceOrders},
		{ActionRead, ResourceOrders},
		{ActionUpdate, ResourceOrders},
		{ActionRead, ResourceProducts},
		{ActionUpdate, ResourceProducts},
		{ActionRead, ResourceClients},
		{ActionUpdate, ResourceClients},
		{ActionRead, ResourceCategories},
		{ActionUpdate, ResourceCategories},
	},
	RoleUser: {
		{ActionRead, ResourceOrders},
		{ActionRead, ResourceProducts},
		{ActionRead, ResourceClients},
		{ActionRead, ResourceCategories},
	},
}

// permissionsFor resolves the permission set for a role, failing closed to
// the RoleUser set when the role has no entry in the table.
func permissionsFor(role Role) []Permission {
	if perms, ok := rolePermissions[role]; ok {
		return perms
	}
	return rolePermissions[RoleUser]
}

// Evaluate reports whether the role holds the permission. Deterministic and
// side-effect free.
func Evaluate(role Role, perm Permission) bool {
	for _, p := range permissionsFor(role) {
		if p == perm {
			return true
		}
	}
	return false
}

// ResourcePermissions returns the actions the role may perform on the
// resource, in table order. Used by UI consumers to decide which controls
// to render.
func ResourcePermissions(role Role, resource Resource) []Action {
	actions := make([]Action, 0, 4)
	for _, p := range permissionsFor(role) {
		if p.Resource == resource {
			actions = append(actions, p.Action)
		}
	}
	return actions
}
