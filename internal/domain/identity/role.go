package identity

import (
	"strings"

	"github.com/bidhouse/backend/internal/domain/shared"
)

// Role is the marketplace role a user registered with
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Permission codes carried in access tokens
const (
	PermProductCreate   = "product:create"
	PermProductUpdate   = "product:update"
	PermProductDelete   = "product:delete"
	PermProductModerate = "product:moderate"
	PermBidPlace        = "bid:place"
	PermBidView         = "bid:view"
	PermUserManage      = "user:manage"
	PermProfileUpdate   = "profile:update"
)

var rolePermissions = map[Role][]string{
	RoleBuyer: {
		PermBidPlace,
		PermBidView,
		PermProfileUpdate,
	},
	RoleSeller: {
		PermProductCreate,
		PermProductUpdate,
		PermProductDelete,
		PermBidView,
		PermProfileUpdate,
	},
	RoleAdmin: {
		PermProductModerate,
		PermUserManage,
		PermBidView,
		PermProfileUpdate,
	},
}

// ParseRole converts user input into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Role must be one of buyer, seller, admin")
	}
	return r, nil
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns a copy of the permission codes granted to the role
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission checks whether the role grants the permission
func (r Role) HasPermission(perm string) bool {
	for _, p := range rolePermissions[r] {
		if p == perm {
			return true
		}
	}
	return false
}

// SelfRegistrable reports whether the role may be chosen at public sign up
func (r Role) SelfRegistrable() bool {
	return r == RoleBuyer || r == RoleSeller
}

func (r Role) String() string {
	return string(r)
}
