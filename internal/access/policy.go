// Package access decides who may see and change report artifacts.
package access

import "github.com/agrosense/plant-health/internal/models"

// Principal is the authenticated caller.
type Principal interface {
	PrincipalID() int64
	RoleName() string
	IsStaff() bool
}

// Identity is the concrete Principal built from token claims.
type Identity struct {
	ID       int64
	Username string
	FullName string
	Role     string
	Staff    bool
}

func (i Identity) PrincipalID() int64 { return i.ID }
func (i Identity) RoleName() string   { return i.Role }
func (i Identity) IsStaff() bool      { return i.Staff }

// Policy answers visibility questions. Callers outside this package never
// inspect roles directly.
type Policy interface {
	IsAdmin(p Principal) bool
	IsOwnerOrAdmin(p Principal, ownerID int64) bool
}

// RolePolicy grants admin rights to staff principals and to the admin role.
type RolePolicy struct {
	AdminRoles []string
}

// NewRolePolicy returns the default policy.
func NewRolePolicy() *RolePolicy {
	return &RolePolicy{AdminRoles: []string{models.RoleAdmin}}
}

func (r *RolePolicy) IsAdmin(p Principal) bool {
	if p == nil {
		return false
	}
	if p.IsStaff() {
		return true
	}
	for _, role := range r.AdminRoles {
		if p.RoleName() == role {
			return true
		}
	}
	return false
}

func (r *RolePolicy) IsOwnerOrAdmin(p Principal, ownerID int64) bool {
	if p == nil {
		return false
	}
	return p.PrincipalID() == ownerID || r.IsAdmin(p)
}
