package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePolicy(t *testing.T) {
	policy := NewRolePolicy()
	owner := Identity{ID: 1, Role: "agronomist"}
	other := Identity{ID: 2, Role: "operator"}
	admin := Identity{ID: 3, Role: "admin"}
	staff := Identity{ID: 4, Role: "operator", Staff: true}

	tests := []struct {
		name      string
		principal Principal
		admin     bool
		canAccess bool
	}{
		{"owner", owner, false, true},
		{"other user", other, false, false},
		{"admin role", admin, true, true},
		{"staff flag", staff, true, true},
		{"nil principal", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.admin, policy.IsAdmin(tt.principal))
			assert.Equal(t, tt.canAccess, policy.IsOwnerOrAdmin(tt.principal, owner.ID))
		})
	}
}
