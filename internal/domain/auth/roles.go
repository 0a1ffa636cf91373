package auth

import "strings"

type Role string

const (
	RoleEmployee       Role = "EMPLOYEE"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleHR             Role = "HR"
	RoleBoss           Role = "BOSS"
)

var AllRoles = []Role{RoleEmployee, RoleProjectManager, RoleHR, RoleBoss}

func (r Role) Valid() bool {
	for _, candidate := range AllRoles {
		if r == candidate {
			return true
		}
	}
	return false
}

// Roles is the set of roles a user holds. Order follows AllRoles once normalized.
type Roles []Role

// NormalizeRoles drops unknown and duplicate values and always includes EMPLOYEE.
func NormalizeRoles(values []string) Roles {
	seen := map[Role]bool{RoleEmployee: true}
	for _, value := range values {
		role := Role(strings.ToUpper(strings.TrimSpace(value)))
		if role.Valid() {
			seen[role] = true
		}
	}
	out := make(Roles, 0, len(seen))
	for _, role := range AllRoles {
		if seen[role] {
			out = append(out, role)
		}
	}
	return out
}

func (r Roles) Has(role Role) bool {
	for _, candidate := range r {
		if candidate == role {
			return true
		}
	}
	return false
}

// Appraisable reports whether the holder can be the subject of an appraisal cycle.
// A boss is never appraised.
func (r Roles) Appraisable() bool {
	return r.Has(RoleEmployee) && !r.Has(RoleBoss)
}

func (r Roles) Strings() []string {
	out := make([]string, len(r))
	for i, role := range r {
		out[i] = string(role)
	}
	return out
}

type UserContext struct {
	UserID   int64
	Username string
	Roles    Roles
}
