package auth

import "context"

const (
	PermDirectoryRead      = "directory.read"
	PermAppraisalsRead     = "appraisals.read"
	PermAppraisalsManage   = "appraisals.manage"
	PermAppraisalsSelf     = "appraisals.self"
	PermQuestionsRead      = "questions.read"
	PermReviewsWrite       = "reviews.write"
	PermAppraisalsFinalize = "appraisals.finalize"
	PermAuditRead          = "audit.read"
)

var DefaultPermissions = []string{
	PermDirectoryRead,
	PermAppraisalsRead,
	PermAppraisalsManage,
	PermAppraisalsSelf,
	PermQuestionsRead,
	PermReviewsWrite,
	PermAppraisalsFinalize,
	PermAuditRead,
}

var RolePermissions = map[Role][]string{
	RoleEmployee: {
		PermAppraisalsSelf,
		PermQuestionsRead,
	},
	RoleProjectManager: {
		PermDirectoryRead,
		PermQuestionsRead,
		PermReviewsWrite,
	},
	RoleHR: {
		PermDirectoryRead,
		PermAppraisalsRead,
		PermAppraisalsManage,
		PermAuditRead,
	},
	RoleBoss: {
		PermDirectoryRead,
		PermAppraisalsRead,
		PermAppraisalsFinalize,
		PermAuditRead,
	},
}

// StaticPermissions resolves permissions from the compiled role table.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(ctx context.Context, roles Roles, permission string) (bool, error) {
	return Allowed(roles, permission), nil
}

func Allowed(roles Roles, permission string) bool {
	for _, role := range roles {
		for _, perm := range RolePermissions[role] {
			if perm == permission {
				return true
			}
		}
	}
	return false
}
