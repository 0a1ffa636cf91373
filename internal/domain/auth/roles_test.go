package auth

import (
	"context"
	"reflect"
	"testing"
)

func TestNormalizeRoles(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  Roles
	}{
		{name: "empty implies employee", input: nil, want: Roles{RoleEmployee}},
		{name: "dedupes and orders", input: []string{"hr", "EMPLOYEE", "HR"}, want: Roles{RoleEmployee, RoleHR}},
		{name: "drops unknown", input: []string{"ADMIN", "BOSS"}, want: Roles{RoleEmployee, RoleBoss}},
		{name: "pm", input: []string{"PROJECT_MANAGER"}, want: Roles{RoleEmployee, RoleProjectManager}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeRoles(tc.input); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("NormalizeRoles(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestAppraisable(t *testing.T) {
	if !(Roles{RoleEmployee, RoleProjectManager}).Appraisable() {
		t.Fatal("employee with pm role should be appraisable")
	}
	if (Roles{RoleEmployee, RoleBoss}).Appraisable() {
		t.Fatal("boss must never be appraisable")
	}
	if (Roles{RoleHR}).Appraisable() {
		t.Fatal("role set without EMPLOYEE is not appraisable")
	}
}

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}
	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestStaticPermissions(t *testing.T) {
	tests := []struct {
		roles Roles
		perm  string
		want  bool
	}{
		{Roles{RoleEmployee}, PermAppraisalsSelf, true},
		{Roles{RoleEmployee}, PermAppraisalsManage, false},
		{Roles{RoleEmployee, RoleHR}, PermAppraisalsManage, true},
		{Roles{RoleEmployee, RoleProjectManager}, PermReviewsWrite, true},
		{Roles{RoleEmployee, RoleProjectManager}, PermAppraisalsFinalize, false},
		{Roles{RoleEmployee, RoleBoss}, PermAppraisalsFinalize, true},
		{Roles{RoleEmployee, RoleBoss}, PermDirectoryRead, true},
	}
	for _, tc := range tests {
		got, err := StaticPermissions{}.HasPermission(context.Background(), tc.roles, tc.perm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("HasPermission(%v, %s) = %v, want %v", tc.roles, tc.perm, got, tc.want)
		}
	}
}
