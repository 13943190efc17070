package rbac

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		orgRole string
		want    Role
	}{
		{"admin", RoleAdmin},
		{"Admin", RoleAdmin},
		{"  ADMIN  ", RoleAdmin},
		{"member", RoleMember},
		{"", RoleMember},
		{"engineer", RoleOrg},
		{"billing_manager", RoleOrg},
	}
	for _, tt := range tests {
		if got := Classify(tt.orgRole); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.orgRole, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		role string
		want Role
	}{
		{"admin", RoleAdmin},
		{"org", RoleOrg},
		{"member", RoleMember},
		{"", RoleMember},
		{"bogus", RoleMember},
	}
	for _, tt := range tests {
		if got := Normalize(tt.role); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestCan(t *testing.T) {
	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleAdmin, ActionList, true},
		{RoleAdmin, ActionViewContent, true},
		{RoleAdmin, ActionShare, true},
		{RoleAdmin, ActionDownload, true},
		{RoleAdmin, ActionBypassParticipantFilter, true},

		{RoleOrg, ActionList, true},
		{RoleOrg, ActionViewContent, true},
		{RoleOrg, ActionShare, true},
		{RoleOrg, ActionDownload, true},
		{RoleOrg, ActionBypassParticipantFilter, false},

		{RoleMember, ActionList, true},
		{RoleMember, ActionViewContent, false},
		{RoleMember, ActionShare, false},
		{RoleMember, ActionDownload, false},
		{RoleMember, ActionBypassParticipantFilter, false},
	}
	for _, tt := range tests {
		if got := Can(tt.role, tt.action); got != tt.want {
			t.Errorf("Can(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}
