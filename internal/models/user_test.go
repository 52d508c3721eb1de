package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"editor role", RoleEditor, true},
		{"device role", RoleDevice, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "operator", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	editor := &User{Role: RoleEditor}
	device := &User{Role: RoleDevice}
	viewer := &User{Role: RoleViewer}
	unknown := &User{Role: "ghost"}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"admin can manage users", admin, ActionManageUsers, true},
		{"admin can delete places", admin, ActionDeletePlaces, true},

		{"editor cannot manage users", editor, ActionManageUsers, false},
		{"editor can edit places", editor, ActionEditPlaces, true},
		{"editor can delete places", editor, ActionDeletePlaces, true},
		{"editor can report location", editor, ActionReportLocation, true},

		{"device can report location", device, ActionReportLocation, true},
		{"device can view places", device, ActionViewPlaces, true},
		{"device cannot edit places", device, ActionEditPlaces, false},

		{"viewer can view places", viewer, ActionViewPlaces, true},
		{"viewer cannot edit places", viewer, ActionEditPlaces, false},
		{"viewer cannot report location", viewer, ActionReportLocation, false},

		{"unknown role has nothing", unknown, ActionViewPlaces, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
