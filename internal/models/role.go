package models

import (
	"slices"
	"strings"
)

type Permission string

const (
	PermissionInviteUsers        Permission = "users:invite"
	PermissionManageUsers        Permission = "users:manage"
	PermissionManageOrganization Permission = "organization:manage"
	PermissionManageProperties   Permission = "properties:manage"
)

const (
	RoleAdministrator     = "Administrator"
	RoleOperationsManager = "Einsatzverwaltung"
	// RoleHelper is the default low-privilege role. Organizations may rename it for display.
	RoleHelper = "Helfer"
)

// Seeded role ids, kept in sync with the initial migration.
const (
	RoleAdministratorID     = "6f1c7a52-9d1e-4c1b-8a4f-0d3b2c1a0001"
	RoleOperationsManagerID = "6f1c7a52-9d1e-4c1b-8a4f-0d3b2c1a0002"
	RoleHelperID            = "6f1c7a52-9d1e-4c1b-8a4f-0d3b2c1a0003"
)

type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

func (r Role) Has(p Permission) bool {
	return slices.Contains(r.Permissions, p)
}

// DefaultRoles returns the roles every installation starts with.
func DefaultRoles() []Role {
	return []Role{
		{
			ID:   RoleAdministratorID,
			Name: RoleAdministrator,
			Permissions: []Permission{
				PermissionInviteUsers,
				PermissionManageUsers,
				PermissionManageOrganization,
				PermissionManageProperties,
			},
		},
		{
			ID:          RoleOperationsManagerID,
			Name:        RoleOperationsManager,
			Permissions: []Permission{PermissionInviteUsers, PermissionManageProperties},
		},
		{
			ID:          RoleHelperID,
			Name:        RoleHelper,
			Permissions: []Permission{},
		},
	}
}

func HasPermission(roles []Role, p Permission) bool {
	for _, role := range roles {
		if role.Has(p) {
			return true
		}
	}
	return false
}

func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names
}

func HasRole(roles []Role, roleID string) bool {
	for _, role := range roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

// DisplayRoleName returns the label shown for roleName given an optional helper label.
func DisplayRoleName(roleName string, helperLabel *string) string {
	if roleName == RoleHelper && helperLabel != nil && strings.TrimSpace(*helperLabel) != "" {
		return strings.TrimSpace(*helperLabel)
	}
	return roleName
}

// UniqueIDs trims ids, drops blanks and keeps the first occurrence of each.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
