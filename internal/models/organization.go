package models

import "time"

type Organization struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	HelperRoleLabel *string   `json:"helper_role_label,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RoleDisplayName substitutes the organization's helper label for the helper role.
func (o Organization) RoleDisplayName(roleName string) string {
	return DisplayRoleName(roleName, o.HelperRoleLabel)
}

// Membership is one organization a user belongs to, with display role names.
type Membership struct {
	OrganizationID   string   `json:"organization_id"`
	OrganizationName string   `json:"organization_name"`
	Roles            []string `json:"roles"`
}

// Member is one user of an organization with the roles granted there.
type Member struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Roles     []Role `json:"roles"`
}
