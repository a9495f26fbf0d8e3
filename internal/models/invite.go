package models

import "time"

// Invitation is one issued invite: a single token covering one or more roles
// in one organization for one email address.
type Invitation struct {
	ID             string    `json:"id"`
	TokenHash      string    `json:"-"`
	Email          string    `json:"email"`
	OrganizationID string    `json:"organization_id"`
	InvitedBy      *string   `json:"invited_by,omitempty"`
	RoleIDs        []string  `json:"role_ids"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsExpired determines whether the invitation has expired.
func (i Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
