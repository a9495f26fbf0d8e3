package invitation

import (
	"time"

	"github.com/stanstork/stratum-orgs/internal/models"
)

// Summary describes one pending invitation batch.
type Summary struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name,omitempty"`
	Roles            []string  `json:"roles"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Details is what an invitee sees before accepting.
type Details struct {
	Email            string    `json:"email"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	Roles            []string  `json:"roles"`
	RolesDisplay     string    `json:"roles_display"`
	InviterName      string    `json:"inviter_name"`
	ExpiresAt        time.Time `json:"expires_at"`
	// UserExists tells the client whether to offer registration or a direct accept.
	UserExists bool `json:"user_exists"`
}

// AcceptResult carries what the client needs to refresh its session state.
type AcceptResult struct {
	OrganizationID       string              `json:"organization_id"`
	AddedRoles           []string            `json:"added_roles"`
	Memberships          []models.Membership `json:"memberships"`
	ActiveOrganizationID *string             `json:"active_organization_id,omitempty"`
}

type RegistrationResult struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	AddedRoles []string `json:"added_roles"`
}
