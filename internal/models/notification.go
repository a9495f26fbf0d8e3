package models

import (
	"encoding/json"
	"time"
)

type NotificationSeverity string

const (
	NotificationSeverityInfo    NotificationSeverity = "info"
	NotificationSeverityWarning NotificationSeverity = "warning"
	NotificationSeverityError   NotificationSeverity = "error"
)

type NotificationEvent string

const (
	NotificationEventInvitationSent     NotificationEvent = "invitation_sent"
	NotificationEventInvitationAccepted NotificationEvent = "invitation_accepted"
	NotificationEventInvitationRevoked  NotificationEvent = "invitation_revoked"
	NotificationEventInvitationsPurged  NotificationEvent = "invitations_purged"
	NotificationEventMemberRemoved      NotificationEvent = "member_removed"
)

type Notification struct {
	ID             string               `json:"id" db:"id"`
	OrganizationID *string              `json:"organization_id,omitempty" db:"organization_id"`
	EventType      NotificationEvent    `json:"event_type" db:"event_type"`
	Severity       NotificationSeverity `json:"severity" db:"severity"`
	Title          string               `json:"title" db:"title"`
	Message        string               `json:"message" db:"message"`
	Metadata       json.RawMessage      `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
	ReadAt         *time.Time           `json:"read_at,omitempty" db:"read_at"`
}
