package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/repository"
)

// Notifier fans a stored notification out to an external channel.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type Event struct {
	OrganizationID string
	Event          models.NotificationEvent
	Severity       models.NotificationSeverity
	Title          string
	Message        string
	Metadata       map[string]interface{}
}

type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyInvitationSent(ctx context.Context, orgID, email string, roleNames []string) error
	NotifyInvitationAccepted(ctx context.Context, orgID, email string, roleNames []string) error
	NotifyInvitationRevoked(ctx context.Context, orgID, email string) error
	NotifyInvitationsPurged(ctx context.Context, orgID string, count int64) error
	NotifyMemberRemoved(ctx context.Context, orgID, email string) error
	ListRecent(ctx context.Context, orgID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, orgID, notificationID string) (models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	if evt.Event == "" {
		return models.Notification{}, fmt.Errorf("event type is required")
	}
	if evt.Severity == "" {
		evt.Severity = models.NotificationSeverityInfo
	}
	title := strings.TrimSpace(evt.Title)
	message := strings.TrimSpace(evt.Message)
	if title == "" {
		title = string(evt.Event)
	}
	params := repository.CreateNotificationParams{
		Event:    evt.Event,
		Severity: evt.Severity,
		Title:    title,
		Message:  message,
		Metadata: evt.Metadata,
	}
	if oid := strings.TrimSpace(evt.OrganizationID); oid != "" {
		params.OrganizationID = &oid
	}

	notif, err := s.repo.Create(ctx, params)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("failed to persist notification")
		return models.Notification{}, err
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			s.logger.Warn().
				Err(err).
				Str("notification_id", notif.ID).
				Str("channel", channelName(notifier)).
				Msg("notifier failed")
		}
	}
	return notif, nil
}

func (s *service) NotifyInvitationSent(ctx context.Context, orgID, email string, roleNames []string) error {
	return s.publishFor(ctx, orgID, Event{
		Event:    models.NotificationEventInvitationSent,
		Title:    "Invitation sent",
		Message:  fmt.Sprintf("%s was invited as %s.", email, joinRoles(roleNames)),
		Metadata: map[string]interface{}{"email": email, "roles": roleNames},
	})
}

func (s *service) NotifyInvitationAccepted(ctx context.Context, orgID, email string, roleNames []string) error {
	return s.publishFor(ctx, orgID, Event{
		Event:    models.NotificationEventInvitationAccepted,
		Title:    "Invitation accepted",
		Message:  fmt.Sprintf("%s joined as %s.", email, joinRoles(roleNames)),
		Metadata: map[string]interface{}{"email": email, "roles": roleNames},
	})
}

func (s *service) NotifyInvitationRevoked(ctx context.Context, orgID, email string) error {
	return s.publishFor(ctx, orgID, Event{
		Event:    models.NotificationEventInvitationRevoked,
		Title:    "Invitation revoked",
		Message:  fmt.Sprintf("The invitation for %s was revoked.", email),
		Metadata: map[string]interface{}{"email": email},
	})
}

// NotifyInvitationsPurged is a no-op when nothing was removed.
func (s *service) NotifyInvitationsPurged(ctx context.Context, orgID string, count int64) error {
	if count <= 0 {
		return nil
	}
	return s.publishFor(ctx, orgID, Event{
		Event:    models.NotificationEventInvitationsPurged,
		Severity: models.NotificationSeverityWarning,
		Title:    "Expired invitations removed",
		Message:  fmt.Sprintf("%d expired invitation(s) were removed.", count),
		Metadata: map[string]interface{}{"count": count},
	})
}

func (s *service) NotifyMemberRemoved(ctx context.Context, orgID, email string) error {
	return s.publishFor(ctx, orgID, Event{
		Event:    models.NotificationEventMemberRemoved,
		Title:    "Member removed",
		Message:  fmt.Sprintf("%s was removed from the organization.", email),
		Metadata: map[string]interface{}{"email": email},
	})
}

// publishFor scopes evt to an organization; every membership event needs one.
func (s *service) publishFor(ctx context.Context, orgID string, evt Event) error {
	if strings.TrimSpace(orgID) == "" {
		return fmt.Errorf("organization id is required for %s", evt.Event)
	}
	evt.OrganizationID = orgID
	_, err := s.Publish(ctx, evt)
	return err
}

func (s *service) ListRecent(ctx context.Context, orgID string, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, orgID, limit)
}

func (s *service) MarkRead(ctx context.Context, orgID, notificationID string) (models.Notification, error) {
	return s.repo.MarkRead(ctx, orgID, notificationID)
}

func joinRoles(names []string) string {
	if len(names) == 0 {
		return "member"
	}
	return strings.Join(names, ", ")
}

func channelName(n Notifier) string {
	if v, ok := n.(fmt.Stringer); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
