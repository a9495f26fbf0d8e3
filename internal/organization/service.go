// Package organization manages organizations, their members and the caller's profile.
package organization

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/notification"
	"github.com/stanstork/stratum-orgs/internal/repository"
	"github.com/stanstork/stratum-orgs/internal/revalidate"
)

const maxNameLength = 120

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

type Service struct {
	store   repository.Store
	session authz.SessionProvider
	events  notification.Service
	hook    revalidate.Hook
	logger  zerolog.Logger
}

func NewService(store repository.Store, session authz.SessionProvider, events notification.Service, hook revalidate.Hook, logger zerolog.Logger) *Service {
	if hook == nil {
		hook = revalidate.Noop{}
	}
	return &Service{
		store:   store,
		session: session,
		events:  events,
		hook:    hook,
		logger:  logger.With().Str("component", "organization_service").Logger(),
	}
}

type Profile struct {
	User                 models.User         `json:"user"`
	Memberships          []models.Membership `json:"memberships"`
	ActiveOrganizationID *string             `json:"active_organization_id,omitempty"`
}

// CreateOrganization creates an organization and makes the caller its administrator.
func (s *Service) CreateOrganization(ctx context.Context, name string) (models.Organization, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return models.Organization{}, errUnauthenticated()
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return models.Organization{}, err
	}

	var org models.Organization
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		org, err = s.createWithUniqueSlug(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.Memberships().Grant(ctx, caller.UserID, org.ID, models.RoleAdministratorID); err != nil {
			return errors.Wrap(err, "grant administrator")
		}
		return tx.Users().SetActiveOrganizationIfUnset(ctx, caller.UserID, org.ID)
	})
	if err != nil {
		return models.Organization{}, s.internal(err, "create organization", "failed to create organization")
	}

	s.logger.Info().Str("organization_id", org.ID).Str("user_id", caller.UserID).Msg("organization created")
	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, orgID string) (models.Organization, error) {
	if _, err := s.requireMember(ctx, orgID); err != nil {
		return models.Organization{}, err
	}
	org, err := s.store.Organizations().GetOrganizationByID(ctx, orgID)
	if err != nil {
		return models.Organization{}, s.lookupError(err, "organization not found")
	}
	return org, nil
}

// UpdateOrganization renames the organization and sets or clears the helper role label.
func (s *Service) UpdateOrganization(ctx context.Context, orgID, name string, helperLabel *string) (models.Organization, error) {
	if _, err := s.requirePermission(ctx, orgID, models.PermissionManageOrganization); err != nil {
		return models.Organization{}, err
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return models.Organization{}, err
	}
	if helperLabel != nil {
		trimmed := strings.TrimSpace(*helperLabel)
		if len(trimmed) > maxNameLength {
			return models.Organization{}, apperr.New(apperr.KindInvalidInput, "helper label is too long")
		}
		if strings.ContainsFunc(trimmed, unicode.IsControl) {
			return models.Organization{}, apperr.New(apperr.KindInvalidInput, "helper label must not contain control characters")
		}
		helperLabel = &trimmed
	}

	org, err := s.store.Organizations().GetOrganizationByID(ctx, orgID)
	if err != nil {
		return models.Organization{}, s.lookupError(err, "organization not found")
	}
	org.Name = name
	org.HelperRoleLabel = helperLabel
	updated, err := s.store.Organizations().UpdateOrganization(ctx, org)
	if err != nil {
		return models.Organization{}, s.lookupError(err, "organization not found")
	}

	s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(orgID))
	return updated, nil
}

func (s *Service) ListMembers(ctx context.Context, orgID string) ([]models.Member, error) {
	if _, err := s.requireMember(ctx, orgID); err != nil {
		return nil, err
	}
	members, err := s.store.Memberships().ListMembers(ctx, orgID)
	if err != nil {
		return nil, s.internal(err, "list members", "failed to list members")
	}
	return members, nil
}

// UpdateMemberRoles replaces a member's roles.
func (s *Service) UpdateMemberRoles(ctx context.Context, orgID, userID string, roleIDs []string) ([]models.Role, error) {
	if _, err := s.requirePermission(ctx, orgID, models.PermissionManageUsers); err != nil {
		return nil, err
	}
	roleIDs = models.UniqueIDs(roleIDs)
	if len(roleIDs) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "at least one role is required, remove the member instead")
	}
	roles, err := s.store.Roles().GetRolesByIDs(ctx, roleIDs)
	if err != nil {
		return nil, s.internal(err, "load roles", "failed to load roles")
	}
	if len(roles) != len(roleIDs) {
		return nil, apperr.New(apperr.KindInvalidInput, "one or more roles do not exist")
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Memberships().RolesFor(ctx, userID, orgID)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return apperr.New(apperr.KindNotFound, "member not found")
		}
		if models.HasRole(current, models.RoleAdministratorID) && !models.HasRole(roles, models.RoleAdministratorID) {
			if err := ensureAnotherAdmin(ctx, tx, orgID); err != nil {
				return err
			}
		}
		return tx.Memberships().ReplaceRoles(ctx, userID, orgID, roleIDs)
	})
	if err != nil {
		return nil, s.passOrInternal(err, "update member roles", "failed to update roles")
	}

	s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(orgID))
	return roles, nil
}

// RemoveMember drops every role the user holds in the organization.
func (s *Service) RemoveMember(ctx context.Context, orgID, userID string) error {
	if _, err := s.requirePermission(ctx, orgID, models.PermissionManageUsers); err != nil {
		return err
	}

	var removed models.User
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Memberships().RolesFor(ctx, userID, orgID)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return apperr.New(apperr.KindNotFound, "member not found")
		}
		if models.HasRole(current, models.RoleAdministratorID) {
			if err := ensureAnotherAdmin(ctx, tx, orgID); err != nil {
				return err
			}
		}
		if _, err := tx.Memberships().RemoveMember(ctx, userID, orgID); err != nil {
			return err
		}

		removed, err = tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if removed.ActiveOrgID != nil && *removed.ActiveOrgID == orgID {
			return tx.Users().SetActiveOrganization(ctx, userID, nil)
		}
		return nil
	})
	if err != nil {
		return s.passOrInternal(err, "remove member", "failed to remove member")
	}

	s.logger.Info().Str("organization_id", orgID).Str("user_id", userID).Msg("member removed")
	s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(orgID))
	if s.events != nil {
		if err := s.events.NotifyMemberRemoved(ctx, orgID, removed.Email); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish member_removed")
		}
	}
	return nil
}

func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	if _, ok := s.session.Current(ctx); !ok {
		return nil, errUnauthenticated()
	}
	roles, err := s.store.Roles().ListRoles(ctx)
	if err != nil {
		return nil, s.internal(err, "list roles", "failed to list roles")
	}
	return roles, nil
}

// ListNotifications returns the organization's recent notifications.
func (s *Service) ListNotifications(ctx context.Context, orgID string, limit int) ([]models.Notification, error) {
	if _, err := s.requireMember(ctx, orgID); err != nil {
		return nil, err
	}
	if s.events == nil {
		return []models.Notification{}, nil
	}
	notifications, err := s.events.ListRecent(ctx, orgID, limit)
	if err != nil {
		return nil, s.internal(err, "list notifications", "failed to list notifications")
	}
	return notifications, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, orgID, notificationID string) (models.Notification, error) {
	if _, err := s.requireMember(ctx, orgID); err != nil {
		return models.Notification{}, err
	}
	if s.events == nil {
		return models.Notification{}, apperr.New(apperr.KindNotFound, "notification not found")
	}
	notif, err := s.events.MarkRead(ctx, orgID, notificationID)
	if err != nil {
		return models.Notification{}, s.lookupError(err, "notification not found")
	}
	return notif, nil
}

// GetProfile returns the caller with all memberships.
func (s *Service) GetProfile(ctx context.Context) (Profile, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return Profile{}, errUnauthenticated()
	}
	user, err := s.store.Users().GetUserByID(ctx, caller.UserID)
	if err != nil {
		return Profile{}, s.lookupError(err, "user not found")
	}
	return s.profile(ctx, user)
}

func (s *Service) UpdateProfile(ctx context.Context, firstName, lastName string) (Profile, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return Profile{}, errUnauthenticated()
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return Profile{}, apperr.New(apperr.KindInvalidInput, "first and last name are required")
	}
	if len(firstName) > maxNameLength || len(lastName) > maxNameLength {
		return Profile{}, apperr.New(apperr.KindInvalidInput, "name is too long")
	}

	user, err := s.store.Users().UpdateProfile(ctx, caller.UserID, firstName, lastName)
	if err != nil {
		return Profile{}, s.lookupError(err, "user not found")
	}
	return s.profile(ctx, user)
}

// SetActiveOrganization points the caller's default organization at orgID.
func (s *Service) SetActiveOrganization(ctx context.Context, orgID string) (Profile, error) {
	caller, err := s.requireMember(ctx, orgID)
	if err != nil {
		return Profile{}, err
	}
	if err := s.store.Users().SetActiveOrganization(ctx, caller.UserID, &orgID); err != nil {
		return Profile{}, s.lookupError(err, "user not found")
	}
	return s.GetProfile(ctx)
}

func (s *Service) profile(ctx context.Context, user models.User) (Profile, error) {
	memberships, err := s.store.Memberships().ListForUser(ctx, user.ID)
	if err != nil {
		return Profile{}, s.internal(err, "list memberships", "failed to load memberships")
	}
	return Profile{User: user, Memberships: memberships, ActiveOrganizationID: user.ActiveOrgID}, nil
}

func (s *Service) requireMember(ctx context.Context, orgID string) (authz.Identity, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return authz.Identity{}, errUnauthenticated()
	}
	if _, err := authz.RequireMember(ctx, s.store.Memberships(), caller.UserID, orgID); err != nil {
		return authz.Identity{}, err
	}
	return caller, nil
}

func (s *Service) requirePermission(ctx context.Context, orgID string, perm models.Permission) (authz.Identity, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return authz.Identity{}, errUnauthenticated()
	}
	if _, err := authz.RequirePermission(ctx, s.store.Memberships(), caller.UserID, orgID, perm); err != nil {
		return authz.Identity{}, err
	}
	return caller, nil
}

// createWithUniqueSlug retries with a numeric suffix while the slug is taken.
func (s *Service) createWithUniqueSlug(ctx context.Context, tx repository.Store, name string) (models.Organization, error) {
	base := Slugify(name)
	for i := 0; i < 50; i++ {
		slug := base
		if i > 0 {
			slug = fmt.Sprintf("%s-%d", base, i+1)
		}
		org, err := tx.Organizations().CreateOrganization(ctx, name, slug)
		if stderrors.Is(err, repository.ErrDuplicate) {
			continue
		}
		return org, err
	}
	return models.Organization{}, apperr.New(apperr.KindConflict, "could not derive a unique organization slug")
}

func (s *Service) lookupError(err error, notFound string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, notFound)
	}
	return s.internal(err, "lookup", "internal error")
}

// passOrInternal returns application errors unchanged and hides everything else.
func (s *Service) passOrInternal(err error, op, message string) error {
	var appErr *apperr.Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "member not found")
	}
	return s.internal(err, op, message)
}

func (s *Service) internal(err error, op, message string) error {
	var appErr *apperr.Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error().Err(err).Str("op", op).Msg(message)
	return apperr.Internal(errors.Wrap(err, op), message)
}

func ensureAnotherAdmin(ctx context.Context, tx repository.Store, orgID string) error {
	admins, err := tx.Memberships().CountWithRole(ctx, orgID, models.RoleAdministratorID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperr.New(apperr.KindConflict, "an organization needs at least one administrator")
	}
	return nil
}

// Slugify lower-cases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return "organization"
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	return slug
}

func validateName(name string) error {
	if name == "" {
		return apperr.New(apperr.KindInvalidInput, "name is required")
	}
	if len(name) > maxNameLength {
		return apperr.New(apperr.KindInvalidInput, "name is too long")
	}
	if strings.ContainsFunc(name, unicode.IsControl) {
		return apperr.New(apperr.KindInvalidInput, "name must not contain control characters")
	}
	return nil
}

func errUnauthenticated() error {
	return apperr.New(apperr.KindUnauthenticated, "you must be signed in")
}
