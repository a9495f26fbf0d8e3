// Package invitation issues, verifies and consumes organization invitations.
package invitation

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/notification"
	"github.com/stanstork/stratum-orgs/internal/repository"
	"github.com/stanstork/stratum-orgs/internal/revalidate"
)

const DefaultTTL = 7 * 24 * time.Hour

type Service struct {
	store   repository.Store
	session authz.SessionProvider
	mailer  notification.InviteMailer
	events  notification.Service
	hook    revalidate.Hook
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

type Option func(*Service)

// WithClock replaces the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithEvents publishes invitation lifecycle notifications.
func WithEvents(events notification.Service) Option {
	return func(s *Service) { s.events = events }
}

func WithRevalidation(hook revalidate.Hook) Option {
	return func(s *Service) {
		if hook != nil {
			s.hook = hook
		}
	}
}

func NewService(store repository.Store, session authz.SessionProvider, mailer notification.InviteMailer, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		session: session,
		mailer:  mailer,
		hook:    revalidate.Noop{},
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  logger.With().Str("component", "invitation_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvitation issues one invitation covering roleIDs and emails the token to the invitee.
func (s *Service) CreateInvitation(ctx context.Context, email, orgID string, roleIDs []string) (Summary, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return Summary{}, errUnauthenticated()
	}

	email = models.NormalizeEmail(email)
	orgID = strings.TrimSpace(orgID)
	roleIDs = models.UniqueIDs(roleIDs)
	if email == "" || orgID == "" || len(roleIDs) == 0 {
		return Summary{}, apperr.New(apperr.KindInvalidInput, "email, organization and at least one role are required")
	}
	if !models.ValidEmail(email) {
		return Summary{}, apperr.New(apperr.KindInvalidInput, "invalid email address")
	}

	if _, err := authz.RequirePermission(ctx, s.store.Memberships(), caller.UserID, orgID, models.PermissionInviteUsers); err != nil {
		return Summary{}, err
	}

	org, err := s.store.Organizations().GetOrganizationByID(ctx, orgID)
	if err != nil {
		return Summary{}, s.lookupError(err, "organization not found", "failed to load organization")
	}

	member, err := s.isMember(ctx, email, orgID)
	if err != nil {
		return Summary{}, s.internal(err, "check membership", "failed to check membership")
	}
	if member {
		return Summary{}, apperr.New(apperr.KindConflict, "user is already a member of this organization")
	}

	now := s.now()
	if _, err := s.store.Invitations().FindPendingInvitation(ctx, email, orgID, now); err == nil {
		return Summary{}, errPendingExists()
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return Summary{}, s.internal(err, "find pending invitation", "failed to check pending invitations")
	}

	roles, err := s.store.Roles().GetRolesByIDs(ctx, roleIDs)
	if err != nil {
		return Summary{}, s.internal(err, "load roles", "failed to load roles")
	}
	if len(roles) != len(roleIDs) {
		return Summary{}, apperr.New(apperr.KindInvalidInput, "one or more roles do not exist")
	}

	token, tokenHash, err := GenerateToken()
	if err != nil {
		return Summary{}, s.internal(err, "generate token", "failed to create invitation")
	}

	var created models.Invitation
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		// An expired batch for the same invitee would otherwise hold the unique slot.
		if _, err := tx.Invitations().DeleteExpiredFor(ctx, email, orgID, now); err != nil {
			return err
		}
		var err error
		created, err = tx.Invitations().CreateInvitation(ctx, models.Invitation{
			TokenHash:      tokenHash,
			Email:          email,
			OrganizationID: orgID,
			InvitedBy:      &caller.UserID,
			RoleIDs:        roleIDs,
			ExpiresAt:      now.Add(s.ttl),
		})
		return err
	})
	if stderrors.Is(err, repository.ErrDuplicate) {
		return Summary{}, errPendingExists()
	}
	if err != nil {
		return Summary{}, s.internal(err, "create invitation", "failed to create invitation")
	}

	inviterName := s.inviterName(ctx, &caller.UserID)
	if err := s.mailer.SendInvitation(ctx, email, inviterName, org.Name, token); err != nil {
		s.logger.Warn().Err(err).Str("invitation_id", created.ID).Str("organization_id", orgID).Msg("invitation email failed, removing invitation")
		if _, derr := s.store.Invitations().DeleteInvitation(ctx, created.ID); derr != nil {
			s.logger.Error().Err(derr).Str("invitation_id", created.ID).Msg("failed to remove undelivered invitation")
		}
		return Summary{}, apperr.Wrap(apperr.KindDeliveryFailed, err, "failed to send invitation email")
	}

	roleNames := displayNames(org, orderRoles(roles, created.RoleIDs))
	s.logger.Info().
		Str("invitation_id", created.ID).
		Str("organization_id", orgID).
		Strs("roles", roleNames).
		Msg("invitation sent")

	s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(orgID))
	if s.events != nil {
		if err := s.events.NotifyInvitationSent(ctx, orgID, email, roleNames); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish invitation_sent")
		}
	}

	return Summary{
		ID:               created.ID,
		Email:            created.Email,
		OrganizationID:   orgID,
		OrganizationName: org.Name,
		Roles:            roleNames,
		ExpiresAt:        created.ExpiresAt,
		CreatedAt:        created.CreatedAt,
	}, nil
}

// VerifyInvitation describes the invitation behind token without changing anything.
func (s *Service) VerifyInvitation(ctx context.Context, token string) (Details, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Details{}, apperr.New(apperr.KindInvalidInput, "invitation token is required")
	}
	tokenHash := HashToken(token)

	inv, err := s.store.Invitations().GetValidInvitationByTokenHash(ctx, tokenHash, s.now())
	if stderrors.Is(err, repository.ErrNotFound) {
		// Only used to tell an expired link apart from an unknown one.
		if _, err := s.store.Invitations().GetInvitationByTokenHash(ctx, tokenHash); err == nil {
			return Details{}, errExpired()
		} else if !stderrors.Is(err, repository.ErrNotFound) {
			return Details{}, s.internal(err, "load invitation", "failed to load invitation")
		}
		return Details{}, apperr.New(apperr.KindNotFound, "invitation not found")
	}
	if err != nil {
		return Details{}, s.internal(err, "load invitation", "failed to load invitation")
	}

	org, err := s.store.Organizations().GetOrganizationByID(ctx, inv.OrganizationID)
	if err != nil {
		return Details{}, s.lookupError(err, "organization not found", "failed to load organization")
	}
	roles, err := s.batchRoles(ctx, inv)
	if err != nil {
		return Details{}, s.internal(err, "load roles", "failed to load roles")
	}
	names := displayNames(org, roles)

	userExists := true
	if _, err := s.store.Users().GetUserByEmail(ctx, inv.Email); stderrors.Is(err, repository.ErrNotFound) {
		userExists = false
	} else if err != nil {
		return Details{}, s.internal(err, "load user", "failed to load invitation")
	}

	return Details{
		Email:            inv.Email,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Roles:            names,
		RolesDisplay:     strings.Join(names, ", "),
		InviterName:      s.inviterName(ctx, inv.InvitedBy),
		ExpiresAt:        inv.ExpiresAt,
		UserExists:       userExists,
	}, nil
}

// AcceptInvitation grants the invitation's roles to the signed-in caller.
func (s *Service) AcceptInvitation(ctx context.Context, token string) (AcceptResult, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return AcceptResult{}, errUnauthenticated()
	}

	inv, err := s.loadForConsume(ctx, token)
	if err != nil {
		return AcceptResult{}, err
	}
	if inv.Email != caller.Email {
		return AcceptResult{}, apperr.Newf(apperr.KindEmailMismatch,
			"this invitation was sent to a different email address (%s)", maskEmail(inv.Email))
	}

	acc, err := s.consume(ctx, inv, caller.UserID, nil)
	if err != nil {
		return AcceptResult{}, err
	}

	memberships, err := s.store.Memberships().ListForUser(ctx, caller.UserID)
	if err != nil {
		return AcceptResult{}, s.internal(err, "list memberships", "failed to load memberships")
	}
	user, err := s.store.Users().GetUserByID(ctx, caller.UserID)
	if err != nil {
		return AcceptResult{}, s.internal(err, "load user", "failed to load user")
	}

	s.afterConsume(ctx, inv, acc)
	return AcceptResult{
		OrganizationID:       inv.OrganizationID,
		AddedRoles:           acc.addedRoleNames,
		Memberships:          memberships,
		ActiveOrganizationID: user.ActiveOrgID,
	}, nil
}

// CreateAccountFromInvitation registers the invitee and accepts the invitation in one transaction.
func (s *Service) CreateAccountFromInvitation(ctx context.Context, token, firstName, lastName, password string) (RegistrationResult, error) {
	inv, err := s.loadForConsume(ctx, token)
	if err != nil {
		return RegistrationResult{}, err
	}

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return RegistrationResult{}, apperr.New(apperr.KindInvalidInput, "first and last name are required")
	}
	if len(password) < models.MinPasswordLength {
		return RegistrationResult{}, apperr.Newf(apperr.KindInvalidInput, "password must be at least %d characters", models.MinPasswordLength)
	}

	if _, err := s.store.Users().GetUserByEmail(ctx, inv.Email); err == nil {
		return RegistrationResult{}, errAccountExists()
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return RegistrationResult{}, s.internal(err, "load user", "failed to create account")
	}

	passwordHash, err := repository.HashPassword(password)
	if err != nil {
		return RegistrationResult{}, s.internal(err, "hash password", "failed to create account")
	}

	acc, err := s.consume(ctx, inv, "", &newAccount{
		firstName:    firstName,
		lastName:     lastName,
		passwordHash: passwordHash,
	})
	if err != nil {
		return RegistrationResult{}, err
	}

	s.logger.Info().Str("user_id", acc.userID).Str("organization_id", inv.OrganizationID).Msg("account created from invitation")
	s.afterConsume(ctx, inv, acc)
	return RegistrationResult{
		UserID:     acc.userID,
		Email:      inv.Email,
		AddedRoles: acc.addedRoleNames,
	}, nil
}

// ListInvitations returns the pending invitations of an organization.
func (s *Service) ListInvitations(ctx context.Context, orgID string) ([]Summary, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return nil, errUnauthenticated()
	}
	if _, err := authz.RequirePermission(ctx, s.store.Memberships(), caller.UserID, orgID, models.PermissionInviteUsers); err != nil {
		return nil, err
	}
	org, err := s.store.Organizations().GetOrganizationByID(ctx, orgID)
	if err != nil {
		return nil, s.lookupError(err, "organization not found", "failed to load organization")
	}

	invitations, err := s.store.Invitations().ListPendingByOrganization(ctx, orgID, s.now())
	if err != nil {
		return nil, s.internal(err, "list invitations", "failed to list invitations")
	}
	return s.summaries(ctx, invitations, map[string]models.Organization{org.ID: org})
}

// ListInvitationsForEmail returns the pending invitations addressed to the caller.
func (s *Service) ListInvitationsForEmail(ctx context.Context) ([]Summary, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return nil, errUnauthenticated()
	}
	invitations, err := s.store.Invitations().ListPendingByEmail(ctx, caller.Email, s.now())
	if err != nil {
		return nil, s.internal(err, "list invitations", "failed to list invitations")
	}

	orgs := map[string]models.Organization{}
	for _, inv := range invitations {
		if _, ok := orgs[inv.OrganizationID]; ok {
			continue
		}
		org, err := s.store.Organizations().GetOrganizationByID(ctx, inv.OrganizationID)
		if err != nil {
			return nil, s.internal(err, "load organization", "failed to list invitations")
		}
		orgs[org.ID] = org
	}
	return s.summaries(ctx, invitations, orgs)
}

// RevokeInvitation deletes a pending invitation.
func (s *Service) RevokeInvitation(ctx context.Context, orgID, invitationID string) error {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return errUnauthenticated()
	}
	if _, err := authz.RequirePermission(ctx, s.store.Memberships(), caller.UserID, orgID, models.PermissionInviteUsers); err != nil {
		return err
	}

	inv, err := s.store.Invitations().GetInvitationByID(ctx, orgID, invitationID)
	if err != nil {
		return s.lookupError(err, "invitation not found", "failed to load invitation")
	}
	deleted, err := s.store.Invitations().DeleteInvitation(ctx, inv.ID)
	if err != nil {
		return s.internal(err, "delete invitation", "failed to revoke invitation")
	}
	if !deleted {
		return apperr.New(apperr.KindNotFound, "invitation not found")
	}

	s.logger.Info().Str("invitation_id", inv.ID).Str("organization_id", orgID).Msg("invitation revoked")
	s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(orgID))
	if s.events != nil {
		if err := s.events.NotifyInvitationRevoked(ctx, orgID, inv.Email); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish invitation_revoked")
		}
	}
	return nil
}

// ResendInvitation rotates the token, extends the expiry and sends the email again.
// The previous token stays valid if the email cannot be delivered.
func (s *Service) ResendInvitation(ctx context.Context, orgID, invitationID string) (Summary, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return Summary{}, errUnauthenticated()
	}
	if _, err := authz.RequirePermission(ctx, s.store.Memberships(), caller.UserID, orgID, models.PermissionInviteUsers); err != nil {
		return Summary{}, err
	}

	inv, err := s.store.Invitations().GetInvitationByID(ctx, orgID, invitationID)
	if err != nil {
		return Summary{}, s.lookupError(err, "invitation not found", "failed to load invitation")
	}
	org, err := s.store.Organizations().GetOrganizationByID(ctx, orgID)
	if err != nil {
		return Summary{}, s.lookupError(err, "organization not found", "failed to load organization")
	}

	token, tokenHash, err := GenerateToken()
	if err != nil {
		return Summary{}, s.internal(err, "generate token", "failed to resend invitation")
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.store.Invitations().UpdateToken(ctx, inv.ID, tokenHash, expiresAt); err != nil {
		return Summary{}, s.lookupError(err, "invitation not found", "failed to resend invitation")
	}

	if err := s.mailer.SendInvitation(ctx, inv.Email, s.inviterName(ctx, &caller.UserID), org.Name, token); err != nil {
		s.logger.Warn().Err(err).Str("invitation_id", inv.ID).Msg("invitation email failed, restoring previous token")
		if rerr := s.store.Invitations().UpdateToken(ctx, inv.ID, inv.TokenHash, inv.ExpiresAt); rerr != nil {
			s.logger.Error().Err(rerr).Str("invitation_id", inv.ID).Msg("failed to restore invitation token")
		}
		return Summary{}, apperr.Wrap(apperr.KindDeliveryFailed, err, "failed to send invitation email")
	}

	inv.ExpiresAt = expiresAt
	out, err := s.summaries(ctx, []models.Invitation{inv}, map[string]models.Organization{org.ID: org})
	if err != nil {
		return Summary{}, err
	}
	s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(orgID))
	return out[0], nil
}

// PurgeExpired removes every expired invitation and returns the count per organization.
func (s *Service) PurgeExpired(ctx context.Context) (map[string]int64, error) {
	counts, err := s.store.Invitations().PurgeExpired(ctx, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "purge expired invitations")
	}
	for orgID, count := range counts {
		s.logger.Info().Str("organization_id", orgID).Int64("count", count).Msg("expired invitations purged")
		if s.events != nil {
			if err := s.events.NotifyInvitationsPurged(ctx, orgID, count); err != nil {
				s.logger.Warn().Err(err).Str("organization_id", orgID).Msg("failed to publish invitations_purged")
			}
		}
		s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(orgID))
	}
	return counts, nil
}

type newAccount struct {
	firstName    string
	lastName     string
	passwordHash string
}

type acceptance struct {
	userID         string
	addedRoleNames []string
}

// loadForConsume resolves a token to an unexpired invitation.
func (s *Service) loadForConsume(ctx context.Context, token string) (models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Invitation{}, apperr.New(apperr.KindInvalidInput, "invitation token is required")
	}
	inv, err := s.store.Invitations().GetInvitationByTokenHash(ctx, HashToken(token))
	if stderrors.Is(err, repository.ErrNotFound) {
		return models.Invitation{}, apperr.New(apperr.KindInvalidToken, "this invitation link is invalid or has already been used")
	}
	if err != nil {
		return models.Invitation{}, s.internal(err, "load invitation", "failed to load invitation")
	}
	if inv.IsExpired(s.now()) {
		return models.Invitation{}, errExpired()
	}
	return inv, nil
}

// consume is the single acceptance routine. Inside one transaction it claims
// the batch by deleting it, optionally creates the user, grants every role and
// sets the active organization when the user has none.
func (s *Service) consume(ctx context.Context, inv models.Invitation, userID string, account *newAccount) (acceptance, error) {
	roles, err := s.batchRoles(ctx, inv)
	if err != nil {
		return acceptance{}, s.internal(err, "load roles", "failed to accept invitation")
	}
	org, err := s.store.Organizations().GetOrganizationByID(ctx, inv.OrganizationID)
	if err != nil {
		return acceptance{}, s.lookupError(err, "organization not found", "failed to accept invitation")
	}

	var acc acceptance
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		claimed, err := tx.Invitations().DeleteInvitation(ctx, inv.ID)
		if err != nil {
			return errors.Wrap(err, "claim invitation")
		}
		if !claimed {
			return apperr.New(apperr.KindAlreadyAccepted, "this invitation has already been accepted")
		}

		if account != nil {
			user, err := tx.Users().CreateUser(ctx, models.User{
				Email:        inv.Email,
				FirstName:    account.firstName,
				LastName:     account.lastName,
				PasswordHash: account.passwordHash,
				ActiveOrgID:  &inv.OrganizationID,
			})
			if stderrors.Is(err, repository.ErrDuplicate) {
				return errAccountExists()
			}
			if err != nil {
				return errors.Wrap(err, "create user")
			}
			userID = user.ID
		}

		added := make([]string, 0, len(roles))
		for _, role := range roles {
			created, err := tx.Memberships().Grant(ctx, userID, inv.OrganizationID, role.ID)
			if err != nil {
				return errors.Wrapf(err, "grant role %s", role.ID)
			}
			if created {
				added = append(added, org.RoleDisplayName(role.Name))
			}
		}

		if err := tx.Users().SetActiveOrganizationIfUnset(ctx, userID, inv.OrganizationID); err != nil {
			return errors.Wrap(err, "set active organization")
		}

		acc = acceptance{userID: userID, addedRoleNames: added}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if stderrors.As(err, &appErr) {
			return acceptance{}, appErr
		}
		return acceptance{}, s.internal(err, "accept invitation", "failed to accept invitation")
	}
	return acc, nil
}

func (s *Service) afterConsume(ctx context.Context, inv models.Invitation, acc acceptance) {
	s.logger.Info().
		Str("invitation_id", inv.ID).
		Str("organization_id", inv.OrganizationID).
		Str("user_id", acc.userID).
		Strs("added_roles", acc.addedRoleNames).
		Msg("invitation accepted")

	s.hook.Revalidate(ctx, revalidate.OrganizationSettingsPath(inv.OrganizationID))
	if s.events != nil {
		if err := s.events.NotifyInvitationAccepted(ctx, inv.OrganizationID, inv.Email, acc.addedRoleNames); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish invitation_accepted")
		}
	}
}

func (s *Service) isMember(ctx context.Context, email, orgID string) (bool, error) {
	user, err := s.store.Users().GetUserByEmail(ctx, email)
	if stderrors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	roles, err := s.store.Memberships().RolesFor(ctx, user.ID, orgID)
	if err != nil {
		return false, err
	}
	return len(roles) > 0, nil
}

func (s *Service) batchRoles(ctx context.Context, inv models.Invitation) ([]models.Role, error) {
	roles, err := s.store.Roles().GetRolesByIDs(ctx, inv.RoleIDs)
	if err != nil {
		return nil, err
	}
	return orderRoles(roles, inv.RoleIDs), nil
}

func (s *Service) inviterName(ctx context.Context, userID *string) string {
	if userID == nil {
		return ""
	}
	user, err := s.store.Users().GetUserByID(ctx, *userID)
	if err != nil {
		return ""
	}
	return user.DisplayName()
}

func (s *Service) summaries(ctx context.Context, invitations []models.Invitation, orgs map[string]models.Organization) ([]Summary, error) {
	allRoles, err := s.store.Roles().ListRoles(ctx)
	if err != nil {
		return nil, s.internal(err, "list roles", "failed to load roles")
	}
	byID := make(map[string]models.Role, len(allRoles))
	for _, role := range allRoles {
		byID[role.ID] = role
	}

	out := make([]Summary, 0, len(invitations))
	for _, inv := range invitations {
		org := orgs[inv.OrganizationID]
		names := make([]string, 0, len(inv.RoleIDs))
		for _, id := range inv.RoleIDs {
			if role, ok := byID[id]; ok {
				names = append(names, org.RoleDisplayName(role.Name))
			}
		}
		out = append(out, Summary{
			ID:               inv.ID,
			Email:            inv.Email,
			OrganizationID:   inv.OrganizationID,
			OrganizationName: org.Name,
			Roles:            names,
			ExpiresAt:        inv.ExpiresAt,
			CreatedAt:        inv.CreatedAt,
		})
	}
	return out, nil
}

// lookupError maps a missing row to NotFound and anything else to an internal error.
func (s *Service) lookupError(err error, notFound, failure string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, notFound)
	}
	return s.internal(err, failure, failure)
}

func (s *Service) internal(err error, op, message string) error {
	s.logger.Error().Err(err).Str("op", op).Msg(message)
	return apperr.Internal(errors.Wrap(err, op), message)
}

// orderRoles returns roles in the order of ids.
func orderRoles(roles []models.Role, ids []string) []models.Role {
	byID := make(map[string]models.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}
	out := make([]models.Role, 0, len(roles))
	for _, id := range ids {
		if role, ok := byID[id]; ok {
			out = append(out, role)
		}
	}
	return out
}

func displayNames(org models.Organization, roles []models.Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, org.RoleDisplayName(role.Name))
	}
	return names
}

func errUnauthenticated() error {
	return apperr.New(apperr.KindUnauthenticated, "you must be signed in")
}

func errExpired() error {
	return apperr.New(apperr.KindExpired, "this invitation has expired")
}

func errPendingExists() error {
	return apperr.New(apperr.KindConflict, "a pending invitation already exists for this email")
}

func errAccountExists() error {
	return apperr.New(apperr.KindConflict, "an account with this email already exists, please sign in to accept")
}
