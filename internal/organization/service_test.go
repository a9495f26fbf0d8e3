package organization

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/notification"
	"github.com/stanstork/stratum-orgs/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	paths []string
}

func (h *recordingHook) Revalidate(_ context.Context, path string) {
	h.paths = append(h.paths, path)
}

type fixture struct {
	t      *testing.T
	store  *memory.Store
	hook   *recordingHook
	svc    *Service
	admin  models.User
	helper models.User
	org    models.Organization
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, store: memory.NewStore(), hook: &recordingHook{}}
	events := notification.NewService(f.store.Notifications(), zerolog.Nop())
	f.svc = NewService(f.store, authz.ContextSession{}, events, f.hook, zerolog.Nop())

	f.admin = f.createUser("admin@example.com", "Ada", "Admin")
	f.helper = f.createUser("helper@example.com", "Hal", "Helper")

	org, err := f.svc.CreateOrganization(f.as(f.admin), "Feuerwehr Nord")
	require.NoError(t, err)
	f.org = org

	_, err = f.store.Memberships().Grant(context.Background(), f.helper.ID, org.ID, models.RoleHelperID)
	require.NoError(t, err)
	return f
}

func (f *fixture) createUser(email, first, last string) models.User {
	f.t.Helper()
	user, err := f.store.Users().CreateUser(context.Background(), models.User{
		Email: email, FirstName: first, LastName: last, PasswordHash: "x",
	})
	require.NoError(f.t, err)
	return user
}

func (f *fixture) as(user models.User) context.Context {
	return authz.WithIdentity(context.Background(), authz.Identity{UserID: user.ID, Email: user.Email})
}

func TestCreateOrganization(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, "feuerwehr-nord", f.org.Slug)

	roles, err := f.store.Memberships().RolesFor(context.Background(), f.admin.ID, f.org.ID)
	require.NoError(t, err)
	require.True(t, models.HasRole(roles, models.RoleAdministratorID))

	user, err := f.store.Users().GetUserByID(context.Background(), f.admin.ID)
	require.NoError(t, err)
	require.NotNil(t, user.ActiveOrgID)
	require.Equal(t, f.org.ID, *user.ActiveOrgID)

	t.Run("slug collision gets a suffix", func(t *testing.T) {
		second, err := f.svc.CreateOrganization(f.as(f.admin), "Feuerwehr  Nord!")
		require.NoError(t, err)
		require.Equal(t, "feuerwehr-nord-2", second.Slug)

		user, err := f.store.Users().GetUserByID(context.Background(), f.admin.ID)
		require.NoError(t, err)
		require.Equal(t, f.org.ID, *user.ActiveOrgID)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := f.svc.CreateOrganization(f.as(f.admin), "   ")
		require.True(t, apperr.Is(err, apperr.KindInvalidInput))
	})

	t.Run("rejects line breaks in the name", func(t *testing.T) {
		_, err := f.svc.CreateOrganization(f.as(f.admin), "Acme\r\nBcc: someone@example.com")
		require.True(t, apperr.Is(err, apperr.KindInvalidInput))
		_, err = f.svc.CreateOrganization(f.as(f.admin), "Acme\tNord")
		require.True(t, apperr.Is(err, apperr.KindInvalidInput))
	})

	t.Run("requires a session", func(t *testing.T) {
		_, err := f.svc.CreateOrganization(context.Background(), "x")
		require.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "acme-gmbh-co", Slugify("  ACME GmbH & Co. "))
	require.Equal(t, "organization", Slugify("!!!"))
}

func TestGetOrganizationMembersOnly(t *testing.T) {
	f := newFixture(t)
	outsider := f.createUser("out@example.com", "Otto", "Out")

	org, err := f.svc.GetOrganization(f.as(f.helper), f.org.ID)
	require.NoError(t, err)
	require.Equal(t, f.org.Name, org.Name)

	_, err = f.svc.GetOrganization(f.as(outsider), f.org.ID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestUpdateOrganization(t *testing.T) {
	f := newFixture(t)
	label := "  Volunteer "

	updated, err := f.svc.UpdateOrganization(f.as(f.admin), f.org.ID, "Feuerwehr Süd", &label)
	require.NoError(t, err)
	require.Equal(t, "Feuerwehr Süd", updated.Name)
	require.Equal(t, "Volunteer", *updated.HelperRoleLabel)
	require.Equal(t, []string{"/organizations/" + f.org.ID + "/settings"}, f.hook.paths)

	profile, err := f.svc.GetProfile(f.as(f.helper))
	require.NoError(t, err)
	require.Len(t, profile.Memberships, 1)
	require.Equal(t, []string{"Volunteer"}, profile.Memberships[0].Roles)

	_, err = f.svc.UpdateOrganization(f.as(f.helper), f.org.ID, "Nope", nil)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.UpdateOrganization(f.as(f.admin), f.org.ID, "Nord\r\nReply-To: x@example.com", nil)
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))
	bad := "Helfer\nX-Extra: 1"
	_, err = f.svc.UpdateOrganization(f.as(f.admin), f.org.ID, "Nord", &bad)
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestUpdateMemberRoles(t *testing.T) {
	f := newFixture(t)

	roles, err := f.svc.UpdateMemberRoles(f.as(f.admin), f.org.ID, f.helper.ID,
		[]string{models.RoleOperationsManagerID, models.RoleHelperID, models.RoleHelperID})
	require.NoError(t, err)
	require.Len(t, roles, 2)

	current, err := f.store.Memberships().RolesFor(context.Background(), f.helper.ID, f.org.ID)
	require.NoError(t, err)
	require.True(t, models.HasRole(current, models.RoleOperationsManagerID))

	t.Run("unknown role", func(t *testing.T) {
		_, err := f.svc.UpdateMemberRoles(f.as(f.admin), f.org.ID, f.helper.ID, []string{"nope"})
		require.True(t, apperr.Is(err, apperr.KindInvalidInput))
	})

	t.Run("empty role list", func(t *testing.T) {
		_, err := f.svc.UpdateMemberRoles(f.as(f.admin), f.org.ID, f.helper.ID, nil)
		require.True(t, apperr.Is(err, apperr.KindInvalidInput))
	})

	t.Run("non member", func(t *testing.T) {
		outsider := f.createUser("out@example.com", "Otto", "Out")
		_, err := f.svc.UpdateMemberRoles(f.as(f.admin), f.org.ID, outsider.ID, []string{models.RoleHelperID})
		require.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("last administrator keeps the role", func(t *testing.T) {
		_, err := f.svc.UpdateMemberRoles(f.as(f.admin), f.org.ID, f.admin.ID, []string{models.RoleHelperID})
		require.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("requires users:manage", func(t *testing.T) {
		_, err := f.svc.UpdateMemberRoles(f.as(f.helper), f.org.ID, f.admin.ID, []string{models.RoleHelperID})
		require.True(t, apperr.Is(err, apperr.KindForbidden))
	})
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Users().SetActiveOrganization(ctx, f.helper.ID, &f.org.ID))

	require.NoError(t, f.svc.RemoveMember(f.as(f.admin), f.org.ID, f.helper.ID))

	roles, err := f.store.Memberships().RolesFor(ctx, f.helper.ID, f.org.ID)
	require.NoError(t, err)
	require.Empty(t, roles)

	user, err := f.store.Users().GetUserByID(ctx, f.helper.ID)
	require.NoError(t, err)
	require.Nil(t, user.ActiveOrgID)

	notifications, err := f.svc.ListNotifications(f.as(f.admin), f.org.ID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, models.NotificationEventMemberRemoved, notifications[0].EventType)

	err = f.svc.RemoveMember(f.as(f.admin), f.org.ID, f.helper.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	err = f.svc.RemoveMember(f.as(f.admin), f.org.ID, f.admin.ID)
	require.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestMarkNotificationRead(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.RemoveMember(f.as(f.admin), f.org.ID, f.helper.ID))

	notifications, err := f.svc.ListNotifications(f.as(f.admin), f.org.ID, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	read, err := f.svc.MarkNotificationRead(f.as(f.admin), f.org.ID, notifications[0].ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	_, err = f.svc.MarkNotificationRead(f.as(f.helper), f.org.ID, notifications[0].ID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestProfile(t *testing.T) {
	f := newFixture(t)

	profile, err := f.svc.UpdateProfile(f.as(f.helper), " Halvard ", "Helper")
	require.NoError(t, err)
	require.Equal(t, "Halvard", profile.User.FirstName)

	_, err = f.svc.UpdateProfile(f.as(f.helper), "", "Helper")
	require.True(t, apperr.Is(err, apperr.KindInvalidInput))

	profile, err = f.svc.SetActiveOrganization(f.as(f.helper), f.org.ID)
	require.NoError(t, err)
	require.Equal(t, f.org.ID, *profile.ActiveOrganizationID)

	other, err := f.svc.CreateOrganization(f.as(f.admin), "Other")
	require.NoError(t, err)
	_, err = f.svc.SetActiveOrganization(f.as(f.helper), other.ID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.GetProfile(context.Background())
	require.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestListRolesAndMembers(t *testing.T) {
	f := newFixture(t)

	roles, err := f.svc.ListRoles(f.as(f.helper))
	require.NoError(t, err)
	require.Len(t, roles, 3)

	members, err := f.svc.ListMembers(f.as(f.helper), f.org.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}
