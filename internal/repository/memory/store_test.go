package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	org, err := store.Organizations().CreateOrganization(ctx, "Red Cross", "red-cross")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithTx(ctx, func(tx repository.Store) error {
		_, err := tx.Users().CreateUser(ctx, models.User{Email: "ada@example.com", PasswordHash: "x"})
		require.NoError(t, err)
		_, err = tx.Invitations().CreateInvitation(ctx, models.Invitation{
			TokenHash:      "hash",
			Email:          "bob@example.com",
			OrganizationID: org.ID,
			RoleIDs:        []string{models.RoleHelperID},
			ExpiresAt:      time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Users().GetUserByEmail(ctx, "ada@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Invitations().GetInvitationByTokenHash(ctx, "hash")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvitationUniquePerEmailAndOrganization(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	org, err := store.Organizations().CreateOrganization(ctx, "Red Cross", "red-cross")
	require.NoError(t, err)

	inv := models.Invitation{
		TokenHash:      "first",
		Email:          "Bob@Example.com",
		OrganizationID: org.ID,
		RoleIDs:        []string{models.RoleHelperID},
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	created, err := store.Invitations().CreateInvitation(ctx, inv)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", created.Email)

	inv.TokenHash = "second"
	inv.Email = "bob@example.com"
	_, err = store.Invitations().CreateInvitation(ctx, inv)
	require.ErrorIs(t, err, repository.ErrDuplicate)

	deleted, err := store.Invitations().DeleteInvitation(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = store.Invitations().DeleteInvitation(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestPurgeExpiredCountsPerOrganization(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now()

	orgA, err := store.Organizations().CreateOrganization(ctx, "A", "a")
	require.NoError(t, err)
	orgB, err := store.Organizations().CreateOrganization(ctx, "B", "b")
	require.NoError(t, err)

	for i, tc := range []struct {
		org     string
		email   string
		expires time.Time
	}{
		{orgA.ID, "one@example.com", now.Add(-time.Hour)},
		{orgA.ID, "two@example.com", now.Add(-time.Minute)},
		{orgB.ID, "one@example.com", now.Add(time.Hour)},
	} {
		_, err := store.Invitations().CreateInvitation(ctx, models.Invitation{
			TokenHash:      string(rune('a' + i)),
			Email:          tc.email,
			OrganizationID: tc.org,
			RoleIDs:        []string{models.RoleHelperID},
			ExpiresAt:      tc.expires,
		})
		require.NoError(t, err)
	}

	counts, err := store.Invitations().PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{orgA.ID: 2}, counts)

	pending, err := store.Invitations().ListPendingByEmail(ctx, "one@example.com", now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, orgB.ID, pending[0].OrganizationID)
}

func TestMembershipsUseHelperLabel(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	org, err := store.Organizations().CreateOrganization(ctx, "Red Cross", "red-cross")
	require.NoError(t, err)
	label := "Volunteer"
	org.HelperRoleLabel = &label
	_, err = store.Organizations().UpdateOrganization(ctx, org)
	require.NoError(t, err)

	user, err := store.Users().CreateUser(ctx, models.User{Email: "ada@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	created, err := store.Memberships().Grant(ctx, user.ID, org.ID, models.RoleHelperID)
	require.NoError(t, err)
	require.True(t, created)
	created, err = store.Memberships().Grant(ctx, user.ID, org.ID, models.RoleHelperID)
	require.NoError(t, err)
	require.False(t, created)

	memberships, err := store.Memberships().ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	require.Equal(t, []string{"Volunteer"}, memberships[0].Roles)
}

func TestWritesOutsideTxSurviveRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	done := make(chan error, 1)
	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx repository.Store) error {
		go func() {
			_, err := store.Users().CreateUser(ctx, models.User{Email: "outside@example.com", PasswordHash: "x"})
			done <- err
		}()
		select {
		case <-done:
			t.Error("write outside the transaction ran before it finished")
		case <-time.After(50 * time.Millisecond):
		}
		_, err := tx.Users().CreateUser(ctx, models.User{Email: "inside@example.com", PasswordHash: "x"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, <-done)

	_, err = store.Users().GetUserByEmail(ctx, "outside@example.com")
	require.NoError(t, err)
	_, err = store.Users().GetUserByEmail(ctx, "inside@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
