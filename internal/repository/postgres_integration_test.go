//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/invitation"
	"github.com/stanstork/stratum-orgs/internal/migration"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T, ctx context.Context) *repository.PostgresStore {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "orgs",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := sql.Open("postgres", fmt.Sprintf("postgres://test:test@%s:%s/orgs?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.Up(db))
	return repository.NewPostgresStore(db)
}

type nopMailer struct {
	mu     sync.Mutex
	tokens []string
}

func (m *nopMailer) SendInvitation(_ context.Context, _, _, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, token)
	return nil
}

func TestIntegration_Postgres(t *testing.T) {
	ctx := context.Background()
	store := setupPostgres(t, ctx)

	roles, err := store.Roles().ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	org, err := store.Organizations().CreateOrganization(ctx, "Wache", "wache")
	require.NoError(t, err)
	admin, err := store.Users().CreateUser(ctx, models.User{Email: "Admin@Example.com", FirstName: "A", LastName: "B", PasswordHash: "x"})
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", admin.Email)

	t.Run("lookup errors map to sentinels", func(t *testing.T) {
		_, err := store.Users().GetUserByID(ctx, "not-a-uuid")
		require.ErrorIs(t, err, repository.ErrNotFound)

		_, err = store.Organizations().CreateOrganization(ctx, "Wache", "wache")
		require.ErrorIs(t, err, repository.ErrDuplicate)

		_, err = store.Users().CreateUser(ctx, models.User{Email: "ADMIN@example.com", PasswordHash: "x"})
		require.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("grants are idempotent", func(t *testing.T) {
		created, err := store.Memberships().Grant(ctx, admin.ID, org.ID, models.RoleAdministratorID)
		require.NoError(t, err)
		require.True(t, created)
		created, err = store.Memberships().Grant(ctx, admin.ID, org.ID, models.RoleAdministratorID)
		require.NoError(t, err)
		require.False(t, created)
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		var orgID string
		err := store.WithTx(ctx, func(tx repository.Store) error {
			created, err := tx.Organizations().CreateOrganization(ctx, "Temp", "temp")
			require.NoError(t, err)
			orgID = created.ID
			return boom
		})
		require.ErrorIs(t, err, boom)
		_, err = store.Organizations().GetOrganizationByID(ctx, orgID)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("invitation batches keep role order and are unique per email", func(t *testing.T) {
		now := time.Now()
		inv, err := store.Invitations().CreateInvitation(ctx, models.Invitation{
			TokenHash:      "hash-1",
			Email:          "new@example.com",
			OrganizationID: org.ID,
			InvitedBy:      &admin.ID,
			RoleIDs:        []string{models.RoleHelperID, models.RoleOperationsManagerID},
			ExpiresAt:      now.Add(time.Hour),
		})
		require.NoError(t, err)

		loaded, err := store.Invitations().GetValidInvitationByTokenHash(ctx, "hash-1", now)
		require.NoError(t, err)
		require.Equal(t, []string{models.RoleHelperID, models.RoleOperationsManagerID}, loaded.RoleIDs)

		_, err = store.Invitations().CreateInvitation(ctx, models.Invitation{
			TokenHash:      "hash-2",
			Email:          "NEW@example.com",
			OrganizationID: org.ID,
			RoleIDs:        []string{models.RoleHelperID},
			ExpiresAt:      now.Add(time.Hour),
		})
		require.ErrorIs(t, err, repository.ErrDuplicate)

		deleted, err := store.Invitations().DeleteInvitation(ctx, inv.ID)
		require.NoError(t, err)
		require.True(t, deleted)
		deleted, err = store.Invitations().DeleteInvitation(ctx, inv.ID)
		require.NoError(t, err)
		require.False(t, deleted)
	})

	t.Run("purge counts per organization", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		for i, email := range []string{"a@example.com", "b@example.com"} {
			_, err := store.Invitations().CreateInvitation(ctx, models.Invitation{
				TokenHash:      fmt.Sprintf("expired-%d", i),
				Email:          email,
				OrganizationID: org.ID,
				RoleIDs:        []string{models.RoleHelperID},
				ExpiresAt:      past,
			})
			require.NoError(t, err)
		}
		counts, err := store.Invitations().PurgeExpired(ctx, time.Now())
		require.NoError(t, err)
		require.Equal(t, map[string]int64{org.ID: 2}, counts)
	})
}

func TestIntegration_ConcurrentAcceptGrantsOnce(t *testing.T) {
	ctx := context.Background()
	store := setupPostgres(t, ctx)
	mailer := &nopMailer{}
	svc := invitation.NewService(store, authz.ContextSession{}, mailer, zerolog.Nop())

	org, err := store.Organizations().CreateOrganization(ctx, "Wache", "wache")
	require.NoError(t, err)
	admin, err := store.Users().CreateUser(ctx, models.User{Email: "admin@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = store.Memberships().Grant(ctx, admin.ID, org.ID, models.RoleAdministratorID)
	require.NoError(t, err)
	invitee, err := store.Users().CreateUser(ctx, models.User{Email: "invitee@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	asAdmin := authz.WithIdentity(ctx, authz.Identity{UserID: admin.ID, Email: admin.Email})
	_, err = svc.CreateInvitation(asAdmin, invitee.Email, org.ID, []string{models.RoleHelperID, models.RoleOperationsManagerID})
	require.NoError(t, err)
	token := mailer.tokens[0]

	asInvitee := authz.WithIdentity(ctx, authz.Identity{UserID: invitee.ID, Email: invitee.Email})
	const attempts = 5
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AcceptInvitation(asInvitee, token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		kind := apperr.KindOf(err)
		require.True(t, kind == apperr.KindAlreadyAccepted || kind == apperr.KindInvalidToken, "unexpected error %v", err)
	}
	require.Equal(t, 1, succeeded)

	granted, err := store.Memberships().RolesFor(ctx, invitee.ID, org.ID)
	require.NoError(t, err)
	require.Len(t, granted, 2)
}
