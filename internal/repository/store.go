package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/stanstork/stratum-orgs/internal/models"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate")
)

// Store is the root data access interface. Repositories obtained from a Store
// handed to WithTx's callback run inside that transaction.
type Store interface {
	Users() UserRepository
	Organizations() OrganizationRepository
	Roles() RoleRepository
	Memberships() MembershipRepository
	Invitations() InvitationRepository
	Properties() PropertyRepository
	Notifications() NotificationRepository

	// WithTx runs fn in a transaction; fn returning an error rolls it back.
	// Calling WithTx on a transactional Store joins the running transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, firstName, lastName string) (models.User, error)
	SetActiveOrganization(ctx context.Context, userID string, orgID *string) error
	// SetActiveOrganizationIfUnset only writes when the user has no active organization.
	SetActiveOrganizationIfUnset(ctx context.Context, userID, orgID string) error
}

type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, name, slug string) (models.Organization, error)
	GetOrganizationByID(ctx context.Context, orgID string) (models.Organization, error)
	UpdateOrganization(ctx context.Context, org models.Organization) (models.Organization, error)
}

type RoleRepository interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	// GetRolesByIDs returns the roles that exist among ids, ordered by name.
	GetRolesByIDs(ctx context.Context, ids []string) ([]models.Role, error)
}

type MembershipRepository interface {
	// Grant creates a (user, organization, role) grant and reports whether it was new.
	Grant(ctx context.Context, userID, orgID, roleID string) (bool, error)
	ReplaceRoles(ctx context.Context, userID, orgID string, roleIDs []string) error
	RemoveMember(ctx context.Context, userID, orgID string) (int64, error)
	RolesFor(ctx context.Context, userID, orgID string) ([]models.Role, error)
	ListForUser(ctx context.Context, userID string) ([]models.Membership, error)
	ListMembers(ctx context.Context, orgID string) ([]models.Member, error)
	CountWithRole(ctx context.Context, orgID, roleID string) (int, error)
}

type InvitationRepository interface {
	// CreateInvitation stores the batch and its role rows. Callers run it inside WithTx.
	CreateInvitation(ctx context.Context, inv models.Invitation) (models.Invitation, error)
	GetInvitationByTokenHash(ctx context.Context, tokenHash string) (models.Invitation, error)
	GetValidInvitationByTokenHash(ctx context.Context, tokenHash string, now time.Time) (models.Invitation, error)
	GetInvitationByID(ctx context.Context, orgID, invitationID string) (models.Invitation, error)
	FindPendingInvitation(ctx context.Context, email, orgID string, now time.Time) (models.Invitation, error)
	ListPendingByOrganization(ctx context.Context, orgID string, now time.Time) ([]models.Invitation, error)
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]models.Invitation, error)
	UpdateToken(ctx context.Context, invitationID, tokenHash string, expiresAt time.Time) error
	// DeleteInvitation removes the batch and reports whether this call removed it.
	DeleteInvitation(ctx context.Context, invitationID string) (bool, error)
	DeleteExpiredFor(ctx context.Context, email, orgID string, now time.Time) (int64, error)
	// PurgeExpired removes every expired batch and returns the count per organization.
	PurgeExpired(ctx context.Context, now time.Time) (map[string]int64, error)
}

type PropertyRepository interface {
	CreateField(ctx context.Context, field models.PropertyField) (models.PropertyField, error)
	ListFields(ctx context.Context, orgID string) ([]models.PropertyField, error)
	GetField(ctx context.Context, orgID, fieldID string) (models.PropertyField, error)
	DeleteField(ctx context.Context, orgID, fieldID string) error
	GetValues(ctx context.Context, orgID, userID string) ([]models.PropertyValue, error)
	UpsertValue(ctx context.Context, fieldID, userID, value string) error
	DeleteValue(ctx context.Context, fieldID, userID string) error
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore implements Store on top of database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
	q  DBTX
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Users() UserRepository                 { return &userRepository{db: s.q} }
func (s *PostgresStore) Organizations() OrganizationRepository { return &organizationRepository{db: s.q} }
func (s *PostgresStore) Roles() RoleRepository                 { return &roleRepository{db: s.q} }
func (s *PostgresStore) Memberships() MembershipRepository     { return &membershipRepository{db: s.q} }
func (s *PostgresStore) Invitations() InvitationRepository     { return &invitationRepository{db: s.q} }
func (s *PostgresStore) Properties() PropertyRepository        { return &propertyRepository{db: s.q} }
func (s *PostgresStore) Notifications() NotificationRepository { return &notificationRepository{db: s.q} }

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(&PostgresStore{db: s.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapError translates driver errors into the repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrDuplicate
		case "22P02", "23503": // malformed uuid, or a reference to a missing row
			return ErrNotFound
		}
	}
	return err
}

func nullableString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	val := ns.String
	return &val
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}
