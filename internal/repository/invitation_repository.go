package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/stanstork/stratum-orgs/internal/models"
)

type invitationRepository struct {
	db DBTX
}

const invitationSelect = `
	SELECT b.id, b.token_hash, b.email, b.organization_id, b.invited_by, b.expires_at, b.created_at,
		ARRAY(SELECT ir.role_id::text FROM orgs.invitation_roles ir WHERE ir.batch_id = b.id ORDER BY ir.position) AS role_ids
	FROM orgs.invitation_batches b`

func (r *invitationRepository) CreateInvitation(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	const batchQuery = `
		INSERT INTO orgs.invitation_batches (token_hash, email, organization_id, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	const rolesQuery = `
		INSERT INTO orgs.invitation_roles (batch_id, role_id, position)
		SELECT $1, r.id, r.ord
		FROM unnest($2::uuid[]) WITH ORDINALITY AS r(id, ord)`

	inv.Email = models.NormalizeEmail(inv.Email)
	inv.RoleIDs = models.UniqueIDs(inv.RoleIDs)

	err := r.db.QueryRowContext(ctx, batchQuery,
		inv.TokenHash,
		inv.Email,
		inv.OrganizationID,
		nullableString(inv.InvitedBy),
		inv.ExpiresAt,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return models.Invitation{}, mapError(err)
	}

	if _, err := r.db.ExecContext(ctx, rolesQuery, inv.ID, pq.Array(inv.RoleIDs)); err != nil {
		return models.Invitation{}, mapError(err)
	}
	return inv, nil
}

func (r *invitationRepository) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (models.Invitation, error) {
	const query = invitationSelect + `
		WHERE b.token_hash = $1`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, tokenHash))
	return inv, mapError(err)
}

func (r *invitationRepository) GetValidInvitationByTokenHash(ctx context.Context, tokenHash string, now time.Time) (models.Invitation, error) {
	const query = invitationSelect + `
		WHERE b.token_hash = $1 AND b.expires_at > $2`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, tokenHash, now))
	return inv, mapError(err)
}

func (r *invitationRepository) GetInvitationByID(ctx context.Context, orgID, invitationID string) (models.Invitation, error) {
	const query = invitationSelect + `
		WHERE b.id = $1 AND b.organization_id = $2`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, invitationID, orgID))
	return inv, mapError(err)
}

func (r *invitationRepository) FindPendingInvitation(ctx context.Context, email, orgID string, now time.Time) (models.Invitation, error) {
	const query = invitationSelect + `
		WHERE lower(b.email) = $1 AND b.organization_id = $2 AND b.expires_at > $3`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, models.NormalizeEmail(email), orgID, now))
	return inv, mapError(err)
}

func (r *invitationRepository) ListPendingByOrganization(ctx context.Context, orgID string, now time.Time) ([]models.Invitation, error) {
	const query = invitationSelect + `
		WHERE b.organization_id = $1 AND b.expires_at > $2
		ORDER BY b.created_at DESC`

	return r.list(ctx, query, orgID, now)
}

func (r *invitationRepository) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]models.Invitation, error) {
	const query = invitationSelect + `
		WHERE lower(b.email) = $1 AND b.expires_at > $2
		ORDER BY b.created_at DESC`

	return r.list(ctx, query, models.NormalizeEmail(email), now)
}

func (r *invitationRepository) UpdateToken(ctx context.Context, invitationID, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE orgs.invitation_batches
		SET token_hash = $2, expires_at = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, invitationID, tokenHash, expiresAt)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invitationRepository) DeleteInvitation(ctx context.Context, invitationID string) (bool, error) {
	const query = `
		DELETE FROM orgs.invitation_batches
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, invitationID)
	if err != nil {
		return false, mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *invitationRepository) DeleteExpiredFor(ctx context.Context, email, orgID string, now time.Time) (int64, error) {
	const query = `
		DELETE FROM orgs.invitation_batches
		WHERE lower(email) = $1 AND organization_id = $2 AND expires_at <= $3`

	result, err := r.db.ExecContext(ctx, query, models.NormalizeEmail(email), orgID, now)
	if err != nil {
		return 0, mapError(err)
	}
	return result.RowsAffected()
}

func (r *invitationRepository) PurgeExpired(ctx context.Context, now time.Time) (map[string]int64, error) {
	const query = `
		WITH purged AS (
			DELETE FROM orgs.invitation_batches
			WHERE expires_at <= $1
			RETURNING organization_id
		)
		SELECT organization_id, count(*)
		FROM purged
		GROUP BY organization_id`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			orgID string
			count int64
		)
		if err := rows.Scan(&orgID, &count); err != nil {
			return nil, err
		}
		counts[orgID] = count
	}
	return counts, rows.Err()
}

func (r *invitationRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, ErrNotFound) {
			return []models.Invitation{}, nil
		}
		return nil, mapped
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func scanInvitation(row rowScanner) (models.Invitation, error) {
	var (
		inv       models.Invitation
		invitedBy sql.NullString
		roleIDs   pq.StringArray
	)
	err := row.Scan(
		&inv.ID,
		&inv.TokenHash,
		&inv.Email,
		&inv.OrganizationID,
		&invitedBy,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&roleIDs,
	)
	if err != nil {
		return models.Invitation{}, err
	}
	inv.InvitedBy = stringPtr(invitedBy)
	inv.RoleIDs = []string(roleIDs)
	if inv.RoleIDs == nil {
		inv.RoleIDs = []string{}
	}
	return inv, nil
}
