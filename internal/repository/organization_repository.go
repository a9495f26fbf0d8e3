package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/stanstork/stratum-orgs/internal/models"
)

type organizationRepository struct {
	db DBTX
}

const organizationColumns = `id, name, slug, helper_role_label, created_at, updated_at`

// CreateOrganization returns ErrDuplicate when the slug is taken. The conflict is
// absorbed by the insert so a surrounding transaction stays usable for a retry.
func (r *organizationRepository) CreateOrganization(ctx context.Context, name, slug string) (models.Organization, error) {
	const query = `
		INSERT INTO orgs.organizations (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO NOTHING
		RETURNING ` + organizationColumns

	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, strings.TrimSpace(name), slug))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Organization{}, ErrDuplicate
	}
	return org, mapError(err)
}

func (r *organizationRepository) GetOrganizationByID(ctx context.Context, orgID string) (models.Organization, error) {
	const query = `
		SELECT ` + organizationColumns + `
		FROM orgs.organizations
		WHERE id = $1`

	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, orgID))
	return org, mapError(err)
}

func (r *organizationRepository) UpdateOrganization(ctx context.Context, org models.Organization) (models.Organization, error) {
	const query = `
		UPDATE orgs.organizations
		SET name = $2, helper_role_label = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + organizationColumns

	updated, err := scanOrganization(r.db.QueryRowContext(ctx, query,
		org.ID,
		strings.TrimSpace(org.Name),
		nullableString(org.HelperRoleLabel),
	))
	return updated, mapError(err)
}

func scanOrganization(row rowScanner) (models.Organization, error) {
	var (
		org         models.Organization
		helperLabel sql.NullString
	)
	if err := row.Scan(&org.ID, &org.Name, &org.Slug, &helperLabel, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return models.Organization{}, err
	}
	org.HelperRoleLabel = stringPtr(helperLabel)
	return org, nil
}
