package repository

import (
	"context"

	"github.com/lib/pq"
	"github.com/stanstork/stratum-orgs/internal/models"
)

type roleRepository struct {
	db DBTX
}

func (r *roleRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	const query = `
		SELECT id, name, permissions
		FROM orgs.roles
		ORDER BY name`

	return queryRoles(ctx, r.db, query)
}

func (r *roleRepository) GetRolesByIDs(ctx context.Context, ids []string) ([]models.Role, error) {
	if len(ids) == 0 {
		return []models.Role{}, nil
	}

	// Ids that are not valid uuids can never match, so the text comparison keeps
	// a malformed id from failing the whole lookup.
	const query = `
		SELECT id, name, permissions
		FROM orgs.roles
		WHERE id::text = ANY($1)
		ORDER BY name`

	return queryRoles(ctx, r.db, query, pq.Array(ids))
}

func queryRoles(ctx context.Context, db DBTX, query string, args ...interface{}) ([]models.Role, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanRole(row rowScanner) (models.Role, error) {
	var (
		role  models.Role
		perms pq.StringArray
	)
	if err := row.Scan(&role.ID, &role.Name, &perms); err != nil {
		return models.Role{}, err
	}
	role.Permissions = make([]models.Permission, 0, len(perms))
	for _, p := range perms {
		role.Permissions = append(role.Permissions, models.Permission(p))
	}
	return role, nil
}
