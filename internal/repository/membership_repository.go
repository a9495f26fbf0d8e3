package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/stanstork/stratum-orgs/internal/models"
)

type membershipRepository struct {
	db DBTX
}

func (r *membershipRepository) Grant(ctx context.Context, userID, orgID, roleID string) (bool, error) {
	const query = `
		INSERT INTO orgs.user_organization_roles (user_id, organization_id, role_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, organization_id, role_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, userID, orgID, roleID)
	if err != nil {
		return false, mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ReplaceRoles swaps the member's grants for roleIDs. Callers run it inside WithTx.
func (r *membershipRepository) ReplaceRoles(ctx context.Context, userID, orgID string, roleIDs []string) error {
	const deleteQuery = `
		DELETE FROM orgs.user_organization_roles
		WHERE user_id = $1 AND organization_id = $2`
	const insertQuery = `
		INSERT INTO orgs.user_organization_roles (user_id, organization_id, role_id)
		SELECT $1, $2, unnest($3::uuid[])
		ON CONFLICT (user_id, organization_id, role_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, deleteQuery, userID, orgID); err != nil {
		return mapError(err)
	}
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, insertQuery, userID, orgID, pq.Array(roleIDs))
	return mapError(err)
}

func (r *membershipRepository) RemoveMember(ctx context.Context, userID, orgID string) (int64, error) {
	const query = `
		DELETE FROM orgs.user_organization_roles
		WHERE user_id = $1 AND organization_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, orgID)
	if err != nil {
		return 0, mapError(err)
	}
	return result.RowsAffected()
}

func (r *membershipRepository) RolesFor(ctx context.Context, userID, orgID string) ([]models.Role, error) {
	const query = `
		SELECT r.id, r.name, r.permissions
		FROM orgs.user_organization_roles uor
		JOIN orgs.roles r ON r.id = uor.role_id
		WHERE uor.user_id = $1 AND uor.organization_id = $2
		ORDER BY r.name`

	roles, err := queryRoles(ctx, r.db, query, userID, orgID)
	if errors.Is(err, ErrNotFound) {
		return []models.Role{}, nil
	}
	return roles, err
}

func (r *membershipRepository) ListForUser(ctx context.Context, userID string) ([]models.Membership, error) {
	const query = `
		SELECT o.id, o.name, o.helper_role_label, array_agg(r.name ORDER BY r.name)
		FROM orgs.user_organization_roles uor
		JOIN orgs.organizations o ON o.id = uor.organization_id
		JOIN orgs.roles r ON r.id = uor.role_id
		WHERE uor.user_id = $1
		GROUP BY o.id, o.name, o.helper_role_label
		ORDER BY o.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		var (
			m           models.Membership
			helperLabel sql.NullString
			roleNames   pq.StringArray
		)
		if err := rows.Scan(&m.OrganizationID, &m.OrganizationName, &helperLabel, &roleNames); err != nil {
			return nil, err
		}
		label := stringPtr(helperLabel)
		m.Roles = make([]string, 0, len(roleNames))
		for _, name := range roleNames {
			m.Roles = append(m.Roles, models.DisplayRoleName(name, label))
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *membershipRepository) ListMembers(ctx context.Context, orgID string) ([]models.Member, error) {
	const query = `
		SELECT u.id, u.email, u.first_name, u.last_name, r.id, r.name, r.permissions
		FROM orgs.user_organization_roles uor
		JOIN orgs.users u ON u.id = uor.user_id
		JOIN orgs.roles r ON r.id = uor.role_id
		WHERE uor.organization_id = $1 AND u.deleted_at IS NULL
		ORDER BY u.email, r.name`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	members := []models.Member{}
	index := map[string]int{}
	for rows.Next() {
		var (
			member models.Member
			role   models.Role
			perms  pq.StringArray
		)
		if err := rows.Scan(&member.UserID, &member.Email, &member.FirstName, &member.LastName, &role.ID, &role.Name, &perms); err != nil {
			return nil, err
		}
		for _, p := range perms {
			role.Permissions = append(role.Permissions, models.Permission(p))
		}

		i, ok := index[member.UserID]
		if !ok {
			i = len(members)
			index[member.UserID] = i
			members = append(members, member)
		}
		members[i].Roles = append(members[i].Roles, role)
	}
	return members, rows.Err()
}

func (r *membershipRepository) CountWithRole(ctx context.Context, orgID, roleID string) (int, error) {
	const query = `
		SELECT count(*)
		FROM orgs.user_organization_roles
		WHERE organization_id = $1 AND role_id = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, orgID, roleID).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}
