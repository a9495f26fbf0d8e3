package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/stanstork/stratum-orgs/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for unknown users and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type userRepository struct {
	db DBTX
}

const userColumns = `id, email, first_name, last_name, password_hash, active_org_id, is_active, created_at, updated_at`

func (u *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO orgs.users (email, first_name, last_name, password_hash, active_org_id, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING ` + userColumns

	row := u.db.QueryRowContext(ctx, query,
		models.NormalizeEmail(user.Email),
		strings.TrimSpace(user.FirstName),
		strings.TrimSpace(user.LastName),
		user.PasswordHash,
		nullableString(user.ActiveOrgID),
	)
	created, err := scanUser(row)
	return created, mapError(err)
}

func (u *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM orgs.users
		WHERE id = $1 AND deleted_at IS NULL`

	user, err := scanUser(u.db.QueryRowContext(ctx, query, userID))
	return user, mapError(err)
}

func (u *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM orgs.users
		WHERE lower(email) = $1 AND deleted_at IS NULL`

	user, err := scanUser(u.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	return user, mapError(err)
}

func (u *userRepository) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (models.User, error) {
	const query = `
		UPDATE orgs.users
		SET first_name = $2, last_name = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns

	user, err := scanUser(u.db.QueryRowContext(ctx, query, userID, strings.TrimSpace(firstName), strings.TrimSpace(lastName)))
	return user, mapError(err)
}

func (u *userRepository) SetActiveOrganization(ctx context.Context, userID string, orgID *string) error {
	const query = `
		UPDATE orgs.users
		SET active_org_id = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := u.db.ExecContext(ctx, query, userID, nullableString(orgID))
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

func (u *userRepository) SetActiveOrganizationIfUnset(ctx context.Context, userID, orgID string) error {
	const query = `
		UPDATE orgs.users
		SET active_org_id = $2, updated_at = now()
		WHERE id = $1 AND active_org_id IS NULL AND deleted_at IS NULL`

	_, err := u.db.ExecContext(ctx, query, userID, orgID)
	return mapError(err)
}

// Authenticate checks an email/password pair against the stored bcrypt hash.
func Authenticate(ctx context.Context, users UserRepository, email, password string) (models.User, error) {
	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// HashPassword returns the bcrypt hash stored in password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user        models.User
		activeOrgID sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&activeOrgID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	user.ActiveOrgID = stringPtr(activeOrgID)
	return user, nil
}
