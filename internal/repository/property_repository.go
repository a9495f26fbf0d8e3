package repository

import (
	"context"

	"github.com/lib/pq"
	"github.com/stanstork/stratum-orgs/internal/models"
)

type propertyRepository struct {
	db DBTX
}

const propertyFieldColumns = `id, organization_id, key, label, field_type, options, required, created_at`

func (r *propertyRepository) CreateField(ctx context.Context, field models.PropertyField) (models.PropertyField, error) {
	const query = `
		INSERT INTO orgs.user_property_fields (organization_id, key, label, field_type, options, required)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + propertyFieldColumns

	options := field.Options
	if options == nil {
		options = []string{}
	}
	created, err := scanPropertyField(r.db.QueryRowContext(ctx, query,
		field.OrganizationID,
		field.Key,
		field.Label,
		string(field.Type),
		pq.Array(options),
		field.Required,
	))
	return created, mapError(err)
}

func (r *propertyRepository) ListFields(ctx context.Context, orgID string) ([]models.PropertyField, error) {
	const query = `
		SELECT ` + propertyFieldColumns + `
		FROM orgs.user_property_fields
		WHERE organization_id = $1
		ORDER BY created_at, key`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	fields := []models.PropertyField{}
	for rows.Next() {
		field, err := scanPropertyField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

func (r *propertyRepository) GetField(ctx context.Context, orgID, fieldID string) (models.PropertyField, error) {
	const query = `
		SELECT ` + propertyFieldColumns + `
		FROM orgs.user_property_fields
		WHERE id = $1 AND organization_id = $2`

	field, err := scanPropertyField(r.db.QueryRowContext(ctx, query, fieldID, orgID))
	return field, mapError(err)
}

func (r *propertyRepository) DeleteField(ctx context.Context, orgID, fieldID string) error {
	const query = `
		DELETE FROM orgs.user_property_fields
		WHERE id = $1 AND organization_id = $2`

	result, err := r.db.ExecContext(ctx, query, fieldID, orgID)
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

func (r *propertyRepository) GetValues(ctx context.Context, orgID, userID string) ([]models.PropertyValue, error) {
	const query = `
		SELECT v.field_id, v.user_id, v.value, v.updated_at
		FROM orgs.user_property_values v
		JOIN orgs.user_property_fields f ON f.id = v.field_id
		WHERE f.organization_id = $1 AND v.user_id = $2
		ORDER BY f.created_at, f.key`

	rows, err := r.db.QueryContext(ctx, query, orgID, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	values := []models.PropertyValue{}
	for rows.Next() {
		var v models.PropertyValue
		if err := rows.Scan(&v.FieldID, &v.UserID, &v.Value, &v.UpdatedAt); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *propertyRepository) UpsertValue(ctx context.Context, fieldID, userID, value string) error {
	const query = `
		INSERT INTO orgs.user_property_values (field_id, user_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (field_id, user_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	_, err := r.db.ExecContext(ctx, query, fieldID, userID, value)
	return mapError(err)
}

func (r *propertyRepository) DeleteValue(ctx context.Context, fieldID, userID string) error {
	const query = `
		DELETE FROM orgs.user_property_values
		WHERE field_id = $1 AND user_id = $2`

	_, err := r.db.ExecContext(ctx, query, fieldID, userID)
	return mapError(err)
}

func scanPropertyField(row rowScanner) (models.PropertyField, error) {
	var (
		field     models.PropertyField
		fieldType string
		options   pq.StringArray
	)
	err := row.Scan(
		&field.ID,
		&field.OrganizationID,
		&field.Key,
		&field.Label,
		&fieldType,
		&options,
		&field.Required,
		&field.CreatedAt,
	)
	if err != nil {
		return models.PropertyField{}, err
	}
	field.Type = models.FieldType(fieldType)
	if len(options) > 0 {
		field.Options = []string(options)
	}
	return field, nil
}
