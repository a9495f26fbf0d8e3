package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stanstork/stratum-orgs/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ListRecent(ctx context.Context, orgID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, orgID, notificationID string) (models.Notification, error)
}

type notificationRepository struct {
	db DBTX
}

type CreateNotificationParams struct {
	OrganizationID *string
	Event          models.NotificationEvent
	Severity       models.NotificationSeverity
	Title          string
	Message        string
	Metadata       map[string]interface{}
}

const notificationColumns = `id, organization_id, event_type, severity, title, message, metadata, created_at, read_at`

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	const query = `
		INSERT INTO orgs.notifications (organization_id, event_type, severity, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + notificationColumns

	metadata, err := marshalMetadata(params.Metadata)
	if err != nil {
		return models.Notification{}, err
	}

	row := r.db.QueryRowContext(ctx, query,
		nullableString(trimmed(params.OrganizationID)),
		params.Event,
		params.Severity,
		params.Title,
		params.Message,
		metadata,
	)
	notif, err := scanNotification(row)
	return notif, mapError(err)
}

// ListRecent returns the organization's notifications plus global ones, newest first.
func (r *notificationRepository) ListRecent(ctx context.Context, orgID string, limit int) ([]models.Notification, error) {
	limit = clampLimit(limit)

	const query = `
		SELECT ` + notificationColumns + `
		FROM orgs.notifications
		WHERE organization_id IS NULL OR organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(orgID), limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, orgID, notificationID string) (models.Notification, error) {
	const query = `
		UPDATE orgs.notifications
		SET read_at = NOW()
		WHERE id = $1 AND (organization_id IS NULL OR organization_id = $2)
		RETURNING ` + notificationColumns

	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(notificationID), strings.TrimSpace(orgID))
	notif, err := scanNotification(row)
	return notif, mapError(err)
}

func marshalMetadata(metadata map[string]interface{}) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	bytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return bytes, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 25
	}
	return limit
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	val := strings.TrimSpace(*s)
	return &val
}

func scanNotification(scanner rowScanner) (models.Notification, error) {
	var (
		notif       models.Notification
		orgID       sql.NullString
		metadataRaw []byte
		readAt      sql.NullTime
	)

	if err := scanner.Scan(
		&notif.ID,
		&orgID,
		&notif.EventType,
		&notif.Severity,
		&notif.Title,
		&notif.Message,
		&metadataRaw,
		&notif.CreatedAt,
		&readAt,
	); err != nil {
		return models.Notification{}, err
	}

	notif.OrganizationID = stringPtr(orgID)
	if len(metadataRaw) > 0 {
		notif.Metadata = metadataRaw
	}
	if readAt.Valid {
		t := readAt.Time
		notif.ReadAt = &t
	}
	return notif, nil
}
