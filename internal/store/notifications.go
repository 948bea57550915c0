package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"seatime-backend/internal/models"
)

// NewNotification is the input to InsertNotificationOnce.
type NewNotification struct {
	UserID     string
	Title      string
	Message    string
	Type       string
	EntityType string
	EntityID   string
}

// InsertNotificationOnce inserts n unless the same (user, type, entity) was
// already notified on day. Reports whether a row was written.
func InsertNotificationOnce(ctx context.Context, db DB, n NewNotification, day time.Time) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO notifications (user_id, title, message, type, entity_type, entity_id)
		SELECT $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id     = $1
			  AND type        = $4
			  AND entity_type = $5
			  AND entity_id   = $6
			  AND created_at::date = $7::date
		)
	`, n.UserID, n.Title, n.Message, n.Type, n.EntityType, n.EntityID, day)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListNotifications returns a user's most recent notifications.
func ListNotifications(ctx context.Context, db DB, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	rows, err := db.Query(ctx, `
		SELECT id, title, message, type, entity_type, entity_id, is_read, created_at::text
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.EntityType, &n.EntityID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns how many unread notifications a user has.
func CountUnread(ctx context.Context, db DB, userID string) (int, error) {
	var n int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks one of the user's notifications read.
func MarkNotificationRead(ctx context.Context, db DB, userID, id string) error {
	tag, err := db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification read and returns the count.
func MarkAllNotificationsRead(ctx context.Context, db DB, userID string) (int64, error) {
	tag, err := db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LogActivity appends to the audit log. details may be nil.
func LogActivity(ctx context.Context, db DB, userID, action, entityType, entityID string, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal activity details: %w", err)
	}

	var uid *string
	if userID != "" {
		uid = &userID
	}
	if _, err := db.Exec(ctx, `
		INSERT INTO activity_log (user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`, uid, action, entityType, entityID, raw); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivity returns the most recent audit-log rows with the acting user's name.
func ListActivity(ctx context.Context, db DB, entityType string, limit, offset int) ([]models.Activity, error) {
	rows, err := db.Query(ctx, `
		SELECT a.id, a.user_id::text, u.name, a.action, a.entity_type, a.entity_id, a.details, a.created_at::text
		FROM activity_log a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE ($1 = '' OR a.entity_type = $1)
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`, entityType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.Action, &a.EntityType, &a.EntityID, &a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertTestimonial records an uploaded file against the user and optional vessel.
func InsertTestimonial(ctx context.Context, db DB, userID string, vesselID *string, url, name string, size int64, fileType string) (models.Testimonial, error) {
	var t models.Testimonial
	err := db.QueryRow(ctx, `
		INSERT INTO testimonials (user_id, vessel_id, file_url, file_name, file_size, file_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, vessel_id::text, file_url, file_name, file_size, file_type, created_at::text
	`, userID, vesselID, url, name, size, fileType,
	).Scan(&t.ID, &t.VesselID, &t.FileURL, &t.FileName, &t.FileSize, &t.FileType, &t.CreatedAt)
	if err != nil {
		return models.Testimonial{}, fmt.Errorf("insert testimonial: %w", err)
	}
	return t, nil
}
