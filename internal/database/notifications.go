package database

import (
	"context"
	"fmt"
	"time"

	"resbook/internal/models"
)

const notificationColumns = `id, user_id, booking_id, type, title, message, email_sent, push_sent, read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.BookingID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.EmailSent,
		&n.PushSent,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification persists the in-app record. This is the source of
// truth for unread counts; channel deliveries are tracked separately.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO notifications (user_id, booking_id, type, title, message, email_sent, push_sent, read, created_at)
        VALUES (?, ?, ?, ?, ?, 0, 0, 0, ?)`,
		n.UserID,
		n.BookingID,
		n.Type,
		n.Title,
		n.Message,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	n.Read = false
	n.CreatedAt = now
	return nil
}

// MarkChannelsSent records which best-effort channels delivered.
func (db *DB) MarkChannelsSent(ctx context.Context, id int64, emailSent, pushSent bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET email_sent = ?, push_sent = ? WHERE id = ?`,
		emailSent, pushSent, id)
	if err != nil {
		return fmt.Errorf("failed to mark channels sent: %w", err)
	}
	return nil
}

func (db *DB) ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flips the read flag. Only the recipient may mark
// their own notification.
func (db *DB) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UnreadNotificationCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
