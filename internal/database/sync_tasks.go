package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"resbook/internal/models"
)

const syncTaskColumns = `id, task_type, booking_id, payload, status, retry_count,
	last_error, next_retry_at, created_at, updated_at`

func scanSyncTask(row interface{ Scan(dest ...any) error }) (*models.SyncTask, error) {
	var task models.SyncTask
	var lastError sql.NullString
	var nextRetryAt sql.NullTime

	err := row.Scan(&task.ID, &task.TaskType, &task.BookingID, &task.Payload,
		&task.Status, &task.RetryCount, &lastError, &nextRetryAt,
		&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	task.LastError = lastError.String
	if nextRetryAt.Valid {
		t := nextRetryAt.Time
		task.NextRetryAt = &t
	}
	return &task, nil
}

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	if task.Status == "" {
		task.Status = models.SyncStatusPending
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO sync_tasks (task_type, booking_id, payload, status) VALUES (?, ?, ?, ?)`,
		task.TaskType, task.BookingID, task.Payload, task.Status)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get sync task id: %w", err)
	}
	task.ID = id
	return nil
}

// ClaimSyncTask moves a runnable task to processing so exactly one
// consumer applies it. Returns false when another consumer already
// claimed or finished the task.
func (db *DB) ClaimSyncTask(ctx context.Context, id int64) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE sync_tasks SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status IN (?, ?)`,
		models.SyncStatusProcessing, id, models.SyncStatusPending, models.SyncStatusRetry)
	if err != nil {
		return false, fmt.Errorf("failed to claim sync task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// GetPendingSyncTasks returns tasks ready to run: fresh ones plus
// retries whose backoff window has elapsed. Claims stranded by a
// crashed consumer are requeued after five minutes.
func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_tasks SET status = ?
		 WHERE status = ? AND updated_at <= datetime('now', '-5 minutes')`,
		models.SyncStatusPending, models.SyncStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to requeue stale sync tasks: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+syncTaskColumns+` FROM sync_tasks
		 WHERE status = ? OR (status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?))
		 ORDER BY id LIMIT ?`,
		models.SyncStatusPending, models.SyncStatusRetry, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		task, err := scanSyncTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateSyncTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error {
	var retryBump int
	if status == models.SyncStatusRetry {
		retryBump = 1
	}

	res, err := db.ExecContext(ctx,
		`UPDATE sync_tasks SET status = ?, last_error = ?, next_retry_at = ?,
		 retry_count = retry_count + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, lastError, nextRetryAt, retryBump, id)
	if err != nil {
		return fmt.Errorf("failed to update sync task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
