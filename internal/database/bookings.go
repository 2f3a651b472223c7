package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resbook/internal/models"
)

const bookingColumns = `id, resource_id, resource_name, resource_type, user_id, user_name,
        date, start_time, end_time, pic, section, notes, status,
        approver_id, approver_name, decided_at, feedback, created_at, updated_at, version`

// AutoRejectFeedback записывается в заявки, отклоненные автоматически
// при утверждении пересекающейся заявки.
const AutoRejectFeedback = "Automatically rejected: an overlapping booking was approved"

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var approverID sql.NullInt64
	var approverName, section, notes, feedback sql.NullString
	var decidedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.ResourceID,
		&b.ResourceName,
		&b.ResourceType,
		&b.UserID,
		&b.UserName,
		&b.Date,
		&b.StartTime,
		&b.EndTime,
		&b.PIC,
		&section,
		&notes,
		&b.Status,
		&approverID,
		&approverName,
		&decidedAt,
		&feedback,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.Section = section.String
	b.Notes = notes.String
	b.ApproverID = approverID.Int64
	b.ApproverName = approverName.String
	b.Feedback = feedback.String
	if decidedAt.Valid {
		t := decidedAt.Time
		b.DecidedAt = &t
	}
	return &b, nil
}

// findConflict returns the id of a pending/approved booking on the same
// resource and date whose [start, end) window intersects the given one,
// or 0 when the window is free. The times are zero-padded HH:MM strings,
// so string comparison is time comparison.
func findConflict(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, resourceID int64, date, start, end string, excludeID int64, statuses ...string) (int64, error) {
	if len(statuses) == 0 {
		statuses = []string{models.StatusPending, models.StatusApproved}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	query := fmt.Sprintf(`
        SELECT id FROM bookings
        WHERE resource_id = ? AND date = ?
          AND status IN (%s)
          AND id != ?
          AND start_time < ? AND ? < end_time
        ORDER BY start_time
        LIMIT 1`, placeholders)

	args := []any{resourceID, date}
	for _, s := range statuses {
		args = append(args, s)
	}
	args = append(args, excludeID, end, start)

	var id int64
	err := q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check for conflicts: %w", err)
	}
	return id, nil
}

// CreateBookingWithConflictCheck inserts a booking after verifying inside
// a single transaction that no pending/approved booking occupies an
// overlapping window on the same resource and date. On conflict nothing
// is written and a *ConflictError identifies the colliding booking.
func (db *DB) CreateBookingWithConflictCheck(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflictID, err := findConflict(ctx, tx, booking.ResourceID, booking.Date, booking.StartTime, booking.EndTime, 0)
	if err != nil {
		return err
	}
	if conflictID != 0 {
		return &ConflictError{ConflictingID: conflictID}
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
        INSERT INTO bookings (
            resource_id, resource_name, resource_type, user_id, user_name,
            date, start_time, end_time, pic, section, notes, status,
            created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ResourceID,
		booking.ResourceName,
		booking.ResourceType,
		booking.UserID,
		booking.UserName,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		booking.PIC,
		booking.Section,
		booking.Notes,
		models.StatusPending,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.Status = models.StatusPending
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ListBookings returns filtered bookings ordered by date, start time and
// id for deterministic pagination.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.ResourceType != "" {
		query += ` AND resource_type = ?`
		args = append(args, filter.ResourceType)
	}
	if filter.ResourceID != 0 {
		query += ` AND resource_id = ?`
		args = append(args, filter.ResourceID)
	}
	if filter.UserID != 0 {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.DateFrom != "" {
		query += ` AND date >= ?`
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		query += ` AND date <= ?`
		args = append(args, filter.DateTo)
	}

	query += ` ORDER BY date, start_time, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// DecideBooking transitions a pending booking to approved or rejected.
// The status check and the write happen inside one transaction so two
// approvers deciding the same booking cannot both succeed. When the
// decision is approval, the window is re-checked against approved
// siblings and newly-conflicting pending siblings are auto-rejected;
// the auto-rejected bookings are returned for notification fan-out.
func (db *DB) DecideBooking(ctx context.Context, id int64, approverID int64, approverName, status, feedback string) (*models.Booking, []models.Booking, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, nil, NewValidationError("decision must be %q or %q", models.StatusApproved, models.StatusRejected)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	booking, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status != models.StatusPending {
		return nil, nil, ErrInvalidState
	}

	now := time.Now()

	if status == models.StatusApproved {
		// Заявка могла устареть: с момента подачи кто-то уже занял окно.
		conflictID, err := findConflict(ctx, tx, booking.ResourceID, booking.Date,
			booking.StartTime, booking.EndTime, booking.ID, models.StatusApproved)
		if err != nil {
			return nil, nil, err
		}
		if conflictID != 0 {
			return nil, nil, &ConflictError{ConflictingID: conflictID}
		}
	}

	result, err := tx.ExecContext(ctx, `
        UPDATE bookings
        SET status = ?, approver_id = ?, approver_name = ?, decided_at = ?,
            feedback = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND status = ?`,
		status, approverID, approverName, now, feedback, now, id, models.StatusPending)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil, ErrInvalidState
	}

	var autoRejected []models.Booking
	if status == models.StatusApproved {
		autoRejected, err = rejectConflictingPending(ctx, tx, booking, approverID, approverName, now)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit decision: %w", err)
	}

	booking.Status = status
	booking.ApproverID = approverID
	booking.ApproverName = approverName
	booking.DecidedAt = &now
	booking.Feedback = feedback
	booking.UpdatedAt = now
	booking.Version++
	return booking, autoRejected, nil
}

// rejectConflictingPending rejects pending siblings whose window overlaps
// the freshly approved booking. Policy: approving one request must not
// leave a conflicting pending request approvable later.
func rejectConflictingPending(ctx context.Context, tx *sql.Tx, approved *models.Booking, approverID int64, approverName string, now time.Time) ([]models.Booking, error) {
	rows, err := tx.QueryContext(ctx, `
        SELECT `+bookingColumns+` FROM bookings
        WHERE resource_id = ? AND date = ? AND status = ? AND id != ?
          AND start_time < ? AND ? < end_time`,
		approved.ResourceID, approved.Date, models.StatusPending, approved.ID,
		approved.EndTime, approved.StartTime)
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting pending bookings: %w", err)
	}
	defer rows.Close()

	var siblings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflicting booking: %w", err)
		}
		siblings = append(siblings, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i := range siblings {
		_, err := tx.ExecContext(ctx, `
            UPDATE bookings
            SET status = ?, approver_id = ?, approver_name = ?, decided_at = ?,
                feedback = ?, updated_at = ?, version = version + 1
            WHERE id = ? AND status = ?`,
			models.StatusRejected, approverID, approverName, now,
			AutoRejectFeedback, now, siblings[i].ID, models.StatusPending)
		if err != nil {
			return nil, fmt.Errorf("failed to auto-reject booking %d: %w", siblings[i].ID, err)
		}

		siblings[i].Status = models.StatusRejected
		siblings[i].ApproverID = approverID
		siblings[i].ApproverName = approverName
		t := now
		siblings[i].DecidedAt = &t
		siblings[i].Feedback = AutoRejectFeedback
		siblings[i].UpdatedAt = now
		siblings[i].Version++
	}

	return siblings, nil
}

// CancelBooking marks a pending booking cancelled. Only the original
// requester may cancel; the check and the conditional update run in one
// transaction.
func (db *DB) CancelBooking(ctx context.Context, id, userID int64) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	booking, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	if booking.Status != models.StatusPending {
		return nil, ErrInvalidState
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
        UPDATE bookings
        SET status = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND user_id = ? AND status = ?`,
		models.StatusCancelled, now, id, userID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrInvalidState
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	booking.Status = models.StatusCancelled
	booking.UpdatedAt = now
	booking.Version++
	return booking, nil
}

// CountActiveBookings returns the number of pending/approved bookings
// referencing a resource. Used by the deactivation policy.
func (db *DB) CountActiveBookings(ctx context.Context, resourceID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM bookings
        WHERE resource_id = ? AND status IN (?, ?)`,
		resourceID, models.StatusPending, models.StatusApproved).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}

// AggregateBookings computes per-status and per-resource-type counts with
// the same filter semantics as ListBookings.
func (db *DB) AggregateBookings(ctx context.Context, filter models.BookingFilter) (*models.ReportSummary, error) {
	bookings, err := db.ListBookings(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := &models.ReportSummary{
		ByStatus:       make(map[string]int64),
		ByResourceType: make(map[string]int64),
	}
	for _, b := range bookings {
		summary.Total++
		summary.ByStatus[b.Status]++
		summary.ByResourceType[b.ResourceType]++
	}
	return summary, nil
}
