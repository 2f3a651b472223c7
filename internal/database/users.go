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

const userColumns = `id, name, email, phone, password_hash, role, push_token, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var phone, pushToken sql.NullString

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&phone,
		&u.PasswordHash,
		&u.Role,
		&pushToken,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Phone = phone.String
	u.PushToken = pushToken.String
	return &u, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO users (name, email, phone, password_hash, role, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (db *DB) UpdatePushToken(ctx context.Context, userID int64, token string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET push_token = ?, updated_at = ? WHERE id = ?`,
		token, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
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

func (db *DB) UpdateUserPhone(ctx context.Context, userID int64, phone string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET phone = ?, updated_at = ? WHERE id = ?`,
		phone, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update phone: %w", err)
	}
	return nil
}

// SetUserActive soft-enables or soft-disables an account. Users are
// never hard-deleted.
func (db *DB) SetUserActive(ctx context.Context, userID int64, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set user active: %w", err)
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

// GetAdmins returns active approver accounts for notification fan-out.
func (db *DB) GetAdmins(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? AND is_active = 1 ORDER BY id`,
		models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
