package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resbook/internal/models"
)

const resourceColumns = `id, type, name, capacity, facilities, vehicle, driver,
        sort_order, is_active, created_at, updated_at`

func scanResource(row interface{ Scan(...any) error }) (*models.Resource, error) {
	var r models.Resource
	var facilities, vehicle, driver sql.NullString

	err := row.Scan(
		&r.ID,
		&r.Type,
		&r.Name,
		&r.Capacity,
		&facilities,
		&vehicle,
		&driver,
		&r.SortOrder,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Vehicle = vehicle.String
	r.Driver = driver.String
	if facilities.String != "" {
		if err := json.Unmarshal([]byte(facilities.String), &r.Facilities); err != nil {
			return nil, fmt.Errorf("failed to decode facilities for resource %d: %w", r.ID, err)
		}
	}
	return &r, nil
}

func encodeFacilities(facilities []string) (string, error) {
	if len(facilities) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(facilities)
	if err != nil {
		return "", fmt.Errorf("failed to encode facilities: %w", err)
	}
	return string(raw), nil
}

func (db *DB) CreateResource(ctx context.Context, resource *models.Resource) error {
	facilities, err := encodeFacilities(resource.Facilities)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO resources (type, name, capacity, facilities, vehicle, driver, sort_order, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resource.Type,
		resource.Name,
		resource.Capacity,
		facilities,
		resource.Vehicle,
		resource.Driver,
		resource.SortOrder,
		resource.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	resource.ID = id
	resource.CreatedAt = now
	resource.UpdatedAt = now
	return nil
}

// UpsertResource writes a resource with an explicit ID, used for config
// seeded catalog entries.
func (db *DB) UpsertResource(ctx context.Context, resource *models.Resource) error {
	facilities, err := encodeFacilities(resource.Facilities)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = db.ExecContext(ctx, `
        INSERT INTO resources (id, type, name, capacity, facilities, vehicle, driver, sort_order, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            type = excluded.type,
            name = excluded.name,
            capacity = excluded.capacity,
            facilities = excluded.facilities,
            vehicle = excluded.vehicle,
            driver = excluded.driver,
            sort_order = excluded.sort_order,
            is_active = excluded.is_active,
            updated_at = excluded.updated_at`,
		resource.ID,
		resource.Type,
		resource.Name,
		resource.Capacity,
		facilities,
		resource.Vehicle,
		resource.Driver,
		resource.SortOrder,
		resource.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert resource: %w", err)
	}
	return nil
}

func (db *DB) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	resource, err := scanResource(db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return resource, nil
}

// GetActiveResources lists active resources, optionally narrowed by type,
// sorted by sort_order then id.
func (db *DB) GetActiveResources(ctx context.Context, resourceType string) ([]models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE is_active = 1`
	var args []any
	if resourceType != "" {
		query += ` AND type = ?`
		args = append(args, resourceType)
	}
	query += ` ORDER BY sort_order, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, *resource)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

func (db *DB) UpdateResource(ctx context.Context, resource *models.Resource) error {
	facilities, err := encodeFacilities(resource.Facilities)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := db.ExecContext(ctx, `
        UPDATE resources
        SET name = ?, capacity = ?, facilities = ?, vehicle = ?, driver = ?, sort_order = ?, updated_at = ?
        WHERE id = ?`,
		resource.Name,
		resource.Capacity,
		facilities,
		resource.Vehicle,
		resource.Driver,
		resource.SortOrder,
		now,
		resource.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	resource.UpdatedAt = now
	return nil
}

// DeactivateResource soft-disables a resource. Deactivation is rejected
// while pending/approved bookings still reference it, so history keeps
// resolving (reject policy, not cascade).
func (db *DB) DeactivateResource(ctx context.Context, id int64) error {
	active, err := db.CountActiveBookings(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrResourceInUse
	}

	result, err := db.ExecContext(ctx,
		`UPDATE resources SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate resource: %w", err)
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
