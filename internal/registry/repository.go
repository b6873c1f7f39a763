package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// EntityRepository defines the interface for entity persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type EntityRepository interface {
	// GetByID retrieves an entity by its unique identifier.
	// Returns ErrEntityNotFound if the entity does not exist.
	GetByID(ctx context.Context, entityID string) (*Entity, error)

	// List retrieves all entities.
	List(ctx context.Context) ([]Entity, error)

	// ListByDevice retrieves all entities belonging to a device.
	ListByDevice(ctx context.Context, deviceID string) ([]Entity, error)

	// Create inserts a new entity.
	// Returns ErrEntityExists if an entity with the same id already exists.
	Create(ctx context.Context, entity *Entity) error

	// Update modifies an existing entity.
	// Returns ErrEntityNotFound if the entity does not exist.
	Update(ctx context.Context, entity *Entity) error

	// Delete removes an entity by id.
	// Returns ErrEntityNotFound if the entity does not exist.
	Delete(ctx context.Context, entityID string) error
}

// DeviceRepository defines the interface for device persistence operations.
type DeviceRepository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices.
	List(ctx context.Context) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same id already exists.
	Create(ctx context.Context, device *Device) error

	// Update modifies an existing device.
	// Returns ErrDeviceNotFound if the device does not exist.
	Update(ctx context.Context, device *Device) error

	// Delete removes a device by id. Entities that reference the device
	// keep their device_id; removal does not cascade.
	// Returns ErrDeviceNotFound if the device does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteEntityRepository implements EntityRepository using SQLite.
type SQLiteEntityRepository struct {
	db *sql.DB
}

// NewSQLiteEntityRepository creates a new SQLite-backed entity repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteEntityRepository(db *sql.DB) *SQLiteEntityRepository {
	return &SQLiteEntityRepository{db: db}
}

// GetByID retrieves an entity by its unique identifier.
func (r *SQLiteEntityRepository) GetByID(ctx context.Context, entityID string) (*Entity, error) {
	query := `
		SELECT entity_id, name, device_id, category, hidden_by, disabled_by,
			created_at, updated_at
		FROM entities
		WHERE entity_id = ?`

	row := r.db.QueryRowContext(ctx, query, entityID)
	entity, err := scanEntityRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("querying entity by id: %w", err)
	}
	return entity, nil
}

// List retrieves all entities ordered by entity id.
func (r *SQLiteEntityRepository) List(ctx context.Context) ([]Entity, error) {
	query := `
		SELECT entity_id, name, device_id, category, hidden_by, disabled_by,
			created_at, updated_at
		FROM entities
		ORDER BY entity_id`

	return r.queryEntities(ctx, query)
}

// ListByDevice retrieves all entities belonging to a device.
func (r *SQLiteEntityRepository) ListByDevice(ctx context.Context, deviceID string) ([]Entity, error) {
	query := `
		SELECT entity_id, name, device_id, category, hidden_by, disabled_by,
			created_at, updated_at
		FROM entities
		WHERE device_id = ?
		ORDER BY entity_id`

	return r.queryEntities(ctx, query, deviceID)
}

// Create inserts a new entity.
func (r *SQLiteEntityRepository) Create(ctx context.Context, entity *Entity) error {
	if entity.EntityID == "" {
		return fmt.Errorf("%w: entity_id is required", ErrInvalidEntity)
	}

	now := time.Now().UTC()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	entity.UpdatedAt = now

	query := `
		INSERT INTO entities (
			entity_id, name, device_id, category, hidden_by, disabled_by,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		entity.EntityID,
		entity.Name,
		nullableString(entity.DeviceID),
		string(entity.Category),
		nullableString(entity.HiddenBy),
		nullableString(entity.DisabledBy),
		entity.CreatedAt.Format(time.RFC3339),
		entity.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEntityExists
		}
		return fmt.Errorf("inserting entity: %w", err)
	}

	return nil
}

// Update modifies an existing entity.
func (r *SQLiteEntityRepository) Update(ctx context.Context, entity *Entity) error {
	entity.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE entities SET
			name = ?, device_id = ?, category = ?, hidden_by = ?,
			disabled_by = ?, updated_at = ?
		WHERE entity_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		entity.Name,
		nullableString(entity.DeviceID),
		string(entity.Category),
		nullableString(entity.HiddenBy),
		nullableString(entity.DisabledBy),
		entity.UpdatedAt.Format(time.RFC3339),
		entity.EntityID,
	)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

// Delete removes an entity by id.
func (r *SQLiteEntityRepository) Delete(ctx context.Context, entityID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM entities WHERE entity_id = ?", entityID)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

// queryEntities executes a query and returns a slice of entities.
func (r *SQLiteEntityRepository) queryEntities(ctx context.Context, query string, args ...any) ([]Entity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		entity, err := scanEntityRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, *entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}

	return entities, nil
}

// SQLiteDeviceRepository implements DeviceRepository using SQLite.
type SQLiteDeviceRepository struct {
	db *sql.DB
}

// NewSQLiteDeviceRepository creates a new SQLite-backed device repository.
func NewSQLiteDeviceRepository(db *sql.DB) *SQLiteDeviceRepository {
	return &SQLiteDeviceRepository{db: db}
}

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteDeviceRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `
		SELECT id, name, name_by_user, manufacturer, model, created_at, updated_at
		FROM devices
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	device, err := scanDeviceRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return device, nil
}

// List retrieves all devices ordered by name.
func (r *SQLiteDeviceRepository) List(ctx context.Context) ([]Device, error) {
	query := `
		SELECT id, name, name_by_user, manufacturer, model, created_at, updated_at
		FROM devices
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDeviceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteDeviceRepository) Create(ctx context.Context, device *Device) error {
	if device.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}

	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	query := `
		INSERT INTO devices (
			id, name, name_by_user, manufacturer, model, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.Name,
		nullableString(device.NameByUser),
		nullableString(device.Manufacturer),
		nullableString(device.Model),
		device.CreatedAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}

	return nil
}

// Update modifies an existing device.
func (r *SQLiteDeviceRepository) Update(ctx context.Context, device *Device) error {
	device.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE devices SET
			name = ?, name_by_user = ?, manufacturer = ?, model = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		device.Name,
		nullableString(device.NameByUser),
		nullableString(device.Manufacturer),
		nullableString(device.Model),
		device.UpdatedAt.Format(time.RFC3339),
		device.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// Delete removes a device by id.
func (r *SQLiteDeviceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntityRow scans a row or rows result into an Entity.
func scanEntityRow(scanner rowScanner) (*Entity, error) {
	var e Entity
	var deviceID, hiddenBy, disabledBy sql.NullString
	var category string
	var createdAt, updatedAt string

	err := scanner.Scan(
		&e.EntityID,
		&e.Name,
		&deviceID,
		&category,
		&hiddenBy,
		&disabledBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Category = report.Category(category)

	if deviceID.Valid {
		e.DeviceID = &deviceID.String
	}
	if hiddenBy.Valid {
		e.HiddenBy = &hiddenBy.String
	}
	if disabledBy.Valid {
		e.DisabledBy = &disabledBy.String
	}

	var parseErr error
	e.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	e.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &e, nil
}

// scanDeviceRow scans a row or rows result into a Device.
func scanDeviceRow(scanner rowScanner) (*Device, error) {
	var d Device
	var nameByUser, manufacturer, model sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&d.ID,
		&d.Name,
		&nameByUser,
		&manufacturer,
		&model,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if nameByUser.Valid {
		d.NameByUser = &nameByUser.String
	}
	if manufacturer.Valid {
		d.Manufacturer = &manufacturer.String
	}
	if model.Valid {
		d.Model = &model.String
	}

	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &d, nil
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
