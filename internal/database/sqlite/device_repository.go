package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/core/devices"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// deviceRow is the govee_devices table row
type deviceRow struct {
	Device       string    `db:"device"`
	SKU          string    `db:"sku"`
	Type         string    `db:"type"`
	DeviceName   string    `db:"device_name"`
	Capabilities string    `db:"capabilities"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r deviceRow) toConfig() (goveelife.DeviceConfig, error) {
	config := goveelife.DeviceConfig{
		Device:     r.Device,
		SKU:        r.SKU,
		Type:       r.Type,
		DeviceName: r.DeviceName,
	}
	if err := json.Unmarshal([]byte(r.Capabilities), &config.Capabilities); err != nil {
		return config, fmt.Errorf("failed to decode capabilities of %s: %w", r.Device, err)
	}
	return config, nil
}

const deviceColumns = `device, sku, type, device_name, capabilities, created_at, updated_at`

// DeviceRepository persists the Govee device registry
type DeviceRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *sqlx.DB, log *logrus.Logger) *DeviceRepository {
	return &DeviceRepository{db: db, log: log}
}

const upsertDeviceQuery = `
	INSERT INTO govee_devices (device, sku, type, device_name, capabilities, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(device) DO UPDATE SET
		sku = excluded.sku,
		type = excluded.type,
		device_name = excluded.device_name,
		capabilities = excluded.capabilities,
		updated_at = excluded.updated_at`

// Upsert inserts a device or replaces its configuration
func (r *DeviceRepository) Upsert(ctx context.Context, device goveelife.DeviceConfig) error {
	return r.upsert(ctx, r.db, device)
}

// UpsertAll stores several devices in one transaction
func (r *DeviceRepository) UpsertAll(ctx context.Context, configs []goveelife.DeviceConfig) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, device := range configs {
		if err := r.upsert(ctx, tx, device); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit devices: %w", err)
	}
	return nil
}

func (r *DeviceRepository) upsert(ctx context.Context, exec sqlx.ExecerContext, device goveelife.DeviceConfig) error {
	capabilities := []byte("[]")
	if device.Capabilities != nil {
		var err error
		if capabilities, err = json.Marshal(device.Capabilities); err != nil {
			return fmt.Errorf("failed to encode capabilities: %w", err)
		}
	}

	now := time.Now().UTC()
	if _, err := exec.ExecContext(ctx, upsertDeviceQuery,
		device.Device, device.SKU, device.Type, device.DeviceName, string(capabilities), now, now,
	); err != nil {
		return fmt.Errorf("failed to upsert device %s: %w", device.Device, err)
	}

	r.log.WithFields(logrus.Fields{
		"device_id": device.Device,
		"type":      device.Type,
	}).Debug("Device stored in registry")
	return nil
}

// Get returns one device
func (r *DeviceRepository) Get(ctx context.Context, deviceID string) (goveelife.DeviceConfig, error) {
	var row deviceRow
	err := r.db.GetContext(ctx, &row, `SELECT `+deviceColumns+` FROM govee_devices WHERE device = ?`, deviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goveelife.DeviceConfig{}, fmt.Errorf("%w: %s", devices.ErrDeviceNotFound, deviceID)
		}
		return goveelife.DeviceConfig{}, fmt.Errorf("failed to get device %s: %w", deviceID, err)
	}
	return row.toConfig()
}

// ListDevices implements goveelife.DeviceSource
func (r *DeviceRepository) ListDevices(ctx context.Context) ([]goveelife.DeviceConfig, error) {
	return r.list(ctx, `SELECT `+deviceColumns+` FROM govee_devices ORDER BY device`)
}

// ListByType returns the devices of one device type
func (r *DeviceRepository) ListByType(ctx context.Context, deviceType string) ([]goveelife.DeviceConfig, error) {
	return r.list(ctx, `SELECT `+deviceColumns+` FROM govee_devices WHERE type = ? ORDER BY device`, deviceType)
}

func (r *DeviceRepository) list(ctx context.Context, query string, args ...interface{}) ([]goveelife.DeviceConfig, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var configs []goveelife.DeviceConfig
	for rows.Next() {
		var row deviceRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		config, err := row.toConfig()
		if err != nil {
			r.log.WithError(err).WithField("device_id", row.Device).Warn("Skipping device with undecodable capabilities")
			continue
		}
		configs = append(configs, config)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return configs, nil
}

// Delete removes a device
func (r *DeviceRepository) Delete(ctx context.Context, deviceID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM govee_devices WHERE device = ?`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device %s: %w", deviceID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete device %s: %w", deviceID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", devices.ErrDeviceNotFound, deviceID)
	}
	return nil
}
