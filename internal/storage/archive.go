// Package storage keeps a local SQLite history of monitor snapshots, so
// hive trends survive without an InfluxDB instance. Optional quantities
// map to nullable columns; NULL means the device didn't report the
// quantity, never that it measured zero.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/models"
)

// Archive handles persistent storage of device snapshots.
type Archive struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewArchive opens (or creates) the archive database at path.
func NewArchive(path string, logger zerolog.Logger) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	a := &Archive{db: db, logger: logger}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Str("path", path).Msg("snapshot archive initialized")
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		address TEXT NOT NULL,
		name TEXT,
		friendly_name TEXT,
		model_number INTEGER NOT NULL,
		model_name TEXT NOT NULL,
		firmware_version TEXT NOT NULL,
		rssi INTEGER NOT NULL,
		battery INTEGER,
		elapsed_minutes INTEGER,
		temperature_c REAL,
		humidity REAL,
		weight_left_lbs REAL,
		weight_right_lbs REAL,
		total_weight_lbs REAL,
		observed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_address_time
		ON snapshots(address, observed_at);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// InsertSnapshot stores one monitor cycle's readings in a single
// transaction, all stamped with the same observation time.
func (a *Archive) InsertSnapshot(readings []*models.Reading, observedAt time.Time) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshots (
			address, name, friendly_name, model_number, model_name,
			firmware_version, rssi, battery, elapsed_minutes,
			temperature_c, humidity, weight_left_lbs, weight_right_lbs,
			total_weight_lbs, observed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		_, err := stmt.Exec(
			r.Address, r.Name, r.FriendlyName, r.ModelNumber, r.ModelName,
			r.FirmwareVersion, r.RSSI, r.Battery, r.ElapsedMinutes,
			r.TemperatureC, r.Humidity, r.WeightLeftLbs, r.WeightRightLbs,
			r.TotalWeightLbs, observedAt.UTC(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert snapshot for %s: %w", r.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	a.logger.Debug().Int("readings", len(readings)).Msg("snapshot archived")
	return nil
}

// LatestByAddress returns the most recent archived reading for a device,
// or sql.ErrNoRows when the device was never archived.
func (a *Archive) LatestByAddress(address string) (*models.Reading, time.Time, error) {
	row := a.db.QueryRow(`
		SELECT address, name, friendly_name, model_number, model_name,
			firmware_version, rssi, battery, elapsed_minutes,
			temperature_c, humidity, weight_left_lbs, weight_right_lbs,
			total_weight_lbs, observed_at
		FROM snapshots
		WHERE address = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT 1`, address)

	var (
		r          models.Reading
		name       sql.NullString
		friendly   sql.NullString
		battery    sql.NullInt64
		elapsed    sql.NullInt64
		tempC      sql.NullFloat64
		humidity   sql.NullFloat64
		leftLbs    sql.NullFloat64
		rightLbs   sql.NullFloat64
		totalLbs   sql.NullFloat64
		observedAt time.Time
	)

	err := row.Scan(
		&r.Address, &name, &friendly, &r.ModelNumber, &r.ModelName,
		&r.FirmwareVersion, &r.RSSI, &battery, &elapsed,
		&tempC, &humidity, &leftLbs, &rightLbs, &totalLbs, &observedAt,
	)
	if err != nil {
		return nil, time.Time{}, err
	}

	if name.Valid {
		r.Name = &name.String
	}
	if friendly.Valid {
		r.FriendlyName = &friendly.String
	}
	if battery.Valid {
		v := int(battery.Int64)
		r.Battery = &v
	}
	if elapsed.Valid {
		v := int(elapsed.Int64)
		r.ElapsedMinutes = &v
	}
	if tempC.Valid {
		r.TemperatureC = &tempC.Float64
		f := tempC.Float64*9/5 + 32
		r.TemperatureF = &f
	}
	if humidity.Valid {
		r.Humidity = &humidity.Float64
	}
	if leftLbs.Valid {
		r.WeightLeftLbs = &leftLbs.Float64
	}
	if rightLbs.Valid {
		r.WeightRightLbs = &rightLbs.Float64
	}
	if totalLbs.Valid {
		r.TotalWeightLbs = &totalLbs.Float64
	}

	return &r, observedAt, nil
}

// CountSnapshots returns the total number of archived readings.
func (a *Archive) CountSnapshots() (int64, error) {
	var n int64
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// PruneOlderThan deletes snapshots older than the given number of days
// and returns how many rows were removed.
func (a *Archive) PruneOlderThan(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result, err := a.db.Exec(`DELETE FROM snapshots WHERE observed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		a.logger.Info().Int64("deleted", deleted).Int("retention_days", days).Msg("pruned old snapshots")
	}
	return deleted, nil
}
