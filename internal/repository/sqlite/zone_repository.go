package sqlite

import (
	"fmt"
	"time"

	"trafficsignal/internal/models"
)

// ZoneRepository implements repository.ZoneRepository for SQLite.
type ZoneRepository struct {
	db *DB
}

// NewZoneRepository creates a new SQLite zone repository.
func NewZoneRepository(db *DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// Upsert stores or replaces the rectangle of one zone.
func (r *ZoneRepository) Upsert(zone models.Zone) error {
	return r.UpsertAll([]models.Zone{zone})
}

// UpsertAll stores several zones in a single transaction.
func (r *ZoneRepository) UpsertAll(zones []models.Zone) error {
	for _, z := range zones {
		if _, err := models.ParseZoneName(string(z.Name)); err != nil {
			return err
		}
		if !z.Rect.Valid() {
			return fmt.Errorf("zone %s: rectangle %s has no interior", z.Name, z.Rect)
		}
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO zones (name, min_x, min_y, max_x, max_y, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			min_x = excluded.min_x,
			min_y = excluded.min_y,
			max_x = excluded.max_x,
			max_y = excluded.max_y,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, z := range zones {
		if _, err := stmt.Exec(string(z.Name), z.Rect.MinX, z.Rect.MinY, z.Rect.MaxX, z.Rect.MaxY, now); err != nil {
			return fmt.Errorf("failed to upsert zone %s: %w", z.Name, err)
		}
	}

	return tx.Commit()
}

// GetAll returns every stored zone keyed by name. Rows with unknown names are skipped.
func (r *ZoneRepository) GetAll() (map[models.ZoneName]models.Rect, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT name, min_x, min_y, max_x, max_y FROM zones ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	zones := make(map[models.ZoneName]models.Rect)
	for rows.Next() {
		var name string
		var rect models.Rect
		if err := rows.Scan(&name, &rect.MinX, &rect.MinY, &rect.MaxX, &rect.MaxY); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zn, err := models.ParseZoneName(name)
		if err != nil {
			continue
		}
		zones[zn] = rect
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read zones: %w", err)
	}

	return zones, nil
}

// Delete removes a stored zone so it falls back to the reference layout.
func (r *ZoneRepository) Delete(name models.ZoneName) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM zones WHERE name = ?`, string(name)); err != nil {
		return fmt.Errorf("failed to delete zone: %w", err)
	}
	return nil
}
