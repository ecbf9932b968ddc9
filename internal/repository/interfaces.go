package repository

import "trafficsignal/internal/models"

// ZoneRepository defines the interface for calibrated zone storage.
type ZoneRepository interface {
	Upsert(zone models.Zone) error
	UpsertAll(zones []models.Zone) error
	GetAll() (map[models.ZoneName]models.Rect, error)
	Delete(name models.ZoneName) error
}
