package app

import (
	"errors"
	"path/filepath"
	"testing"

	"trafficsignal/internal/models"
	"trafficsignal/internal/repository/sqlite"
)

type brokenRepository struct{}

func (brokenRepository) Upsert(models.Zone) error { return errors.New("read-only") }
func (brokenRepository) UpsertAll([]models.Zone) error { return errors.New("read-only") }
func (brokenRepository) Delete(models.ZoneName) error { return errors.New("read-only") }
func (brokenRepository) GetAll() (map[models.ZoneName]models.Rect, error) {
	return nil, errors.New("database is locked")
}

func TestLoadStoredZones_NoStore(t *testing.T) {
	stored, err := loadStoredZones("")
	if err != nil || stored != nil {
		t.Errorf("expected no zones and no error, got %v, %v", stored, err)
	}
}

func TestLoadStoredZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.db")
	db, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	north := models.Rect{MinX: 285, MinY: 0, MaxX: 355, MaxY: 153}
	if err := sqlite.NewZoneRepository(db).Upsert(models.Zone{Name: models.ZoneNorth, Rect: north}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	db.Close()

	stored, err := loadStoredZones(path)
	if err != nil {
		t.Fatalf("loadStoredZones failed: %v", err)
	}
	if len(stored) != 1 || stored[models.ZoneNorth] != north {
		t.Errorf("unexpected zones %v", stored)
	}
}

func TestReadZones_Error(t *testing.T) {
	if _, err := readZones(brokenRepository{}); err == nil {
		t.Error("expected load error")
	}
}
