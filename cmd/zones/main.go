package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"trafficsignal/internal/config"
	"trafficsignal/internal/models"
	"trafficsignal/internal/repository"
	"trafficsignal/internal/repository/sqlite"
	"trafficsignal/internal/services/zones"
)

type zoneFlags []string

func (z *zoneFlags) String() string     { return strings.Join(*z, " ") }
func (z *zoneFlags) Set(v string) error { *z = append(*z, v); return nil }

func main() {
	dbPath := flag.String("db", "data/zones.db", "Zone database path")
	seed := flag.Bool("seed", false, "Store the reference layout for -width x -height")
	width := flag.Int("width", 640, "Frame width for -seed")
	height := flag.Int("height", 360, "Frame height for -seed")
	remove := flag.String("delete", "", "Delete a stored zone so it falls back to the reference layout")
	var sets zoneFlags
	flag.Var(&sets, "set", "Store a zone as name=x1,y1,x2,y2 (repeatable)")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var updates []models.Zone
	if *seed {
		updates = append(updates, zones.ReferenceLayout(*width, *height)...)
	}
	for _, s := range sets {
		zone, err := parseZoneFlag(s)
		if err != nil {
			log.Fatalf("Invalid -set %q: %v", s, err)
		}
		updates = append(updates, zone)
	}

	if err := apply(sqlite.NewZoneRepository(db), updates, *remove, os.Stdout); err != nil {
		db.Close()
		log.Fatal(err)
	}
}

// apply stores updates, deletes remove when set and lists what is stored.
func apply(repo repository.ZoneRepository, updates []models.Zone, remove string, out io.Writer) error {
	if len(updates) > 0 {
		if err := repo.UpsertAll(updates); err != nil {
			return fmt.Errorf("failed to store zones: %w", err)
		}
		fmt.Fprintf(out, "Stored %d zone(s)\n", len(updates))
	}

	if remove != "" {
		name, err := models.ParseZoneName(remove)
		if err != nil {
			return fmt.Errorf("invalid -delete: %w", err)
		}
		if err := repo.Delete(name); err != nil {
			return fmt.Errorf("failed to delete zone: %w", err)
		}
		fmt.Fprintf(out, "Deleted zone %s\n", name)
	}

	stored, err := repo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to list zones: %w", err)
	}
	if len(stored) == 0 {
		fmt.Fprintln(out, "No zones stored; the pipeline uses the reference layout")
		return nil
	}
	for _, name := range models.ZoneNames {
		if r, ok := stored[name]; ok {
			fmt.Fprintf(out, "%-6s %s\n", name, r)
		}
	}
	return nil
}

// parseZoneFlag parses name=x1,y1,x2,y2.
func parseZoneFlag(s string) (models.Zone, error) {
	name, rect, ok := strings.Cut(s, "=")
	if !ok {
		return models.Zone{}, fmt.Errorf("expected name=x1,y1,x2,y2")
	}
	zn, err := models.ParseZoneName(strings.TrimSpace(name))
	if err != nil {
		return models.Zone{}, err
	}
	r, err := config.ParseRect(rect)
	if err != nil {
		return models.Zone{}, err
	}
	return models.Zone{Name: zn, Rect: r}, nil
}
