package zones

import (
	"image"
	"testing"

	"trafficsignal/internal/config"
	"trafficsignal/internal/models"
)

func objectAt(x, y int) models.DetectedObject {
	return models.DetectedObject{Centroid: image.Pt(x, y)}
}

func center(r models.Rect) (int, int) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

func TestReferenceLayout_640x360(t *testing.T) {
	expected := map[models.ZoneName]models.Rect{
		models.ZoneNorth: {MinX: 285, MinY: 0, MaxX: 355, MaxY: 153},
		models.ZoneSouth: {MinX: 285, MinY: 206, MaxX: 355, MaxY: 360},
		models.ZoneEast:  {MinX: 355, MinY: 153, MaxX: 640, MaxY: 206},
		models.ZoneWest:  {MinX: 0, MinY: 153, MaxX: 285, MaxY: 206},
	}

	for _, z := range ReferenceLayout(640, 360) {
		if z.Rect != expected[z.Name] {
			t.Errorf("zone %s = %v, expected %v", z.Name, z.Rect, expected[z.Name])
		}
	}
}

func TestAssign_SingleCentroidPerZone(t *testing.T) {
	table, err := NewTable(ReferenceLayout(640, 360))
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	for _, z := range table.Zones() {
		t.Run(string(z.Name), func(t *testing.T) {
			x, y := center(z.Rect)
			counts := table.Assign([]models.DetectedObject{objectAt(x, y)})

			for name, n := range counts {
				want := 0
				if name == z.Name {
					want = 1
				}
				if n != want {
					t.Errorf("count[%s] = %d, expected %d", name, n, want)
				}
			}
		})
	}
}

func TestAssign_BoundaryIsExclusive(t *testing.T) {
	table, _ := NewTable(ReferenceLayout(640, 360))

	// Points on a zone edge belong to no zone.
	tests := []struct {
		name string
		x, y int
	}{
		{"north/east corner", 355, 153},
		{"north bottom edge", 320, 153},
		{"west top edge", 100, 153},
		{"east left edge", 355, 180},
		{"frame origin", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := table.Assign([]models.DetectedObject{objectAt(tt.x, tt.y)})
			for name, n := range counts {
				if n != 0 {
					t.Errorf("boundary point counted in %s", name)
				}
			}
		})
	}
}

func TestAssign_OverlappingZonesCountBoth(t *testing.T) {
	table, err := NewTable([]models.Zone{
		{Name: models.ZoneNorth, Rect: models.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}},
		{Name: models.ZoneEast, Rect: models.Rect{MinX: 50, MinY: 50, MaxX: 150, MaxY: 150}},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	counts := table.Assign([]models.DetectedObject{objectAt(75, 75)})
	if counts[models.ZoneNorth] != 1 || counts[models.ZoneEast] != 1 {
		t.Errorf("expected both overlapping zones to count, got %v", counts)
	}
}

func TestAssign_NoObjects(t *testing.T) {
	table, _ := NewTable(ReferenceLayout(640, 360))
	counts := table.Assign(nil)

	if len(counts) != 4 {
		t.Fatalf("expected all 4 zones present, got %d", len(counts))
	}
	for name, n := range counts {
		if n != 0 {
			t.Errorf("count[%s] = %d, expected 0", name, n)
		}
	}
}

func TestNewTable_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		zones []models.Zone
	}{
		{"unknown name", []models.Zone{{Name: "centre", Rect: models.Rect{MaxX: 1, MaxY: 1}}}},
		{"empty rect", []models.Zone{{Name: models.ZoneNorth, Rect: models.Rect{MinX: 5, MaxX: 5, MaxY: 10}}}},
		{"duplicate", []models.Zone{
			{Name: models.ZoneNorth, Rect: models.Rect{MaxX: 1, MaxY: 1}},
			{Name: models.ZoneNorth, Rect: models.Rect{MaxX: 2, MaxY: 2}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.zones); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWiden(t *testing.T) {
	r := Widen(models.Rect{MinX: 285, MinY: 0, MaxX: 355, MaxY: 153}, 50, 20, 640, 360)
	expected := models.Rect{MinX: 260, MinY: 0, MaxX: 380, MaxY: 162}
	if r != expected {
		t.Errorf("Widen = %v, expected %v", r, expected)
	}

	edge := Widen(models.Rect{MinX: 0, MinY: 153, MaxX: 285, MaxY: 206}, 50, 20, 640, 360)
	if edge.MinX != 0 {
		t.Errorf("widened zone should be clamped to frame, got MinX=%d", edge.MinX)
	}
}

func TestFromConfig_Precedence(t *testing.T) {
	cfg := &config.Config{
		FrameWidth:  640,
		FrameHeight: 360,
		Zones: map[models.ZoneName]models.Rect{
			models.ZoneEast: {MinX: 400, MinY: 150, MaxX: 600, MaxY: 210},
		},
	}
	stored := map[models.ZoneName]models.Rect{
		models.ZoneEast:  {MinX: 1, MinY: 1, MaxX: 2, MaxY: 2},
		models.ZoneSouth: {MinX: 290, MinY: 210, MaxX: 350, MaxY: 350},
	}

	table, err := FromConfig(cfg, stored)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	got := make(map[models.ZoneName]models.Rect)
	for _, z := range table.Zones() {
		got[z.Name] = z.Rect
	}
	if got[models.ZoneEast] != cfg.Zones[models.ZoneEast] {
		t.Errorf("env override should win, got %v", got[models.ZoneEast])
	}
	if got[models.ZoneSouth] != stored[models.ZoneSouth] {
		t.Errorf("stored zone should replace reference, got %v", got[models.ZoneSouth])
	}
	if got[models.ZoneNorth] != (models.Rect{MinX: 285, MinY: 0, MaxX: 355, MaxY: 153}) {
		t.Errorf("reference zone expected for north, got %v", got[models.ZoneNorth])
	}
}
