package zones

import (
	"fmt"

	"trafficsignal/internal/config"
	"trafficsignal/internal/models"
)

// Reference approach geometry on 1920x1080 footage: the box in the middle of
// the intersection spans x 855-1065 and y 461-618.
const (
	refBoxMinX = 855
	refBoxMaxX = 1065
	refBoxMinY = 461
	refBoxMaxY = 618
)

// Table is the immutable set of zones used by a pipeline.
type Table struct {
	zones []models.Zone
}

// NewTable validates zones and freezes them in the order given.
func NewTable(zones []models.Zone) (*Table, error) {
	seen := make(map[models.ZoneName]bool, len(zones))
	for _, z := range zones {
		if _, err := models.ParseZoneName(string(z.Name)); err != nil {
			return nil, err
		}
		if seen[z.Name] {
			return nil, fmt.Errorf("zone %s defined twice", z.Name)
		}
		if !z.Rect.Valid() {
			return nil, fmt.Errorf("zone %s has empty rectangle %s", z.Name, z.Rect)
		}
		seen[z.Name] = true
	}
	out := make([]models.Zone, len(zones))
	copy(out, zones)
	return &Table{zones: out}, nil
}

// Zones returns a copy of the zone list.
func (t *Table) Zones() []models.Zone {
	out := make([]models.Zone, len(t.zones))
	copy(out, t.zones)
	return out
}

// Assign counts, for each zone, the objects whose centroid lies strictly inside
// it. A centroid inside several overlapping zones is counted in each of them.
// Every zone of the table is present in the result.
func (t *Table) Assign(objects []models.DetectedObject) models.ZoneCount {
	counts := make(models.ZoneCount, len(t.zones))
	for _, z := range t.zones {
		counts[z.Name] = 0
	}
	for _, obj := range objects {
		for _, z := range t.zones {
			if z.Rect.ContainsStrict(obj.Centroid.X, obj.Centroid.Y) {
				counts[z.Name]++
			}
		}
	}
	return counts
}

// ReferenceLayout returns the four approach zones scaled to width x height.
func ReferenceLayout(width, height int) []models.Zone {
	sx := func(x int) int { return x * width / config.ReferenceWidth }
	sy := func(y int) int { return y * height / config.ReferenceHeight }

	return []models.Zone{
		{Name: models.ZoneNorth, Rect: models.Rect{MinX: sx(refBoxMinX), MinY: 0, MaxX: sx(refBoxMaxX), MaxY: sy(refBoxMinY)}},
		{Name: models.ZoneSouth, Rect: models.Rect{MinX: sx(refBoxMinX), MinY: sy(refBoxMaxY), MaxX: sx(refBoxMaxX), MaxY: height}},
		{Name: models.ZoneEast, Rect: models.Rect{MinX: sx(refBoxMaxX), MinY: sy(refBoxMinY), MaxX: width, MaxY: sy(refBoxMaxY)}},
		{Name: models.ZoneWest, Rect: models.Rect{MinX: 0, MinY: sy(refBoxMinY), MaxX: sx(refBoxMinX), MaxY: sy(refBoxMaxY)}},
	}
}

// Widen grows r around its center by dx and dy pixels in total, clamped to the frame.
func Widen(r models.Rect, dx, dy, width, height int) models.Rect {
	cx, cy := (r.MinX+r.MaxX)/2, (r.MinY+r.MaxY)/2
	halfW := (r.MaxX-r.MinX)/2 + dx/2
	halfH := (r.MaxY-r.MinY)/2 + dy/2

	return models.Rect{
		MinX: max(cx-halfW, 0),
		MinY: max(cy-halfH, 0),
		MaxX: min(cx+halfW, width),
		MaxY: min(cy+halfH, height),
	}
}

// FromConfig builds the zone table: stored zones take precedence over the
// reference layout, explicit env overrides take precedence over both, and
// widening is applied last.
func FromConfig(cfg *config.Config, stored map[models.ZoneName]models.Rect) (*Table, error) {
	layout := ReferenceLayout(cfg.FrameWidth, cfg.FrameHeight)
	for i, z := range layout {
		if r, ok := stored[z.Name]; ok {
			layout[i].Rect = r
		}
		if r, ok := cfg.Zones[z.Name]; ok {
			layout[i].Rect = r
		}
		if cfg.ZoneWidenX != 0 || cfg.ZoneWidenY != 0 {
			layout[i].Rect = Widen(layout[i].Rect, cfg.ZoneWidenX, cfg.ZoneWidenY, cfg.FrameWidth, cfg.FrameHeight)
		}
	}
	return NewTable(layout)
}
