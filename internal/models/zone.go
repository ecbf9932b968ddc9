package models

import "fmt"

// ZoneName identifies one approach to the intersection.
type ZoneName string

const (
	ZoneNorth ZoneName = "north"
	ZoneSouth ZoneName = "south"
	ZoneEast  ZoneName = "east"
	ZoneWest  ZoneName = "west"
)

// ZoneNames lists every zone in a stable order.
var ZoneNames = []ZoneName{ZoneNorth, ZoneSouth, ZoneEast, ZoneWest}

// ParseZoneName validates a zone name.
func ParseZoneName(s string) (ZoneName, error) {
	for _, name := range ZoneNames {
		if string(name) == s {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown zone %q", s)
}

// Rect is an axis-aligned rectangle in frame pixel coordinates.
type Rect struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// ContainsStrict reports whether (x, y) lies strictly inside the rectangle.
// Points on an edge belong to neither of two adjacent zones.
func (r Rect) ContainsStrict(x, y int) bool {
	return r.MinX < x && x < r.MaxX && r.MinY < y && y < r.MaxY
}

// Valid reports whether the rectangle has a non-empty interior.
func (r Rect) Valid() bool {
	return r.MaxX > r.MinX && r.MaxY > r.MinY
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// Zone is a named static region of the frame.
type Zone struct {
	Name ZoneName `json:"name"`
	Rect Rect     `json:"rect"`
}

// Axis groups two opposite zones sharing a traffic phase.
type Axis string

const (
	AxisNS Axis = "ns"
	AxisEW Axis = "ew"
)

// AxisOf returns the axis a zone belongs to.
func AxisOf(name ZoneName) Axis {
	switch name {
	case ZoneNorth, ZoneSouth:
		return AxisNS
	default:
		return AxisEW
	}
}

// ZoneCount maps each zone to the number of objects whose centroid fell inside it.
type ZoneCount map[ZoneName]int

// NewZoneCount returns a ZoneCount with every zone present and zero.
func NewZoneCount() ZoneCount {
	zc := make(ZoneCount, len(ZoneNames))
	for _, name := range ZoneNames {
		zc[name] = 0
	}
	return zc
}

// Clone returns an independent copy.
func (zc ZoneCount) Clone() ZoneCount {
	out := make(ZoneCount, len(zc))
	for k, v := range zc {
		out[k] = v
	}
	return out
}

// Axis sums the counts of the zones belonging to axis.
func (zc ZoneCount) Axis(axis Axis) int {
	total := 0
	for name, n := range zc {
		if AxisOf(name) == axis {
			total += n
		}
	}
	return total
}
