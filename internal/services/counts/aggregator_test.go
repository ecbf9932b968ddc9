package counts

import (
	"testing"

	"trafficsignal/internal/models"
)

func TestAggregator_StartsAtZero(t *testing.T) {
	a := NewAggregator()
	ns, ew := a.Totals()
	if ns != 0 || ew != 0 {
		t.Errorf("expected zero totals, got ns=%d ew=%d", ns, ew)
	}
	if len(a.Counts()) != 4 {
		t.Errorf("expected all zones present")
	}
}

func TestAggregator_AxisTotals(t *testing.T) {
	a := NewAggregator()
	a.Replace(models.ZoneCount{
		models.ZoneNorth: 2,
		models.ZoneSouth: 3,
		models.ZoneEast:  1,
		models.ZoneWest:  4,
	})

	if a.NS() != 5 {
		t.Errorf("NS = %d, expected 5", a.NS())
	}
	if a.EW() != 5 {
		t.Errorf("EW = %d, expected 5", a.EW())
	}
}

func TestAggregator_ReplaceNotMerge(t *testing.T) {
	a := NewAggregator()
	a.Replace(models.ZoneCount{models.ZoneNorth: 3, models.ZoneEast: 2})
	a.Replace(models.ZoneCount{models.ZoneSouth: 1})

	counts := a.Counts()
	if counts[models.ZoneNorth] != 0 || counts[models.ZoneEast] != 0 {
		t.Errorf("previous counts leaked into new state: %v", counts)
	}
	if counts[models.ZoneSouth] != 1 {
		t.Errorf("south = %d, expected 1", counts[models.ZoneSouth])
	}
	if a.Updates() != 2 {
		t.Errorf("Updates = %d, expected 2", a.Updates())
	}
}

func TestAggregator_CountsIsACopy(t *testing.T) {
	a := NewAggregator()
	in := models.ZoneCount{models.ZoneNorth: 1}
	a.Replace(in)

	in[models.ZoneNorth] = 9
	out := a.Counts()
	out[models.ZoneNorth] = 7

	if a.NS() != 1 {
		t.Errorf("aggregator state was mutated through a shared map")
	}
}

func TestAggregator_NegativeClampedToZero(t *testing.T) {
	a := NewAggregator()
	a.Replace(models.ZoneCount{models.ZoneWest: -3})
	if a.EW() != 0 {
		t.Errorf("EW = %d, expected 0", a.EW())
	}
}
