package counts

import "trafficsignal/internal/models"

// Aggregator holds the latest zone counts. Each processed frame replaces the
// previous counts entirely; between processed frames the last value stands.
type Aggregator struct {
	latest models.ZoneCount
	seq    uint64
}

func NewAggregator() *Aggregator {
	return &Aggregator{latest: models.NewZoneCount()}
}

// Replace installs counts as the current state.
func (a *Aggregator) Replace(counts models.ZoneCount) {
	next := models.NewZoneCount()
	for name, n := range counts {
		if n < 0 {
			n = 0
		}
		next[name] = n
	}
	a.latest = next
	a.seq++
}

// Counts returns a copy of the current per-zone counts.
func (a *Aggregator) Counts() models.ZoneCount {
	return a.latest.Clone()
}

// NS returns north + south.
func (a *Aggregator) NS() int {
	return a.latest[models.ZoneNorth] + a.latest[models.ZoneSouth]
}

// EW returns east + west.
func (a *Aggregator) EW() int {
	return a.latest[models.ZoneEast] + a.latest[models.ZoneWest]
}

// Totals returns both axis totals.
func (a *Aggregator) Totals() (ns, ew int) {
	return a.NS(), a.EW()
}

// Updates returns how many times the counts have been replaced.
func (a *Aggregator) Updates() uint64 {
	return a.seq
}
