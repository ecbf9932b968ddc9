package pipeline

import (
	"sync/atomic"

	"trafficsignal/internal/models"
)

// SnapshotPublisher receives every snapshot the pipeline publishes.
type SnapshotPublisher interface {
	PublishSnapshot(snapshot models.Snapshot)
}

// Status holds the most recent snapshot for concurrent readers.
type Status struct {
	latest atomic.Pointer[models.Snapshot]
}

func NewStatus() *Status {
	s := &Status{}
	s.latest.Store(&models.Snapshot{Counts: models.NewZoneCount()})
	return s
}

// Latest returns the last published snapshot. The caller owns the copy.
func (s *Status) Latest() models.Snapshot {
	snap := *s.latest.Load()
	snap.Counts = snap.Counts.Clone()
	return snap
}

// PublishSnapshot stores a private copy of snapshot.
func (s *Status) PublishSnapshot(snapshot models.Snapshot) {
	snapshot.Counts = snapshot.Counts.Clone()
	s.latest.Store(&snapshot)
}
