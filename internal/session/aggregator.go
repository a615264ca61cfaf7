package session

import "github.com/afroash/hive-monitor/internal/models"

// Aggregator keeps the most recent reading per device address for one
// scanning session. Devices broadcast the same advertisement many times
// per window, so the newest decode always replaces the previous one
// wholesale; there is no field-level merging.
//
// Aggregator is not safe for concurrent use. Advertisement callbacks
// must be serialized before reaching it (see Collector).
type Aggregator struct {
	order  []string
	latest map[string]*models.Reading
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		latest: make(map[string]*models.Reading),
	}
}

// Ingest records a reading, replacing any earlier reading for the same
// address. The address keeps its original position from first sighting.
func (a *Aggregator) Ingest(r *models.Reading) {
	if _, seen := a.latest[r.Address]; !seen {
		a.order = append(a.order, r.Address)
	}
	a.latest[r.Address] = r
}

// Snapshot returns the latest reading per device, ordered by first
// sighting. The slice is fresh on every call.
func (a *Aggregator) Snapshot() []*models.Reading {
	out := make([]*models.Reading, 0, len(a.order))
	for _, addr := range a.order {
		out = append(out, a.latest[addr])
	}
	return out
}

// Len returns the number of distinct devices seen so far.
func (a *Aggregator) Len() int {
	return len(a.latest)
}
