package state

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

var mirrorLogger = log.WithField("component", "mirror")

// Mirror is a viewer's read-only copy of the host snapshot. Every received
// payload overwrites it; nothing is merged beyond the partial family blocks.
type Mirror struct {
	snapshot Snapshot
	clock    Clock
	received int
	mu       sync.RWMutex
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{snapshot: Snapshot{Cursor: CursorDefault}}
}

// Replace swaps the whole mirror for the received snapshot (last write wins).
func (m *Mirror) Replace(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.clock.Update(s.Revision) {
		mirrorLogger.Debugf("applying out of order snapshot revision %d", s.Revision)
	}
	m.snapshot = s.Clone()
	m.received++
}

// Merge applies a partial payload onto the current mirror.
func (m *Mirror) Merge(p PartialSnapshot) {
	if p.Empty() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.clock.Update(p.Revision) {
		mirrorLogger.Debugf("applying out of order partial revision %d", p.Revision)
	}
	m.snapshot.ApplyPartial(p)
	m.received++
}

// Snapshot returns a deep copy of the current mirror.
func (m *Mirror) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone()
}

// Revision returns the latest revision seen.
func (m *Mirror) Revision() uint64 {
	return m.clock.Current()
}

// Received returns the number of payloads applied.
func (m *Mirror) Received() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.received
}
