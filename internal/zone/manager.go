package zone

import (
	"context"
	"sync"

	"github.com/rudyberends/lox-audioserver-sub001/internal/backend"
	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
	"github.com/rudyberends/lox-audioserver-sub001/internal/group"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

// zoneActor serializes all mutation of one Entry through a single
// goroutine-owned channel, the "one serial point per zone" spec.md §4.5
// requires. It is the teacher-style single-owner pattern applied per zone
// instead of globally.
type zoneActor struct {
	entry *Entry
	work  chan func()
	done  chan struct{}
}

func newZoneActor(entry *Entry) *zoneActor {
	a := &zoneActor{entry: entry, work: make(chan func(), 64), done: make(chan struct{})}
	go a.run()
	return a
}

func (a *zoneActor) run() {
	for {
		select {
		case fn := <-a.work:
			fn()
		case <-a.done:
			return
		}
	}
}

func (a *zoneActor) submit(fn func()) {
	select {
	case a.work <- fn:
	case <-a.done:
	}
}

func (a *zoneActor) stop() {
	close(a.done)
}

// Manager owns the zoneId -> Entry registry and is the sole mutation point
// for every zone's status, queue, and group membership.
type Manager struct {
	mu      sync.RWMutex
	actors  map[int]*zoneActor
	bus     *broadcast.Bus
	groups  *group.Tracker
	backendIndex map[string]int // backend-reported player id -> zoneId
	backendIndexMu sync.RWMutex
}

// NewManager creates an empty Manager wired to the given broadcast bus and
// group tracker.
func NewManager(bus *broadcast.Bus, groups *group.Tracker) *Manager {
	return &Manager{
		actors:       make(map[int]*zoneActor),
		bus:          bus,
		groups:       groups,
		backendIndex: make(map[string]int),
	}
}

// AddZone registers a new zone entry and starts its actor. The backend's
// Initialize is called with a StatusSink bound to this zone so it can push
// updates immediately.
func (m *Manager) AddZone(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	if _, exists := m.actors[entry.ZoneID]; exists {
		m.mu.Unlock()
		return nil
	}
	a := newZoneActor(entry)
	m.actors[entry.ZoneID] = a
	m.mu.Unlock()

	sink := &zoneSink{mgr: m, zoneID: entry.ZoneID}
	return entry.Backend.Initialize(ctx, sink)
}

// RemoveZone runs the backend's Cleanup and removes the zone from the
// registry and the group tracker.
func (m *Manager) RemoveZone(ctx context.Context, zoneID int) error {
	m.mu.Lock()
	a, ok := m.actors[zoneID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.actors, zoneID)
	m.mu.Unlock()

	m.groups.RemoveZone(zoneID)
	a.stop()
	return a.entry.Backend.Cleanup(ctx)
}

func (m *Manager) entry(zoneID int) *zoneActor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.actors[zoneID]
}

// MergeStatus applies a partial status update to zoneID's entry, diffs
// against the prior snapshot, and emits audio_event on change.
func (m *Manager) MergeStatus(zoneID int, upd status.PlayerStatus) {
	a := m.entry(zoneID)
	if a == nil {
		return
	}
	a.submit(func() {
		prev := a.entry.Status
		next := status.Merge(prev, upd)
		a.entry.Status = next
		if !status.Equal(prev, next) {
			m.bus.Publish(broadcast.Event{Type: broadcast.EventAudio, ZoneID: zoneID, Payload: next})
		}
	})
}

// UpdateZoneQueue replaces zoneID's queue view and emits audio_queue_event.
func (m *Manager) UpdateZoneQueue(zoneID int, items []status.QueueItem, start int, shuffle bool) {
	a := m.entry(zoneID)
	if a == nil {
		return
	}
	a.submit(func() {
		q := status.NewQueue(zoneID, items, start, shuffle)
		a.entry.Queue = &q
		m.bus.Publish(broadcast.Event{Type: broadcast.EventQueueChanged, ZoneID: zoneID, Payload: q})
	})
}

// UpdateZoneGroup upserts the group led by leader and emits
// audio_group_changed_event if membership actually changed.
func (m *Manager) UpdateZoneGroup(leader int, members []int, backendKind, externalID string, src group.Source) {
	rec, changed := m.groups.Upsert(leader, members, backendKind, externalID, src)
	if !changed {
		return
	}
	m.bus.Publish(broadcast.Event{Type: broadcast.EventGroupChanged, ZoneID: leader, Payload: rec})
}

// FindZoneByBackendPlayerID resolves a vendor-side player id (registered via
// RegisterBackendID) back to its owning zoneId.
func (m *Manager) FindZoneByBackendPlayerID(id string) (int, bool) {
	m.backendIndexMu.RLock()
	defer m.backendIndexMu.RUnlock()
	zoneID, ok := m.backendIndex[id]
	return zoneID, ok
}

// RegisterBackendID records the vendor-side id a zone's backend uses, so
// later events keyed by that id can be routed back to the zone.
func (m *Manager) RegisterBackendID(zoneID int, backendPlayerID string) {
	m.backendIndexMu.Lock()
	defer m.backendIndexMu.Unlock()
	m.backendIndex[backendPlayerID] = zoneID
}

// Snapshot returns a copy of zoneID's entry, or nil if unknown. Intended for
// read paths (HTTP handlers); mutation must go through the Merge*/Update*
// methods so it stays serialized through the zone's actor.
func (m *Manager) Snapshot(zoneID int) *Entry {
	a := m.entry(zoneID)
	if a == nil {
		return nil
	}
	var out Entry
	done := make(chan struct{})
	a.submit(func() {
		out = *a.entry
		close(done)
	})
	<-done
	return &out
}

// zoneSink adapts Manager to the backend.StatusSink interface for one zone.
type zoneSink struct {
	mgr    *Manager
	zoneID int
}

func (s *zoneSink) MergeStatus(update status.PlayerStatus) {
	s.mgr.MergeStatus(s.zoneID, update)
}

func (s *zoneSink) ReplaceQueue(items []status.QueueItem, start int, shuffle bool) {
	s.mgr.UpdateZoneQueue(s.zoneID, items, start, shuffle)
}

func (s *zoneSink) ReportGroup(externalID string, memberBackendIDs []string) {
	members := make([]int, 0, len(memberBackendIDs))
	for _, id := range memberBackendIDs {
		if zoneID, ok := s.mgr.FindZoneByBackendPlayerID(id); ok {
			members = append(members, zoneID)
		}
	}
	a := s.mgr.entry(s.zoneID)
	backendKind := ""
	if a != nil {
		backendKind = a.entry.Config.BackendKind
	}
	s.mgr.UpdateZoneGroup(s.zoneID, members, backendKind, externalID, group.SourceBackend)
}

var _ backend.StatusSink = (*zoneSink)(nil)
