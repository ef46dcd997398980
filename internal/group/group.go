// Package group implements the sync-group tracker: the authoritative index
// of which zones are playing together, keyed by leader zone, with a
// secondary index by vendor-side external id.
package group

import (
	"sort"
	"sync"
	"time"
)

// Source records who created a group.
type Source string

const (
	SourceManual  Source = "manual"
	SourceBackend Source = "backend"
)

// Record is one sync group. Members is always sorted, leader first, deduped.
type Record struct {
	Leader     int
	Members    []int
	Backend    string
	ExternalID string
	Source     Source
	UpdatedAt  time.Time
}

func (r Record) clone() Record {
	m := make([]int, len(r.Members))
	copy(m, r.Members)
	r.Members = m
	return r
}

// Tracker is the process-wide group index. All methods are safe for
// concurrent use; each group leader effectively owns its own slice of state
// but the tracker serializes all mutation behind a single mutex since group
// topology changes are rare compared to per-zone status merges.
type Tracker struct {
	mu               sync.Mutex
	byLeader         map[int]*Record
	leaderByZone     map[int]int
	leaderByExternal map[string]int
	now              func() time.Time
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		byLeader:         make(map[int]*Record),
		leaderByZone:     make(map[int]int),
		leaderByExternal: make(map[string]int),
		now:              time.Now,
	}
}

// normalizeMembers returns a sorted, deduped member list with leader first.
func normalizeMembers(leader int, members []int) []int {
	set := make(map[int]struct{}, len(members)+1)
	set[leader] = struct{}{}
	for _, m := range members {
		set[m] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for m := range set {
		if m != leader {
			out = append(out, m)
		}
	}
	sort.Ints(out)
	return append([]int{leader}, out...)
}

func sameMembers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Upsert creates or updates the group led by leader. Groups with <= 1
// member do not exist: upserting with no extra members removes the group.
// Returns the resulting record (or nil if the group collapsed) and whether
// anything actually changed, so callers can skip redundant broadcasts.
func (t *Tracker) Upsert(leader int, members []int, backend string, externalID string, source Source) (*Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	norm := normalizeMembers(leader, members)
	if len(norm) <= 1 {
		changed := t.removeByLeaderLocked(leader)
		return nil, changed
	}

	existing, ok := t.byLeader[leader]
	if ok && sameMembers(existing.Members, norm) && existing.Backend == backend && existing.ExternalID == externalID {
		return existing, false
	}

	// Retire stale per-zone and external indices for this leader's old group.
	if ok {
		for _, m := range existing.Members {
			delete(t.leaderByZone, m)
		}
		if existing.ExternalID != "" {
			delete(t.leaderByExternal, existing.ExternalID)
		}
	}

	rec := &Record{
		Leader:     leader,
		Members:    norm,
		Backend:    backend,
		ExternalID: externalID,
		Source:     source,
		UpdatedAt:  t.now(),
	}
	t.byLeader[leader] = rec
	for _, m := range norm {
		t.leaderByZone[m] = leader
	}
	if externalID != "" {
		t.leaderByExternal[externalID] = leader
	}
	return rec, true
}

// RemoveByLeader deletes the group led by leader. Reports whether a group
// was actually removed.
func (t *Tracker) RemoveByLeader(leader int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeByLeaderLocked(leader)
}

func (t *Tracker) removeByLeaderLocked(leader int) bool {
	rec, ok := t.byLeader[leader]
	if !ok {
		return false
	}
	for _, m := range rec.Members {
		delete(t.leaderByZone, m)
	}
	if rec.ExternalID != "" {
		delete(t.leaderByExternal, rec.ExternalID)
	}
	delete(t.byLeader, leader)
	return true
}

// RemoveZone removes zoneID from whatever group it belongs to (if any). If
// zoneID was the leader, the whole group is removed; otherwise the group is
// re-upserted without it (collapsing to none if only one member remains).
func (t *Tracker) RemoveZone(zoneID int) bool {
	t.mu.Lock()
	leader, ok := t.leaderByZone[zoneID]
	t.mu.Unlock()
	if !ok {
		return false
	}
	if leader == zoneID {
		return t.RemoveByLeader(leader)
	}

	t.mu.Lock()
	rec, ok := t.byLeader[leader]
	if !ok {
		t.mu.Unlock()
		return false
	}
	remaining := make([]int, 0, len(rec.Members))
	for _, m := range rec.Members {
		if m != zoneID {
			remaining = append(remaining, m)
		}
	}
	backend, ext, src := rec.Backend, rec.ExternalID, rec.Source
	t.mu.Unlock()

	_, changed := t.Upsert(leader, remaining, backend, ext, src)
	return changed
}

// GetByZone returns the group zoneID currently belongs to, or nil.
func (t *Tracker) GetByZone(zoneID int) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	leader, ok := t.leaderByZone[zoneID]
	if !ok {
		return nil
	}
	rec, ok := t.byLeader[leader]
	if !ok {
		return nil
	}
	c := rec.clone()
	return &c
}

// GetByLeader returns the group led by leader, or nil.
func (t *Tracker) GetByLeader(leader int) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.byLeader[leader]
	if !ok {
		return nil
	}
	c := rec.clone()
	return &c
}

// GetByExternalID returns the group with the given vendor-side handle, or nil.
func (t *Tracker) GetByExternalID(externalID string) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	leader, ok := t.leaderByExternal[externalID]
	if !ok {
		return nil
	}
	rec, ok := t.byLeader[leader]
	if !ok {
		return nil
	}
	c := rec.clone()
	return &c
}

// GetAll returns every current group, sorted by leader zone id.
func (t *Tracker) GetAll() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, 0, len(t.byLeader))
	for _, rec := range t.byLeader {
		out = append(out, rec.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Leader < out[j].Leader })
	return out
}

// ClearAll removes every group.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byLeader = make(map[int]*Record)
	t.leaderByZone = make(map[int]int)
	t.leaderByExternal = make(map[string]int)
}
