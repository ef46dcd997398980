package favorites

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
)

func newTestStore(t *testing.T) *Store {
	dir := t.TempDir()
	return New(dir, broadcast.NewBus())
}

func TestAddAssignsSlotContiguousIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := s.Add(ctx, 1, "Track", "", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	resp := s.Get(1, 0, 0)
	for i, it := range resp.Items {
		if it.Slot != i+1 {
			t.Fatalf("expected slot %d, got %d", i+1, it.Slot)
		}
		if it.ID != BaseFavoriteZone+i {
			t.Fatalf("expected id %d, got %d", BaseFavoriteZone+i, it.ID)
		}
	}
}

func TestDeleteResequencesSlots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, 1, "A", "", nil)
	s.Add(ctx, 1, "B", "", nil)
	s.Add(ctx, 1, "C", "", nil)

	mid := s.Get(1, 0, 0).Items[1].ID
	resp, err := s.Delete(1, mid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items after delete, got %d", len(resp.Items))
	}
	for i, it := range resp.Items {
		if it.Slot != i+1 || it.ID != BaseFavoriteZone+i {
			t.Fatalf("expected contiguous resequencing, got %+v", resp.Items)
		}
	}
}

func TestReorderPreservesUnmentioned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, 1, "A", "", nil)
	s.Add(ctx, 1, "B", "", nil)
	s.Add(ctx, 1, "C", "", nil)

	items := s.Get(1, 0, 0).Items
	idB := items[1].ID

	resp, err := s.Reorder(1, []int{idB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// IDs are reassigned from the new slots, so check order by name.
	if resp.Items[0].Name != "B" {
		t.Fatalf("expected B first, got %+v", resp.Items)
	}
	if resp.Items[1].Name != "A" {
		t.Fatalf("expected A to follow preserving original order, got %+v", resp.Items)
	}
}

func TestGetLimitZeroReturnsAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Add(ctx, 1, "Track", "", nil)
	}
	resp := s.Get(1, 0, 0)
	if len(resp.Items) != 5 {
		t.Fatalf("expected all 5 items, got %d", len(resp.Items))
	}
}

func TestUnknownFieldsSurviveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, 1, "Track", "", nil)

	path := s.path(1)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error reading file: %v", err)
	}

	var raw map[string]json.RawMessage
	json.Unmarshal(data, &raw)
	var items []json.RawMessage
	json.Unmarshal(raw["items"], &items)
	var itemMap map[string]json.RawMessage
	json.Unmarshal(items[0], &itemMap)
	itemMap["futureField"] = json.RawMessage(`"keep me"`)
	patched, _ := json.Marshal(itemMap)
	items[0] = patched
	patchedItems, _ := json.Marshal(items)
	raw["items"] = patchedItems
	patchedFile, _ := json.Marshal(raw)
	os.WriteFile(path, patchedFile, 0644)

	// Force reload from disk.
	delete(s.loaded, 1)
	resp, err := s.SetPlus(1, s.Get(1, 0, 0).Items[0].ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Items[0].Extra == nil || string(resp.Items[0].Extra["futureField"]) != `"keep me"` {
		t.Fatalf("expected unknown field to survive round trip, got %+v", resp.Items[0].Extra)
	}
}

func TestCopyResequencesRelativeToDestination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Add(ctx, 1, "A", "", nil)
	s.Add(ctx, 1, "B", "", nil)

	if err := s.Copy(1, []int{2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, dest := range []int{2, 3} {
		resp := s.Get(dest, 0, 0)
		if len(resp.Items) != 2 {
			t.Fatalf("expected 2 items copied to zone %d, got %d", dest, len(resp.Items))
		}
		for i, it := range resp.Items {
			if it.ID != BaseFavoriteZone+i {
				t.Fatalf("expected resequenced id %d, got %d", BaseFavoriteZone+i, it.ID)
			}
		}
	}
}

func TestSlugifyTitle(t *testing.T) {
	if got := slugify("Jazz 24 / Classic!"); got != "jazz-24-classic" {
		t.Fatalf("unexpected slug: %q", got)
	}
}
