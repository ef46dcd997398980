package musiccast

import (
	"encoding/json"
	"testing"

	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

func TestParsePlayerStatus(t *testing.T) {
	raw := json.RawMessage(`{"mode":"play","power":"on","volume":42,"title":"Song"}`)
	s := parsePlayerStatus(raw)
	if s.Mode == nil || *s.Mode != status.ModePlay {
		t.Fatalf("unexpected mode: %+v", s.Mode)
	}
	if s.Volume == nil || *s.Volume != 42 {
		t.Fatalf("unexpected volume: %+v", s.Volume)
	}
	if s.Title == nil || *s.Title != "Song" {
		t.Fatalf("unexpected title: %+v", s.Title)
	}
}

func TestRepeatFromString(t *testing.T) {
	cases := map[string]status.RepeatMode{
		"track":    status.RepeatTrack,
		"single":   status.RepeatTrack,
		"queue":    status.RepeatQueue,
		"all":      status.RepeatQueue,
		"nonsense": status.RepeatNone,
	}
	for in, want := range cases {
		got := repeatFromString(in)
		if got == nil || *got != want {
			t.Fatalf("repeatFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMissingIDsDetection(t *testing.T) {
	items := []rawQItem{{ID: "1"}, {ID: ""}}
	if !missingIDs(items) {
		t.Fatalf("expected missing id to be detected")
	}
	items = []rawQItem{{ID: "1"}, {ID: "2"}}
	if missingIDs(items) {
		t.Fatalf("expected no missing ids")
	}
}

func TestToQueueItemsPreservesOrder(t *testing.T) {
	raw := []rawQItem{{ID: "a", Title: "First"}, {ID: "b", Title: "Second"}}
	out := toQueueItems(raw)
	if len(out) != 2 || out[0].QIndex != 0 || out[1].QIndex != 1 {
		t.Fatalf("unexpected queue items: %+v", out)
	}
	if out[0].Title != "First" || out[1].UniqueID != "b" {
		t.Fatalf("unexpected queue item fields: %+v", out)
	}
}
