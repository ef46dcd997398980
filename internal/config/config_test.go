package config

import (
	"os"
	"testing"
	"time"

	"github.com/rudyberends/lox-audioserver-sub001/internal/zone"
)

func TestLoadDefaultsOnMissingFile(t *testing.T) {
	s := New(t.TempDir(), "")
	doc, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Provider != "dummy" || len(doc.Zones) != 0 {
		t.Fatalf("unexpected default document: %+v", doc)
	}
}

func TestSaveFlushRoundTrip(t *testing.T) {
	s := New(t.TempDir(), "")
	doc := Document{
		Zones:    []zone.Config{{ZoneID: 1, Name: "Kitchen", BackendKind: "musiccast"}},
		Provider: "musicassistant",
	}
	s.Save(doc)
	if err := s.Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Provider != "musicassistant" || len(reloaded.Zones) != 1 || reloaded.Zones[0].Name != "Kitchen" {
		t.Fatalf("unexpected reloaded document: %+v", reloaded)
	}
}

func TestSaveDebouncesMultipleWrites(t *testing.T) {
	s := New(t.TempDir(), "")
	s.Save(Document{Provider: "a"})
	s.Save(Document{Provider: "b"})
	s.Save(Document{Provider: "c"})

	time.Sleep(debounceDelay + 200*time.Millisecond)

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Provider != "c" {
		t.Fatalf("expected last pending write to win, got %q", doc.Provider)
	}
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "bad.json")
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Provider != "dummy" {
		t.Fatalf("expected fallback to defaults on corrupt file")
	}
}
