package backend

import (
	"context"
	"testing"

	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

func TestNullBackendRegistered(t *testing.T) {
	f, ok := Lookup("null")
	if !ok {
		t.Fatalf("expected null backend to be registered")
	}
	drv, err := f(ZoneConfig{ZoneID: 1})
	if err != nil {
		t.Fatalf("unexpected error constructing null driver: %v", err)
	}
	if drv == nil {
		t.Fatalf("expected non-nil driver")
	}
}

type fakeSink struct {
	merges []status.PlayerStatus
}

func (s *fakeSink) MergeStatus(update status.PlayerStatus) { s.merges = append(s.merges, update) }
func (s *fakeSink) ReplaceQueue(items []status.QueueItem, start int, shuffle bool) {}
func (s *fakeSink) ReportGroup(externalID string, memberBackendIDs []string) {}

func TestNullDriverEmitsInitialStatus(t *testing.T) {
	f, _ := Lookup("null")
	drv, _ := f(ZoneConfig{ZoneID: 2})
	sink := &fakeSink{}
	ctx := context.Background()
	if err := drv.Initialize(ctx, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.merges) != 1 {
		t.Fatalf("expected exactly one initial status merge, got %d", len(sink.merges))
	}
	drv.Cleanup(ctx)
}
