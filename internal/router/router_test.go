package router

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rudyberends/lox-audioserver-sub001/internal/backend"
	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
	"github.com/rudyberends/lox-audioserver-sub001/internal/favorites"
	"github.com/rudyberends/lox-audioserver-sub001/internal/group"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
	"github.com/rudyberends/lox-audioserver-sub001/internal/zone"
)

type fakeZones struct {
	entries map[int]*zone.Entry
	merges  []status.PlayerStatus
	groups  []fakeGroupCall
}

type fakeGroupCall struct {
	leader      int
	members     []int
	backendKind string
	externalID  string
	src         group.Source
}

func newFakeZones() *fakeZones {
	return &fakeZones{entries: make(map[int]*zone.Entry)}
}

func (f *fakeZones) Snapshot(zoneID int) *zone.Entry {
	return f.entries[zoneID]
}

func (f *fakeZones) MergeStatus(zoneID int, upd status.PlayerStatus) {
	f.merges = append(f.merges, upd)
	e := f.entries[zoneID]
	if e == nil {
		return
	}
	if upd.Volume != nil {
		e.Status.Volume = upd.Volume
	}
	if upd.Shuffle != nil {
		e.Status.Shuffle = upd.Shuffle
	}
	if upd.Repeat != nil {
		e.Status.Repeat = upd.Repeat
	}
}

func (f *fakeZones) UpdateZoneGroup(leader int, members []int, backendKind, externalID string, src group.Source) {
	f.groups = append(f.groups, fakeGroupCall{leader, members, backendKind, externalID, src})
}

type fakeDriver struct {
	calls []string
	err   error
}

func (d *fakeDriver) Initialize(ctx context.Context, sink backend.StatusSink) error { return nil }
func (d *fakeDriver) SendCommand(ctx context.Context, verb string, args []string) error {
	d.calls = append(d.calls, verb)
	return d.err
}
func (d *fakeDriver) Cleanup(ctx context.Context) error { return nil }
func (d *fakeDriver) Probe(ctx context.Context) error   { return nil }

func newTestRouter(t *testing.T) (*Router, *fakeZones, *fakeDriver) {
	t.Helper()
	zones := newFakeZones()
	zones.entries[1] = &zone.Entry{Config: zone.Config{ZoneID: 1, BackendKind: "null"}}
	drv := &fakeDriver{}
	favs := favorites.New(t.TempDir(), nil)
	r := New(zones, func(int) backend.Driver { return drv }, nil, favs, broadcast.NewBus())
	return r, zones, drv
}

func TestDispatchUnknownRoot(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if _, err := r.Dispatch(context.Background(), "bogus/1"); err == nil {
		t.Fatalf("expected error for unrecognised command root")
	}
}

func TestDispatchZoneNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if _, err := r.Dispatch(context.Background(), "audio/99/play"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestDispatchPlayForwardsToBackend(t *testing.T) {
	r, _, drv := newTestRouter(t)
	resp, err := r.Dispatch(context.Background(), "audio/1/play")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Command != "audio/1/play" {
		t.Fatalf("unexpected command echo: %q", resp.Command)
	}
	if len(drv.calls) != 1 || drv.calls[0] != "play" {
		t.Fatalf("expected backend to receive play, got %v", drv.calls)
	}
}

func TestDispatchVolumeAppliesDelta(t *testing.T) {
	r, zones, _ := newTestRouter(t)
	start := 20
	zones.entries[1].Status.Volume = &start

	resp, err := r.Dispatch(context.Background(), "audio/1/volume/5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Payload.(int) != 25 {
		t.Fatalf("expected volume 25, got %v", resp.Payload)
	}
}

func TestDispatchShuffleToggleWithNoArg(t *testing.T) {
	r, zones, _ := newTestRouter(t)
	current := false
	zones.entries[1].Status.Shuffle = &current

	resp, err := r.Dispatch(context.Background(), "audio/1/shuffle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Payload.(bool) != true {
		t.Fatalf("expected toggle to true, got %v", resp.Payload)
	}
}

func TestDispatchRepeatSetsMode(t *testing.T) {
	r, _, _ := newTestRouter(t)
	resp, err := r.Dispatch(context.Background(), "audio/1/repeat/track")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Payload.(int) != int(status.RepeatTrack) {
		t.Fatalf("unexpected repeat payload: %v", resp.Payload)
	}
}

func TestDispatchGroupJoinUpdatesGroup(t *testing.T) {
	r, zones, _ := newTestRouter(t)
	if _, err := r.Dispatch(context.Background(), "audio/1/groupJoin/2,3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones.groups) != 1 {
		t.Fatalf("expected one group call, got %d", len(zones.groups))
	}
	call := zones.groups[0]
	if call.leader != 1 || len(call.members) != 2 {
		t.Fatalf("unexpected group call: %+v", call)
	}
}

func TestDispatchUnknownVerbFallsThroughToAdapter(t *testing.T) {
	r, zones, _ := newTestRouter(t)
	zones.entries[1].ContentAdapter = adapterFunc{
		handles: func(cmd string) bool { return true },
		execute: func(ctx context.Context, cmd string, payload []byte) (bool, error) { return true, nil },
	}
	resp, err := r.Dispatch(context.Background(), "audio/1/vendorSpecific/foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Command != "audio/1/vendorSpecific/foo" {
		t.Fatalf("unexpected command echo: %q", resp.Command)
	}
}

func TestDispatchUnknownVerbNoAdapterErrors(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if _, err := r.Dispatch(context.Background(), "audio/1/whatever"); err == nil {
		t.Fatalf("expected error for unknown verb with no content adapter")
	}
}

func TestDispatchServicePlayNativeForwardsToBackend(t *testing.T) {
	r, zones, drv := newTestRouter(t)
	zones.entries[1].Capabilities[zone.CapabilityContent] = zone.CapabilityNative
	if _, err := r.Dispatch(context.Background(), "audio/1/serviceplay/radio:musicassistant:1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drv.calls) != 1 || drv.calls[0] != "serviceplay" {
		t.Fatalf("expected backend to receive serviceplay, got %v", drv.calls)
	}
}

func TestDispatchServicePlayWithoutCapabilityErrors(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if _, err := r.Dispatch(context.Background(), "audio/1/serviceplay/radio:musicassistant:1"); err == nil {
		t.Fatalf("expected error when zone has no content capability")
	}
}

func TestDispatchServicePlayViaAdapter(t *testing.T) {
	r, zones, drv := newTestRouter(t)
	var gotCmd string
	zones.entries[1].Capabilities[zone.CapabilityContent] = zone.CapabilityAdapter
	zones.entries[1].ContentAdapter = adapterFunc{
		handles: func(cmd string) bool { return true },
		execute: func(ctx context.Context, cmd string, payload []byte) (bool, error) {
			gotCmd = cmd
			return true, nil
		},
	}
	if _, err := r.Dispatch(context.Background(), "audio/1/serviceplay/radio:musicassistant:1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotCmd != "serviceplay" {
		t.Fatalf("expected adapter to receive serviceplay, got %q", gotCmd)
	}
	if len(drv.calls) != 0 {
		t.Fatalf("expected backend not to be called when content is adapter-level, got %v", drv.calls)
	}
}

func TestDispatchFavoritePlayResolvesAndDispatches(t *testing.T) {
	r, zones, _ := newTestRouter(t)
	if _, err := r.favs.Add(context.Background(), 1, "Jazz Radio", "radio:musicassistant:42", nil); err != nil {
		t.Fatalf("unexpected error seeding favorite: %v", err)
	}

	var gotCmd string
	var gotArgs []string
	zones.entries[1].Capabilities[zone.CapabilityContent] = zone.CapabilityAdapter
	zones.entries[1].ContentAdapter = adapterFunc{
		handles: func(cmd string) bool { return true },
		execute: func(ctx context.Context, cmd string, payload []byte) (bool, error) {
			gotCmd = cmd
			_ = json.Unmarshal(payload, &gotArgs)
			return true, nil
		},
	}

	if _, err := r.Dispatch(context.Background(), "audio/1/favoriteplay/1000000"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotCmd != "serviceplay" {
		t.Fatalf("expected favoriteplay to dispatch via serviceplay, got %q", gotCmd)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "radio:musicassistant:42" {
		t.Fatalf("expected resolved source id to be forwarded, got %v", gotArgs)
	}
}

func TestDispatchFavoritePlayUnknownIDErrors(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if _, err := r.Dispatch(context.Background(), "audio/1/favoriteplay/999"); err == nil {
		t.Fatalf("expected error for unknown favorite id")
	}
}

type adapterFunc struct {
	handles func(cmd string) bool
	execute func(ctx context.Context, cmd string, payload []byte) (bool, error)
}

func (f adapterFunc) Handles(cmd string) bool { return f.handles(cmd) }
func (f adapterFunc) Execute(ctx context.Context, cmd string, payload []byte) (bool, error) {
	return f.execute(ctx, cmd, payload)
}
