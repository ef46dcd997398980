package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rudyberends/lox-audioserver-sub001/internal/alerts"
	"github.com/rudyberends/lox-audioserver-sub001/internal/apperr"
	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
	"github.com/rudyberends/lox-audioserver-sub001/internal/router"
)

type fakeDispatcher struct {
	resp router.Response
	err  error
}

func (f fakeDispatcher) Dispatch(ctx context.Context, cmd string) (router.Response, error) {
	if f.err != nil {
		return router.Response{}, f.err
	}
	return router.Response{Command: cmd, Payload: f.resp.Payload}, nil
}

func newTestServer(t *testing.T, dsp Dispatcher) *Server {
	t.Helper()
	bus := broadcast.NewBus()
	resolver, err := alerts.New(t.TempDir(), "cache", map[string]alerts.KnownAlert{
		"bell": {RelativePath: "bell.mp3", Title: "Bell"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(dsp, bus, resolver)
}

func TestServeCommandEchoesCommand(t *testing.T) {
	s := newTestServer(t, fakeDispatcher{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/audio/1/play")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var body router.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Command != "audio/1/play" {
		t.Fatalf("unexpected command echo: %q", body.Command)
	}
}

func TestServeCommandMapsErrorToStatus(t *testing.T) {
	s := newTestServer(t, fakeDispatcher{err: apperr.NotFound("zone not found")})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/audio/99/play")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServeAlertKnownType(t *testing.T) {
	s := newTestServer(t, fakeDispatcher{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/alerts/bell")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	// The backing file does not exist on disk, so http.ServeFile 404s; this
	// still confirms the alert type resolved and reached ServeFile rather
	// than failing at dispatch.
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 from missing backing file, got %d", resp.StatusCode)
	}
}

func TestEventToFrameSingleKey(t *testing.T) {
	ev := broadcast.Event{Type: broadcast.EventAudio, ZoneID: 1, Payload: map[string]int{"volume": 10}}
	frame := eventToFrame(ev)
	if len(frame) != 1 {
		t.Fatalf("expected single top-level key, got %d", len(frame))
	}
	if _, ok := frame[string(broadcast.EventAudio)]; !ok {
		t.Fatalf("expected key %q in frame", broadcast.EventAudio)
	}
}
