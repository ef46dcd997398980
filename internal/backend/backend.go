// Package backend defines the zone-backend contract and the compile-time
// registry backends register themselves into, modeled on the teacher's
// NewStreamer type switch but generalized to a map so out-of-tree backends
// could register without touching this package.
package backend

import (
	"context"

	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

// Driver owns a single zone's device connection. Implementations live in
// subpackages (musiccast, ndjson, null) and push status updates through the
// StatusSink passed to Initialize.
type Driver interface {
	// Initialize starts the backend's connection/event loop. sink receives
	// partial status updates as they arrive; Initialize must not block past
	// startup — long-running work happens in goroutines it manages.
	Initialize(ctx context.Context, sink StatusSink) error

	// SendCommand delivers a router-dispatched verb and its arguments.
	SendCommand(ctx context.Context, verb string, args []string) error

	// Cleanup releases any held connections/resources. Called before a
	// zone's backend is replaced or the zone is removed.
	Cleanup(ctx context.Context) error

	// Probe reports whether the backend's device is currently reachable.
	Probe(ctx context.Context) error
}

// StatusSink is how a Driver reports status/queue/group changes back to the
// owning zone.Manager. Implementations merge, diff, and broadcast.
type StatusSink interface {
	MergeStatus(update status.PlayerStatus)
	ReplaceQueue(items []status.QueueItem, start int, shuffle bool)
	ReportGroup(externalID string, memberBackendIDs []string)
}

// Factory constructs a Driver for the given zone configuration. cfg is the
// ZoneConfig view below rather than zone.Config, to avoid an import cycle
// with internal/zone.
type Factory func(cfg ZoneConfig) (Driver, error)

// ZoneConfig is the subset of zone.Config a backend factory needs,
// duplicated here (rather than imported) to keep internal/backend free of a
// dependency on internal/zone, which itself depends on internal/backend.
type ZoneConfig struct {
	ZoneID     int
	IP         string
	MAPlayerID string
	Provider   string
}

var registry = make(map[string]Factory)

// Register adds a named backend factory. Called from each backend
// subpackage's init().
func Register(kind string, f Factory) {
	registry[kind] = f
}

// Lookup returns the factory registered for kind, if any.
func Lookup(kind string) (Factory, bool) {
	f, ok := registry[kind]
	return f, ok
}

// Kinds returns every registered backend kind, for diagnostics.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
