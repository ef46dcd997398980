// Package zone holds the per-zone registry: the ZoneEntry type, its
// configuration, and the capability matrix the router consults before
// dispatching a verb to a backend.
package zone

import (
	"github.com/rudyberends/lox-audioserver-sub001/internal/backend"
	"github.com/rudyberends/lox-audioserver-sub001/internal/content"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

// Config is the persisted, user-facing description of a zone: its backend,
// connection details, and volume policy. It is the unit internal/config
// reads and writes.
type Config struct {
	ZoneID       int    `json:"zoneId"`
	Name         string `json:"name"`
	BackendKind  string `json:"backend"`
	IP           string `json:"ip,omitempty"`
	MAPlayerID   string `json:"maPlayerId,omitempty"`
	SourceName   string `json:"sourceName,omitempty"`
	VolumeMin    int    `json:"volumeMin"`
	VolumeMax    int    `json:"volumeMax"`
	VolumeDefault int   `json:"volumeDefault"`
	Provider     string `json:"provider,omitempty"`
}

// CapabilityKind enumerates the dimensions a backend can support.
type CapabilityKind int

const (
	CapabilityControl CapabilityKind = iota
	CapabilityContent
	CapabilityGrouping
	CapabilityAlerts
	CapabilityTTS
	capabilityCount
)

// CapabilityLevel ranks how a kind is supported.
type CapabilityLevel int

const (
	CapabilityNone CapabilityLevel = iota
	CapabilityNative
	CapabilityAdapter
)

// Matrix is a fixed-size capability table keyed by CapabilityKind.
type Matrix [capabilityCount]CapabilityLevel

// Get returns the level for kind.
func (m Matrix) Get(kind CapabilityKind) CapabilityLevel {
	return m[kind]
}

// Supports reports whether kind is supported at all (native or adapter).
func (m Matrix) Supports(kind CapabilityKind) bool {
	return m[kind] != CapabilityNone
}

// UpgradeContent raises CapabilityContent to adapter level, used when a
// ContentAdapter is attached to a zone whose backend only natively supports
// none or native-level content.
func (m Matrix) UpgradeContent() Matrix {
	out := m
	if out[CapabilityContent] != CapabilityAdapter {
		out[CapabilityContent] = CapabilityAdapter
	}
	return out
}

// Entry is one zone's full runtime state: its backend connection, config,
// last observed status, queue, and capability matrix. Mutated only through
// Manager's per-zone actor, never directly.
type Entry struct {
	ZoneID         int
	Backend        backend.Driver
	Config         Config
	Status         status.PlayerStatus
	Queue          *status.Queue
	Capabilities   Matrix
	ContentAdapter content.Adapter
}
