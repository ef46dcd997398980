// Package httpcommand implements a content.Adapter for backends that have
// no native command channel of their own but expose a sibling HTTP endpoint
// for it, such as internal/backend/ndjson. It upgrades serviceplay,
// playlistplay and announce to CapabilityAdapter level rather than leaving
// them unsupported.
package httpcommand

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rudyberends/lox-audioserver-sub001/internal/content"
)

func init() {
	content.Register("httpcommand", newAdapter)
}

// commandPoster is the shape a backend's AcquireClient result must satisfy.
// Declared here rather than imported to keep internal/content free of a
// dependency on any concrete backend package.
type commandPoster interface {
	PostCommand(ctx context.Context, cmd string, args []string) error
}

var handledVerbs = map[string]bool{
	"serviceplay":  true,
	"playlistplay": true,
	"announce":     true,
}

type adapter struct {
	poster commandPoster
}

func newAdapter(backendKind, providerKey string, acquireClient content.AcquireClientFunc) (content.Adapter, error) {
	if acquireClient == nil {
		return nil, fmt.Errorf("httpcommand: backend %q has no client acquisition hook", backendKind)
	}
	client, err := acquireClient()
	if err != nil {
		return nil, err
	}
	poster, ok := client.(commandPoster)
	if !ok {
		return nil, fmt.Errorf("httpcommand: backend %q cannot post commands", backendKind)
	}
	return &adapter{poster: poster}, nil
}

// Handles reports whether cmd is one of the content verbs this adapter
// upgrades.
func (a *adapter) Handles(cmd string) bool {
	return handledVerbs[cmd]
}

// Execute posts cmd and its args (JSON-encoded []string) to the backend's
// command endpoint.
func (a *adapter) Execute(ctx context.Context, cmd string, payload []byte) (bool, error) {
	if !a.Handles(cmd) {
		return false, nil
	}
	var args []string
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &args); err != nil {
			return true, err
		}
	}
	if err := a.poster.PostCommand(ctx, cmd, args); err != nil {
		return true, err
	}
	return true, nil
}
