// Package ndjson implements the Vendor-B zone backend: a streaming HTTP
// endpoint that emits one JSON object per line, reconnecting on any
// lifecycle event.
package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rudyberends/lox-audioserver-sub001/internal/backend"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

func init() {
	backend.Register("ndjson", newDriver)
}

const reconnectDelay = 5 * time.Second

// Driver streams newline-delimited notification objects from a Vendor-B
// device over plain HTTP and dispatches them by notification type.
type Driver struct {
	zoneID     int
	url        string
	commandURL string
	client     *http.Client
	sink       backend.StatusSink

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newDriver(cfg backend.ZoneConfig) (backend.Driver, error) {
	if cfg.IP == "" {
		return nil, fmt.Errorf("ndjson: zone %d has no device ip configured", cfg.ZoneID)
	}
	return &Driver{
		zoneID:     cfg.ZoneID,
		commandURL: fmt.Sprintf("http://%s/command", cfg.IP),
		url:        fmt.Sprintf("http://%s/notifications", cfg.IP),
		client:     &http.Client{},
	}, nil
}

// Initialize starts the streaming read loop in the background; it does not
// block on the connection itself so startup is never delayed by a slow or
// unreachable device.
func (d *Driver) Initialize(ctx context.Context, sink backend.StatusSink) error {
	d.sink = sink
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	go d.streamLoop(ctx)
	return nil
}

func (d *Driver) streamLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := d.streamOnce(ctx); err != nil {
			slog.Debug("ndjson: stream ended, reconnecting", "zone", d.zoneID, "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (d *Driver) streamOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ndjson: unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var notif notification
		if err := json.Unmarshal(line, &notif); err != nil {
			slog.Warn("ndjson: malformed notification", "zone", d.zoneID, "err", err)
			continue
		}
		d.dispatch(notif)
	}
	return scanner.Err()
}

// SendCommand has no direct command path for transport-level verbs: the
// notification stream is receive-only, so basic playback controls are
// acknowledged and dropped. Content verbs (serviceplay, playlistplay,
// announce) reach the device instead through the content adapter acquired
// via AcquireClient, which posts to the same device's command endpoint.
func (d *Driver) SendCommand(ctx context.Context, verb string, args []string) error {
	slog.Debug("ndjson backend has no command path, dropped", "zone", d.zoneID, "verb", verb)
	return nil
}

// AcquireClient hands out the driver itself as the shared command client, so
// a content adapter can post to the device without opening a second
// connection. Satisfies content.AcquireClientFunc's return contract.
func (d *Driver) AcquireClient() (interface{}, error) {
	return d, nil
}

// PostCommand sends a content verb and its arguments to the device's
// command endpoint as a JSON object. Used by content adapters, not by the
// router directly.
func (d *Driver) PostCommand(ctx context.Context, cmd string, args []string) error {
	body, err := json.Marshal(map[string]interface{}{"cmd": cmd, "args": args})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.commandURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ndjson: command endpoint returned %s", resp.Status)
	}
	return nil
}

// Cleanup stops the streaming loop. Idempotent.
func (d *Driver) Cleanup(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return nil
}

// Probe performs a cheap reachability check for config validation.
func (d *Driver) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.url, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

type notification struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

// dispatchTable maps vendor notification types to a partial-status builder.
var dispatchTable = map[string]func(json.RawMessage) status.PlayerStatus{
	"PROGRESS_INFORMATION": progressInformation,
	"PLAYBACK_STATE":       playbackState,
	"VOLUME_CHANGED":       volumeChanged,
	"METADATA_CHANGED":     metadataChanged,
}

func (d *Driver) dispatch(n notification) {
	fn, ok := dispatchTable[n.Type]
	if !ok {
		slog.Debug("ndjson: unhandled notification type", "zone", d.zoneID, "type", n.Type)
		return
	}
	d.sink.MergeStatus(fn(n.State))
}

type progressState struct {
	State string  `json:"state"`
	Time  float64 `json:"time"`
	Aux   bool    `json:"aux"`
}

// progressInformation maps state -> mode, with special handling for
// auxiliary inputs: forces audiotype=linein (AudioTypeLineIn), duration=0.
func progressInformation(raw json.RawMessage) status.PlayerStatus {
	var ps progressState
	if err := json.Unmarshal(raw, &ps); err != nil {
		return status.PlayerStatus{}
	}
	out := status.PlayerStatus{Time: &ps.Time}
	mode := modeFromVendorState(ps.State)
	out.Mode = &mode
	if ps.Aux {
		auxType := status.AudioTypeLineIn
		out.AudioType = &auxType
		zero := 0.0
		out.Duration = &zero
	}
	return out
}

func modeFromVendorState(s string) status.Mode {
	switch s {
	case "PLAYING":
		return status.ModePlay
	case "PAUSED":
		return status.ModePause
	case "STOPPED":
		return status.ModeStop
	default:
		return status.ModeStop
	}
}

type playbackStateMsg struct {
	State string `json:"state"`
}

func playbackState(raw json.RawMessage) status.PlayerStatus {
	var ps playbackStateMsg
	if err := json.Unmarshal(raw, &ps); err != nil {
		return status.PlayerStatus{}
	}
	mode := modeFromVendorState(ps.State)
	return status.PlayerStatus{Mode: &mode}
}

type volumeMsg struct {
	Volume int `json:"volume"`
}

func volumeChanged(raw json.RawMessage) status.PlayerStatus {
	var vm volumeMsg
	if err := json.Unmarshal(raw, &vm); err != nil {
		return status.PlayerStatus{}
	}
	return status.PlayerStatus{Volume: &vm.Volume}
}

type metadataMsg struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	CoverURL string `json:"coverurl"`
}

func metadataChanged(raw json.RawMessage) status.PlayerStatus {
	var mm metadataMsg
	if err := json.Unmarshal(raw, &mm); err != nil {
		return status.PlayerStatus{}
	}
	out := status.PlayerStatus{}
	if mm.Title != "" {
		out.Title = &mm.Title
	}
	if mm.Artist != "" {
		out.Artist = &mm.Artist
	}
	if mm.Album != "" {
		out.Album = &mm.Album
	}
	if mm.CoverURL != "" {
		out.CoverURL = &mm.CoverURL
	}
	return out
}

var _ backend.Driver = (*Driver)(nil)
