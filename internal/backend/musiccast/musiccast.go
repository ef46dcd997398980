// Package musiccast implements the Vendor-A zone backend: a websocket JSON-RPC
// device that pushes player_*/queue_*/queue_time_updated events and answers
// direct commands over the same connection.
package musiccast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rudyberends/lox-audioserver-sub001/internal/backend"
	"github.com/rudyberends/lox-audioserver-sub001/internal/rpcclient"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

func init() {
	backend.Register("musiccast", newDriver)
}

const expandThreshold = 3
const expandLimit = 250

// Driver talks to one Vendor-A device over a dedicated websocket client.
type Driver struct {
	zoneID     int
	playerID   string
	client     *rpcclient.Client
	sink       backend.StatusSink
	queueID    string
	groupLeaderID string
}

func newDriver(cfg backend.ZoneConfig) (backend.Driver, error) {
	if cfg.IP == "" {
		return nil, fmt.Errorf("musiccast: zone %d has no device ip configured", cfg.ZoneID)
	}
	d := &Driver{zoneID: cfg.ZoneID, playerID: cfg.MAPlayerID}
	url := fmt.Sprintf("ws://%s/rpc", cfg.IP)
	d.client = rpcclient.New(url, d.handleEvent)
	return d, nil
}

// Initialize connects, fetches the player list (for the admin suggestions
// snapshot), and subscribes to the three event streams.
func (d *Driver) Initialize(ctx context.Context, sink backend.StatusSink) error {
	d.sink = sink
	if err := d.client.Connect(ctx); err != nil {
		return err
	}

	if _, err := d.client.Call(ctx, "player.list", nil); err != nil {
		slog.Warn("musiccast: failed to fetch player list for suggestions snapshot", "zone", d.zoneID, "err", err)
	}

	for _, stream := range []string{"player_*", "queue_*", "queue_time_updated"} {
		if _, err := d.client.Call(ctx, "subscribe", map[string]string{"topic": stream}); err != nil {
			return fmt.Errorf("musiccast: subscribe %s: %w", stream, err)
		}
	}

	initial, err := d.client.Call(ctx, "player.status", map[string]string{"id": d.playerID})
	if err != nil {
		return err
	}
	d.sink.MergeStatus(parsePlayerStatus(initial.Result))
	return nil
}

// SendCommand translates a router-dispatched verb into the vendor RPC call.
func (d *Driver) SendCommand(ctx context.Context, verb string, args []string) error {
	payload := map[string]interface{}{"id": d.playerID, "args": args}
	_, err := d.client.Call(ctx, "player."+verb, payload)
	return err
}

// Cleanup tears down the websocket connection. Idempotent.
func (d *Driver) Cleanup(ctx context.Context) error {
	return d.client.Close()
}

// Probe performs a cheap reachability check for config validation.
func (d *Driver) Probe(ctx context.Context) error {
	return d.client.Connect(ctx)
}

type vendorEvent struct {
	Topic  string          `json:"topic"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// handleEvent dispatches pushed frames: an event is relevant iff its object
// id equals the configured player id, the active queue id, or the active
// group-leader id, or (for non queue/player events) it carries no object id.
func (d *Driver) handleEvent(frame rpcclient.Frame) {
	var ev vendorEvent
	if err := json.Unmarshal(frame.Params, &ev); err != nil {
		return
	}
	isQueueOrPlayer := ev.Topic == "queue_time_updated" || len(ev.Topic) >= 6 && ev.Topic[:6] == "queue_" || len(ev.Topic) >= 7 && ev.Topic[:7] == "player_"
	relevant := ev.Object == d.playerID || ev.Object == d.queueID || ev.Object == d.groupLeaderID || (!isQueueOrPlayer && ev.Object == "")
	if !relevant {
		return
	}

	switch {
	case ev.Topic == "queue_time_updated":
		d.handleQueueTimeUpdated(ev.Data)
	case len(ev.Topic) >= 6 && ev.Topic[:6] == "queue_":
		d.handleQueueEvent(ev.Data)
	case len(ev.Topic) >= 7 && ev.Topic[:7] == "player_":
		d.sink.MergeStatus(parsePlayerStatus(ev.Data))
		d.handleGroupFields(ev.Data)
	}
}

type timeUpdate struct {
	Time       float64 `json:"time"`
	PositionMs int64   `json:"position_ms"`
}

func (d *Driver) handleQueueTimeUpdated(data json.RawMessage) {
	var tu timeUpdate
	if err := json.Unmarshal(data, &tu); err != nil {
		return
	}
	t := tu.Time
	pos := tu.PositionMs
	upd := status.PlayerStatus{Time: &t, PositionMs: &pos}
	if tu.Time == 0 {
		pause := status.ModePause
		upd.Mode = &pause
	}
	d.sink.MergeStatus(upd)
}

type queuePush struct {
	QueueID string     `json:"queue_id"`
	Items   []rawQItem `json:"items"`
}

type rawQItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Album     string  `json:"album"`
	AudioPath string  `json:"audiopath"`
	CoverURL  string  `json:"coverurl"`
	Duration  float64 `json:"duration"`
}

func (d *Driver) handleQueueEvent(data json.RawMessage) {
	var qp queuePush
	if err := json.Unmarshal(data, &qp); err != nil {
		return
	}
	d.queueID = qp.QueueID

	if len(qp.Items) <= expandThreshold || missingIDs(qp.Items) {
		d.expandQueue(context.Background())
		return
	}
	d.sink.ReplaceQueue(toQueueItems(qp.Items), 0, false)
}

func missingIDs(items []rawQItem) bool {
	for _, it := range items {
		if it.ID == "" {
			return true
		}
	}
	return false
}

func (d *Driver) expandQueue(ctx context.Context) {
	resp, err := d.client.Call(ctx, "queue.items", map[string]interface{}{"id": d.queueID, "limit": expandLimit})
	if err != nil {
		slog.Warn("musiccast: queue expansion failed", "zone", d.zoneID, "err", err)
		return
	}
	var qp queuePush
	if err := json.Unmarshal(resp.Result, &qp); err != nil {
		return
	}
	d.sink.ReplaceQueue(toQueueItems(qp.Items), 0, false)
}

func toQueueItems(raw []rawQItem) []status.QueueItem {
	out := make([]status.QueueItem, len(raw))
	for i, it := range raw {
		out[i] = status.QueueItem{
			QIndex:    i,
			UniqueID:  it.ID,
			Title:     it.Title,
			Artist:    it.Artist,
			Album:     it.Album,
			AudioPath: it.AudioPath,
			CoverURL:  it.CoverURL,
			Duration:  it.Duration,
		}
	}
	return out
}

type groupFields struct {
	SyncedTo    string   `json:"synced_to"`
	GroupMembers []string `json:"group_members"`
	GroupChilds  []string `json:"group_childs"`
}

// handleGroupFields parses synced_to/group_members/group_childs and reports
// membership through the sink. A single-member list is reported too, so
// the tracker collapses the group; an empty or absent list reports nothing.
func (d *Driver) handleGroupFields(data json.RawMessage) {
	var gf groupFields
	if err := json.Unmarshal(data, &gf); err != nil {
		return
	}

	leaderID := gf.SyncedTo
	if leaderID == "" {
		leaderID = d.playerID
	}
	d.groupLeaderID = leaderID

	members := gf.GroupMembers
	if len(members) == 0 {
		members = gf.GroupChilds
	}
	if len(members) == 0 {
		return
	}

	externalID := "mc-" + leaderID
	d.sink.ReportGroup(externalID, members)
}

type rawPlayerStatus struct {
	Mode      string  `json:"mode"`
	Power     string  `json:"power"`
	Volume    *int    `json:"volume"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Album     string  `json:"album"`
	CoverURL  string  `json:"coverurl"`
	AudioPath string  `json:"audiopath"`
	Shuffle   *bool   `json:"shuffle"`
	Repeat    *string `json:"repeat"`
}

func parsePlayerStatus(raw json.RawMessage) status.PlayerStatus {
	var rp rawPlayerStatus
	if err := json.Unmarshal(raw, &rp); err != nil {
		return status.PlayerStatus{}
	}
	out := status.PlayerStatus{}
	if rp.Mode != "" {
		m := status.Mode(rp.Mode)
		out.Mode = &m
	}
	if rp.Power != "" {
		p := status.Power(rp.Power)
		out.Power = &p
	}
	out.Volume = rp.Volume
	if rp.Title != "" {
		out.Title = &rp.Title
	}
	if rp.Artist != "" {
		out.Artist = &rp.Artist
	}
	if rp.Album != "" {
		out.Album = &rp.Album
	}
	if rp.CoverURL != "" {
		out.CoverURL = &rp.CoverURL
	}
	if rp.AudioPath != "" {
		out.AudioPath = &rp.AudioPath
	}
	out.Shuffle = rp.Shuffle
	if rp.Repeat != nil {
		out.Repeat = repeatFromString(*rp.Repeat)
	}
	return out
}

func repeatFromString(s string) *status.RepeatMode {
	var r status.RepeatMode
	switch s {
	case "track", "one", "single":
		r = status.RepeatTrack
	case "queue", "all", "playlist":
		r = status.RepeatQueue
	default:
		if n, err := strconv.Atoi(s); err == nil {
			r = status.RepeatMode(n)
		} else {
			r = status.RepeatNone
		}
	}
	return &r
}

var _ backend.Driver = (*Driver)(nil)
