package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rudyberends/lox-audioserver-sub001/internal/apperr"
	"github.com/rudyberends/lox-audioserver-sub001/internal/backend"
	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
	"github.com/rudyberends/lox-audioserver-sub001/internal/favorites"
	"github.com/rudyberends/lox-audioserver-sub001/internal/group"
	"github.com/rudyberends/lox-audioserver-sub001/internal/provider"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
	"github.com/rudyberends/lox-audioserver-sub001/internal/zone"
)

// ZoneResolver is the subset of zone.Manager the router depends on.
type ZoneResolver interface {
	Snapshot(zoneID int) *zone.Entry
	MergeStatus(zoneID int, upd status.PlayerStatus)
	UpdateZoneGroup(leader int, members []int, backendKind, externalID string, src group.Source)
}

// Response is the normalized result of dispatching one command: an echoed
// command string plus whatever payload the verb produces.
type Response struct {
	Command string      `json:"command"`
	Payload interface{} `json:"payload,omitempty"`
}

// Router dispatches slash-separated command paths to zones, the media
// provider, and the favorites store.
type Router struct {
	zones      ZoneResolver
	getBackend func(zoneID int) backend.Driver
	mp         provider.MediaProvider
	favs       *favorites.Store
	bus        *broadcast.Bus
}

// New creates a Router wired to the given collaborators.
func New(zones ZoneResolver, getBackend func(int) backend.Driver, mp provider.MediaProvider, favs *favorites.Store, bus *broadcast.Bus) *Router {
	return &Router{zones: zones, getBackend: getBackend, mp: mp, favs: favs, bus: bus}
}

// Dispatch parses and executes cmd (the slash-separated path, without a
// leading slash) and returns its response.
func (r *Router) Dispatch(ctx context.Context, cmd string) (Response, error) {
	parts := strings.Split(strings.Trim(cmd, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return Response{}, apperr.BadRequest("empty command")
	}

	switch parts[0] {
	case "audio":
		return r.dispatchAudio(ctx, cmd, parts[1:])
	default:
		return Response{}, apperr.NotFound(fmt.Sprintf("unrecognised command root %q", parts[0]))
	}
}

func (r *Router) dispatchAudio(ctx context.Context, full string, parts []string) (Response, error) {
	if len(parts) < 2 {
		return Response{}, apperr.BadRequest("audio command requires a zone or cfg segment and a verb")
	}
	if parts[0] == "cfg" {
		return r.dispatchCfg(ctx, full, parts[1:])
	}

	zoneID, err := ParseInt(parts[0])
	if err != nil {
		return Response{}, err
	}
	if len(parts) >= 2 && parts[1] == "favorites" {
		return r.dispatchFavorites(ctx, full, zoneID, parts[2:])
	}
	return r.dispatchZoneVerb(ctx, full, zoneID, parts[1], parts[2:])
}

func (r *Router) dispatchZoneVerb(ctx context.Context, full string, zoneID int, verb string, args []string) (Response, error) {
	entry := r.zones.Snapshot(zoneID)
	if entry == nil {
		return Response{}, apperr.NotFound(fmt.Sprintf("zone %d not found", zoneID))
	}

	switch verb {
	case "volume":
		return r.handleVolume(full, zoneID, entry, args)
	case "shuffle":
		return r.handleShuffle(full, zoneID, args)
	case "repeat":
		return r.handleRepeat(full, zoneID, args)
	case "groupJoin", "groupJoinMany":
		return r.handleGroupJoin(full, zoneID, entry, args)
	case "groupLeave", "groupLeaveMany":
		return r.handleGroupLeave(full, zoneID, args)
	case "play", "resume", "pause", "stop", "queueplus", "queueminus", "position":
		return r.forwardToBackend(ctx, full, zoneID, verb, args)
	case "serviceplay", "playlistplay", "announce":
		return r.dispatchContentVerb(ctx, full, zoneID, entry, verb, args)
	case "favoriteplay":
		return r.handleFavoritePlay(ctx, full, zoneID, entry, args)
	case "queue":
		return r.dispatchQueueVerb(ctx, full, zoneID, args)
	default:
		return r.fallThroughToAdapter(ctx, full, zoneID, entry, verb, args)
	}
}

// dispatchContentVerb routes a content verb (serviceplay, playlistplay,
// announce) according to the zone's capability matrix: a backend with
// native content support gets it forwarded directly, a backend upgraded by
// a content adapter gets it executed there, and a backend with neither
// fails rather than silently dropping it.
func (r *Router) dispatchContentVerb(ctx context.Context, full string, zoneID int, entry *zone.Entry, verb string, args []string) (Response, error) {
	switch entry.Capabilities.Get(zone.CapabilityContent) {
	case zone.CapabilityNative:
		return r.forwardToBackend(ctx, full, zoneID, verb, args)
	case zone.CapabilityAdapter:
		if entry.ContentAdapter != nil {
			payload, _ := json.Marshal(args)
			if handled, err := entry.ContentAdapter.Execute(ctx, verb, payload); handled {
				if err != nil {
					return Response{}, apperr.Transport(err.Error())
				}
				return Response{Command: full}, nil
			}
		}
		return Response{}, apperr.BadRequest(fmt.Sprintf("unknown command %q", verb))
	default:
		return Response{}, apperr.BadRequest(fmt.Sprintf("zone %d does not support %q", zoneID, verb))
	}
}

// handleFavoritePlay resolves a stored favorite and dispatches it through
// the capability-gated serviceplay path, regardless of the verb the favorite
// was originally saved under.
func (r *Router) handleFavoritePlay(ctx context.Context, full string, zoneID int, entry *zone.Entry, args []string) (Response, error) {
	if len(args) == 0 {
		return Response{}, apperr.BadRequest("favoriteplay requires an id")
	}
	id, err := ParseInt(args[0])
	if err != nil {
		return Response{}, err
	}
	fav := r.favs.GetForPlayback(zoneID, id)
	if fav == nil {
		return Response{}, apperr.NotFound(fmt.Sprintf("favorite %d not found for zone %d", id, zoneID))
	}
	sourceID := fav.SourceID
	if sourceID == "" {
		sourceID = fav.AudioPath
	}
	if sourceID == "" {
		return Response{}, apperr.BadRequest(fmt.Sprintf("favorite %d has no playable source", id))
	}
	return r.dispatchContentVerb(ctx, full, zoneID, entry, "serviceplay", []string{sourceID})
}

func (r *Router) dispatchQueueVerb(ctx context.Context, full string, zoneID int, args []string) (Response, error) {
	if len(args) >= 2 && args[0] == "play" {
		return r.forwardToBackend(ctx, full, zoneID, "queue/play", args[1:])
	}
	return Response{}, apperr.BadRequest("unrecognised queue verb")
}

func (r *Router) forwardToBackend(ctx context.Context, full string, zoneID int, verb string, args []string) (Response, error) {
	drv := r.getBackend(zoneID)
	if drv == nil {
		return Response{}, apperr.NotFound(fmt.Sprintf("zone %d has no backend", zoneID))
	}
	if err := drv.SendCommand(ctx, verb, args); err != nil {
		return Response{}, apperr.Transport(err.Error())
	}
	return Response{Command: full}, nil
}

// fallThroughToAdapter is reached when a per-zone command produces no
// native handling from the backend's known verb set: it asks the zone's
// content adapter to execute it before giving up.
func (r *Router) fallThroughToAdapter(ctx context.Context, full string, zoneID int, entry *zone.Entry, verb string, args []string) (Response, error) {
	if entry.ContentAdapter != nil && entry.ContentAdapter.Handles(verb) {
		payload, _ := json.Marshal(args)
		handled, err := entry.ContentAdapter.Execute(ctx, verb, payload)
		if handled {
			if err != nil {
				return Response{}, apperr.Transport(err.Error())
			}
			return Response{Command: full}, nil
		}
	}
	return Response{}, apperr.BadRequest(fmt.Sprintf("unknown command %q", verb))
}

func (r *Router) handleVolume(full string, zoneID int, entry *zone.Entry, args []string) (Response, error) {
	if len(args) == 0 {
		return Response{}, apperr.BadRequest("volume requires a delta argument")
	}
	delta, err := ParseVolumeDelta(args[0])
	if err != nil {
		return Response{}, err
	}
	current := 0
	if entry.Status.Volume != nil {
		current = *entry.Status.Volume
	}
	next := current + delta
	r.zones.MergeStatus(zoneID, status.PlayerStatus{Volume: &next})
	return Response{Command: full, Payload: next}, nil
}

func (r *Router) handleShuffle(full string, zoneID int, args []string) (Response, error) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	want, err := ParseShuffle(arg)
	if err != nil {
		return Response{}, err
	}
	entry := r.zones.Snapshot(zoneID)
	if want == nil {
		current := false
		if entry != nil && entry.Status.Shuffle != nil {
			current = *entry.Status.Shuffle
		}
		toggled := !current
		want = &toggled
	}
	r.zones.MergeStatus(zoneID, status.PlayerStatus{Shuffle: want})
	return Response{Command: full, Payload: *want}, nil
}

func (r *Router) handleRepeat(full string, zoneID int, args []string) (Response, error) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	mode := ParseRepeat(arg)
	r.zones.MergeStatus(zoneID, status.PlayerStatus{Repeat: &mode})
	return Response{Command: full, Payload: int(mode)}, nil
}

func (r *Router) handleGroupJoin(full string, zoneID int, entry *zone.Entry, args []string) (Response, error) {
	if len(args) == 0 {
		return Response{}, apperr.BadRequest("groupJoin requires member ids")
	}
	members, err := SortedIDSet(args[0])
	if err != nil {
		return Response{}, err
	}
	r.zones.UpdateZoneGroup(zoneID, members, entry.Config.BackendKind, "", group.SourceManual)
	return Response{Command: full}, nil
}

func (r *Router) handleGroupLeave(full string, zoneID int, args []string) (Response, error) {
	r.zones.UpdateZoneGroup(zoneID, nil, "", "", group.SourceManual)
	return Response{Command: full}, nil
}

func (r *Router) dispatchFavorites(ctx context.Context, full string, zoneID int, args []string) (Response, error) {
	if len(args) == 0 {
		return Response{}, apperr.BadRequest("favorites command requires an operation")
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return Response{}, apperr.BadRequest("favorites/add requires a title")
		}
		sourceID := ""
		if len(args) >= 3 {
			sourceID = args[2]
		}
		resp, err := r.favs.Add(ctx, zoneID, args[1], sourceID, r.mp)
		if err != nil {
			return Response{}, apperr.Internal(err.Error())
		}
		return Response{Command: full, Payload: resp}, nil
	case "delete":
		if len(args) < 2 {
			return Response{}, apperr.BadRequest("favorites/delete requires an id")
		}
		id, err := ParseInt(args[1])
		if err != nil {
			return Response{}, err
		}
		resp, err := r.favs.Delete(zoneID, id)
		if err != nil {
			return Response{}, apperr.Internal(err.Error())
		}
		return Response{Command: full, Payload: resp}, nil
	case "reorder":
		if len(args) < 2 {
			return Response{}, apperr.BadRequest("favorites/reorder requires ordered ids")
		}
		ids, err := ParseIDSet(args[1])
		if err != nil {
			return Response{}, err
		}
		resp, err := r.favs.Reorder(zoneID, ids)
		if err != nil {
			return Response{}, apperr.Internal(err.Error())
		}
		return Response{Command: full, Payload: resp}, nil
	case "plus":
		if len(args) < 3 {
			return Response{}, apperr.BadRequest("favorites/plus requires an id and flag")
		}
		id, err := ParseInt(args[1])
		if err != nil {
			return Response{}, err
		}
		plus, err := ParseShuffle(args[2]) // same enable/disable vocabulary
		if err != nil {
			return Response{}, err
		}
		flag := plus != nil && *plus
		resp, err := r.favs.SetPlus(zoneID, id, flag)
		if err != nil {
			return Response{}, apperr.Internal(err.Error())
		}
		return Response{Command: full, Payload: resp}, nil
	case "copy":
		if len(args) < 2 {
			return Response{}, apperr.BadRequest("favorites/copy requires destination zones")
		}
		dests, err := ParseIDSet(args[1])
		if err != nil {
			return Response{}, err
		}
		if err := r.favs.Copy(zoneID, dests); err != nil {
			return Response{}, apperr.Internal(err.Error())
		}
		return Response{Command: full}, nil
	default:
		return Response{}, apperr.BadRequest(fmt.Sprintf("unknown favorites operation %q", args[0]))
	}
}

func (r *Router) dispatchCfg(ctx context.Context, full string, parts []string) (Response, error) {
	if len(parts) == 0 {
		return Response{}, apperr.BadRequest("cfg command requires an operation")
	}
	switch parts[0] {
	case "getradios":
		radios, err := r.mp.GetRadios(ctx)
		return respondOrEmpty(full, radios, err)
	case "getservicefolder":
		return r.cfgGetServiceFolder(ctx, full, parts[1:])
	case "getplaylists":
		return r.cfgGetPlaylists(ctx, full, parts[1:])
	case "getplaylistitems":
		return r.cfgGetPlaylistItems(ctx, full, parts[1:])
	case "getmediafolder":
		return r.cfgGetMediaFolder(ctx, full, parts[1:])
	case "resolvemediaitem":
		return r.cfgResolveMediaItem(ctx, full, parts[1:])
	case "getfavorites":
		return r.cfgGetFavorites(full, parts[1:])
	case "getrecent":
		return r.cfgGetRecent(ctx, full, parts[1:])
	case "globalsearch":
		return r.cfgGlobalSearch(ctx, full, parts[1:])
	default:
		return Response{}, apperr.BadRequest(fmt.Sprintf("unknown cfg operation %q", parts[0]))
	}
}

func respondOrEmpty(full string, payload interface{}, err error) (Response, error) {
	if err != nil {
		return Response{Command: full}, nil
	}
	return Response{Command: full, Payload: payload}, nil
}

func (r *Router) cfgGetServiceFolder(ctx context.Context, full string, args []string) (Response, error) {
	if len(args) < 5 {
		return Response{}, apperr.BadRequest("getservicefolder requires service/folderId/user/offset/limit")
	}
	offset, err := ParseInt(args[3])
	if err != nil {
		return Response{}, err
	}
	limit, err := ParseInt(args[4])
	if err != nil {
		return Response{}, err
	}
	resp, err := r.mp.GetServiceFolder(ctx, args[0], args[1], args[2], offset, limit)
	return respondOrEmpty(full, resp, err)
}

func (r *Router) cfgGetPlaylists(ctx context.Context, full string, args []string) (Response, error) {
	if len(args) < 2 {
		return Response{}, apperr.BadRequest("getplaylists requires offset/limit")
	}
	offset, err := ParseInt(args[0])
	if err != nil {
		return Response{}, err
	}
	limit, err := ParseInt(args[1])
	if err != nil {
		return Response{}, err
	}
	resp, err := r.mp.GetPlaylists(ctx, offset, limit)
	return respondOrEmpty(full, resp, err)
}

func (r *Router) cfgGetPlaylistItems(ctx context.Context, full string, args []string) (Response, error) {
	if len(args) < 3 {
		return Response{}, apperr.BadRequest("getplaylistitems requires playlistId/offset/limit")
	}
	offset, err := ParseInt(args[1])
	if err != nil {
		return Response{}, err
	}
	limit, err := ParseInt(args[2])
	if err != nil {
		return Response{}, err
	}
	resp, err := r.mp.GetPlaylistItems(ctx, args[0], offset, limit)
	return respondOrEmpty(full, resp, err)
}

func (r *Router) cfgGetMediaFolder(ctx context.Context, full string, args []string) (Response, error) {
	if len(args) < 3 {
		return Response{}, apperr.BadRequest("getmediafolder requires folderId/offset/limit")
	}
	offset, err := ParseInt(args[1])
	if err != nil {
		return Response{}, err
	}
	limit, err := ParseInt(args[2])
	if err != nil {
		return Response{}, err
	}
	resp, err := r.mp.GetMediaFolder(ctx, args[0], offset, limit)
	return respondOrEmpty(full, resp, err)
}

func (r *Router) cfgResolveMediaItem(ctx context.Context, full string, args []string) (Response, error) {
	if len(args) < 2 {
		return Response{}, apperr.BadRequest("resolvemediaitem requires folderId/itemId")
	}
	resp, err := r.mp.ResolveMediaItem(ctx, args[0], args[1])
	return respondOrEmpty(full, resp, err)
}

func (r *Router) cfgGetFavorites(full string, args []string) (Response, error) {
	if len(args) < 3 {
		return Response{}, apperr.BadRequest("getfavorites requires zoneId/offset/limit")
	}
	zoneID, err := ParseInt(args[0])
	if err != nil {
		return Response{}, err
	}
	offset, err := ParseInt(args[1])
	if err != nil {
		return Response{}, err
	}
	limit, err := ParseInt(args[2])
	if err != nil {
		return Response{}, err
	}
	return Response{Command: full, Payload: r.favs.Get(zoneID, offset, limit)}, nil
}

func (r *Router) cfgGetRecent(ctx context.Context, full string, args []string) (Response, error) {
	if len(args) < 2 {
		return Response{}, apperr.BadRequest("getrecent requires zoneId/limit")
	}
	zoneID, err := ParseInt(args[0])
	if err != nil {
		return Response{}, err
	}
	limit, err := ParseInt(args[1])
	if err != nil {
		return Response{}, err
	}
	resp, err := r.mp.GetRecentlyPlayed(ctx, zoneID, limit)
	return respondOrEmpty(full, resp, err)
}

// cfgGlobalSearch publishes a preamble broadcast before issuing the search
// and a second broadcast carrying the final results, matching the
// two-event globalsearch_result push SPEC_FULL.md describes; the HTTP/WS
// response itself also carries the final payload for callers that never
// subscribed to the broadcast.
func (r *Router) cfgGlobalSearch(ctx context.Context, full string, args []string) (Response, error) {
	if len(args) < 2 {
		return Response{}, apperr.BadRequest("globalsearch requires source/query")
	}
	searchID := uuid.NewString()
	if r.bus != nil {
		r.bus.Publish(broadcast.Event{
			Type:    broadcast.EventGlobalSearch,
			Payload: map[string]interface{}{"id": searchID, "preamble": true, "command": full},
		})
	}

	resp, err := r.mp.GlobalSearch(ctx, args[0], strings.Join(args[1:], "/"))
	if r.bus != nil {
		r.bus.Publish(broadcast.Event{
			Type:    broadcast.EventGlobalSearch,
			Payload: map[string]interface{}{"id": searchID, "preamble": false, "result": resp},
		})
	}
	return respondOrEmpty(full, resp, err)
}
