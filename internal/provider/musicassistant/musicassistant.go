// Package musicassistant is the reference MediaProvider adapter: it talks
// to a remote host over the shared rpcclient websocket transport and
// implements the browsing/radio/playlist/search/favorites surfaces spec'd
// for the provider contract.
package musicassistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rudyberends/lox-audioserver-sub001/internal/provider"
	"github.com/rudyberends/lox-audioserver-sub001/internal/rpcclient"
)

func init() {
	provider.Register("musicassistant", newAdapter)
}

const (
	defaultRadioTTL          = 30 * time.Second
	defaultRadioDetailLimit  = 10
	playlistRefreshInterval  = 5 * time.Minute
	defaultSearchLimit       = 25
)

// Adapter is the reference MediaProvider implementation.
type Adapter struct {
	client *rpcclient.Client

	folderMu    sync.Mutex
	folderCache map[string]provider.FolderItem

	radioMu       sync.Mutex
	radioItems    []provider.RadioEntry
	radioFetched  time.Time
	radioTTL      time.Duration
	radioInflight chan struct{}

	playlistMu      sync.Mutex
	playlistCache   provider.PlaylistResponse
	playlistFetched time.Time
}

func newAdapter(config map[string]string) (provider.MediaProvider, error) {
	url := config["url"]
	if url == "" {
		url = "ws://127.0.0.1:8095/ws"
	}
	a := &Adapter{
		folderCache: make(map[string]provider.FolderItem),
		radioTTL:    defaultRadioTTL,
	}
	a.client = rpcclient.New(url, nil)
	if ttl := config["radioTTL"]; ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			a.radioTTL = d
		}
	}
	go a.playlistRefreshLoop()
	return a, nil
}

func (a *Adapter) ensureConnected(ctx context.Context) error {
	return a.client.Connect(ctx)
}

// cacheFolderItem stores item under its canonical id plus URL-encoded and
// decoded variants so a subsequent resolveMediaItem lookup is O(1)
// regardless of which form the caller used.
func (a *Adapter) cacheFolderItem(folderID string, item provider.FolderItem) {
	a.folderMu.Lock()
	defer a.folderMu.Unlock()
	key := folderID + "/" + item.ID
	a.folderCache[key] = item
	if enc := url.QueryEscape(item.ID); enc != item.ID {
		a.folderCache[folderID+"/"+enc] = item
	}
	if dec, err := url.QueryUnescape(item.ID); err == nil && dec != item.ID {
		a.folderCache[folderID+"/"+dec] = item
	}
}

func (a *Adapter) lookupFolderItem(folderID, itemID string) (provider.FolderItem, bool) {
	a.folderMu.Lock()
	defer a.folderMu.Unlock()
	item, ok := a.folderCache[folderID+"/"+itemID]
	return item, ok
}

// GetRadios returns two synthetic root entries regardless of upstream count.
func (a *Adapter) GetRadios(ctx context.Context) ([]provider.RadioEntry, error) {
	if err := a.refreshRadios(ctx); err != nil {
		slog.Warn("musicassistant: getRadios failed", "err", err)
		return nil, nil
	}
	return []provider.RadioEntry{
		{ID: "local", Name: "local", Folder: true},
		{ID: "custom", Name: "custom", Folder: true},
	}, nil
}

// refreshRadios fetches favorites once per radioTTL, with a single
// in-flight refresh shared by concurrent callers to guard against
// stampedes.
func (a *Adapter) refreshRadios(ctx context.Context) error {
	a.radioMu.Lock()
	if time.Since(a.radioFetched) < a.radioTTL && a.radioItems != nil {
		a.radioMu.Unlock()
		return nil
	}
	if a.radioInflight != nil {
		ch := a.radioInflight
		a.radioMu.Unlock()
		<-ch
		return nil
	}
	ch := make(chan struct{})
	a.radioInflight = ch
	a.radioMu.Unlock()

	err := a.doRefreshRadios(ctx)

	a.radioMu.Lock()
	a.radioInflight = nil
	a.radioMu.Unlock()
	close(ch)
	return err
}

func (a *Adapter) doRefreshRadios(ctx context.Context) error {
	if err := a.ensureConnected(ctx); err != nil {
		return err
	}
	resp, err := a.client.Call(ctx, "radios.favorites", nil)
	if err != nil {
		return err
	}
	var raw []radioRaw
	if err := json.Unmarshal(resp.Result, &raw); err != nil {
		return err
	}

	items := make([]provider.RadioEntry, 0, len(raw))
	for i, r := range raw {
		items = append(items, provider.RadioEntry{ID: r.ID, Name: r.Name, Provider: "musicassistant"})
		if i < defaultRadioDetailLimit {
			// Per-station detail is only fetched for the first N entries;
			// best-effort, failures don't abort the batch.
			if _, err := a.client.Call(ctx, "radios.detail", map[string]string{"id": r.ID}); err != nil {
				slog.Debug("musicassistant: radio detail fetch failed", "id", r.ID, "err", err)
			}
		}
	}

	a.radioMu.Lock()
	a.radioItems = items
	a.radioFetched = time.Now()
	a.radioMu.Unlock()
	return nil
}

type radioRaw struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetServiceFolder browses a service folder and caches every returned item.
func (a *Adapter) GetServiceFolder(ctx context.Context, service, folderID, user string, offset, limit int) (provider.FolderResponse, error) {
	if err := a.ensureConnected(ctx); err != nil {
		slog.Warn("musicassistant: getServiceFolder failed", "err", err)
		return provider.FolderResponse{Start: offset}, nil
	}
	resp, err := a.client.Call(ctx, "browse.folder", map[string]interface{}{
		"service": service, "folder": folderID, "user": user, "offset": offset, "limit": limit,
	})
	if err != nil {
		slog.Warn("musicassistant: getServiceFolder failed", "err", err)
		return provider.FolderResponse{Start: offset}, nil
	}
	var fr provider.FolderResponse
	if err := json.Unmarshal(resp.Result, &fr); err != nil {
		return provider.FolderResponse{Start: offset}, nil
	}
	fr.Start = offset
	for _, item := range fr.Items {
		a.cacheFolderItem(folderID, item)
	}
	return fr, nil
}

// ResolveStation resolves a station either from cache or by direct lookup.
func (a *Adapter) ResolveStation(ctx context.Context, service, stationID string) (*provider.FolderItem, error) {
	if item, ok := a.lookupFolderItem(service, stationID); ok {
		return &item, nil
	}
	if err := a.ensureConnected(ctx); err != nil {
		return nil, nil
	}
	resp, err := a.client.Call(ctx, "radios.resolve", map[string]string{"service": service, "id": stationID})
	if err != nil {
		slog.Warn("musicassistant: resolveStation failed", "err", err)
		return nil, nil
	}
	var item provider.FolderItem
	if err := json.Unmarshal(resp.Result, &item); err != nil || item.ID == "" {
		return nil, nil
	}
	return &item, nil
}

// GetPlaylists returns the cached playlist listing, refreshed in the
// background on playlistRefreshInterval.
func (a *Adapter) GetPlaylists(ctx context.Context, offset, limit int) (provider.PlaylistResponse, error) {
	a.playlistMu.Lock()
	cached := a.playlistCache
	hasCache := !a.playlistFetched.IsZero()
	a.playlistMu.Unlock()

	if !hasCache {
		if err := a.refreshPlaylists(ctx); err != nil {
			slog.Warn("musicassistant: getPlaylists failed", "err", err)
			return provider.PlaylistResponse{Start: offset}, nil
		}
		a.playlistMu.Lock()
		cached = a.playlistCache
		a.playlistMu.Unlock()
	}
	cached.Start = offset
	return paginatePlaylist(cached, offset, limit), nil
}

func paginatePlaylist(full provider.PlaylistResponse, offset, limit int) provider.PlaylistResponse {
	if limit <= 0 || offset >= len(full.Items) {
		return provider.PlaylistResponse{Items: nil, Start: offset, TotalItems: len(full.Items)}
	}
	end := offset + limit
	if end > len(full.Items) {
		end = len(full.Items)
	}
	return provider.PlaylistResponse{Items: full.Items[offset:end], Start: offset, TotalItems: len(full.Items)}
}

func (a *Adapter) refreshPlaylists(ctx context.Context) error {
	if err := a.ensureConnected(ctx); err != nil {
		return err
	}
	resp, err := a.client.Call(ctx, "playlists.list", nil)
	if err != nil {
		return err
	}
	var pr provider.PlaylistResponse
	if err := json.Unmarshal(resp.Result, &pr); err != nil {
		return err
	}
	a.playlistMu.Lock()
	a.playlistCache = pr
	a.playlistFetched = time.Now()
	a.playlistMu.Unlock()
	return nil
}

func (a *Adapter) playlistRefreshLoop() {
	ticker := time.NewTicker(playlistRefreshInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := a.refreshPlaylists(context.Background()); err != nil {
			slog.Debug("musicassistant: background playlist refresh failed", "err", err)
		}
	}
}

// GetPlaylistItems issues metadata and track RPCs in parallel and folds the
// playlist cover down into child items that lack their own artwork.
func (a *Adapter) GetPlaylistItems(ctx context.Context, playlistID string, offset, limit int) (*provider.PlaylistResponse, error) {
	if err := a.ensureConnected(ctx); err != nil {
		slog.Warn("musicassistant: getPlaylistItems failed", "err", err)
		return nil, nil
	}

	var meta struct {
		CoverURL string `json:"coverurl"`
	}
	var tracks provider.PlaylistResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := a.client.Call(gctx, "playlists.metadata", map[string]string{"id": playlistID})
		if err != nil {
			return err
		}
		return json.Unmarshal(resp.Result, &meta)
	})
	g.Go(func() error {
		resp, err := a.client.Call(gctx, "playlists.tracks", map[string]interface{}{"id": playlistID, "offset": offset, "limit": limit})
		if err != nil {
			return err
		}
		return json.Unmarshal(resp.Result, &tracks)
	})
	if err := g.Wait(); err != nil {
		slog.Warn("musicassistant: getPlaylistItems failed", "err", err)
		return nil, nil
	}

	for i := range tracks.Items {
		if tracks.Items[i].CoverURL == "" {
			tracks.Items[i].CoverURL = meta.CoverURL
		}
	}
	tracks.Start = offset
	return &tracks, nil
}

// ResolvePlaylist resolves a single playlist by service-qualified id.
func (a *Adapter) ResolvePlaylist(ctx context.Context, service, playlistID string) (*provider.PlaylistItem, error) {
	if err := a.ensureConnected(ctx); err != nil {
		return nil, nil
	}
	resp, err := a.client.Call(ctx, "playlists.resolve", map[string]string{"service": service, "id": playlistID})
	if err != nil {
		slog.Warn("musicassistant: resolvePlaylist failed", "err", err)
		return nil, nil
	}
	var item provider.PlaylistItem
	if err := json.Unmarshal(resp.Result, &item); err != nil || item.ID == "" {
		return nil, nil
	}
	return &item, nil
}

// GetMediaFolder browses the local library, caching results for direct-id
// shortcuts.
func (a *Adapter) GetMediaFolder(ctx context.Context, folderID string, offset, limit int) (provider.MediaFolderResponse, error) {
	if err := a.ensureConnected(ctx); err != nil {
		slog.Warn("musicassistant: getMediaFolder failed", "err", err)
		return provider.MediaFolderResponse{Start: offset}, nil
	}
	resp, err := a.client.Call(ctx, "library.folder", map[string]interface{}{"id": folderID, "offset": offset, "limit": limit})
	if err != nil {
		slog.Warn("musicassistant: getMediaFolder failed", "err", err)
		return provider.MediaFolderResponse{Start: offset}, nil
	}
	var mr provider.MediaFolderResponse
	if err := json.Unmarshal(resp.Result, &mr); err != nil {
		return provider.MediaFolderResponse{Start: offset}, nil
	}
	mr.Start = offset
	for _, item := range mr.Items {
		a.cacheFolderItem(folderID, item)
	}
	return mr, nil
}

// ResolveMediaItem works without a preceding folder listing for direct-id
// album/artist/track shortcuts, falling back to the folder cache first.
func (a *Adapter) ResolveMediaItem(ctx context.Context, folderID, itemID string) (*provider.FolderItem, error) {
	if item, ok := a.lookupFolderItem(folderID, itemID); ok {
		return &item, nil
	}
	if err := a.ensureConnected(ctx); err != nil {
		return nil, nil
	}
	resp, err := a.client.Call(ctx, "library.resolve", map[string]string{"folder": folderID, "id": itemID})
	if err != nil {
		slog.Warn("musicassistant: resolveMediaItem failed", "err", err)
		return nil, nil
	}
	var item provider.FolderItem
	if err := json.Unmarshal(resp.Result, &item); err != nil || item.ID == "" {
		return nil, nil
	}
	a.cacheFolderItem(folderID, item)
	return &item, nil
}

// GetFavorites queries five underlying category lists and maps each into
// the favorite shape; entries without a resolvable audiopath are dropped.
func (a *Adapter) GetFavorites(ctx context.Context, zoneID int, offset, limit int) (provider.FavoriteResponse, error) {
	if err := a.ensureConnected(ctx); err != nil {
		slog.Warn("musicassistant: getFavorites failed", "err", err)
		return provider.FavoriteResponse{Start: offset}, nil
	}

	categories := []string{"tracks", "albums", "artists", "playlists", "radios"}
	var mu sync.Mutex
	var all []provider.FolderItem

	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range categories {
		cat := cat
		g.Go(func() error {
			resp, err := a.client.Call(gctx, "favorites.list", map[string]string{"category": cat})
			if err != nil {
				slog.Debug("musicassistant: favorites category fetch failed", "category", cat, "err", err)
				return nil
			}
			var items []provider.FolderItem
			if err := json.Unmarshal(resp.Result, &items); err != nil {
				return nil
			}
			filtered := items[:0]
			for _, it := range items {
				if it.AudioPath != "" {
					filtered = append(filtered, it)
				}
			}
			mu.Lock()
			all = append(all, filtered...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return provider.FavoriteResponse{Items: all, Start: offset, TotalItems: len(all)}, nil
}

// GetRecentlyPlayed and ClearRecentlyPlayed are simple passthroughs.
func (a *Adapter) GetRecentlyPlayed(ctx context.Context, zoneID int, limit int) (provider.RecentResponse, error) {
	if err := a.ensureConnected(ctx); err != nil {
		return provider.RecentResponse{}, nil
	}
	resp, err := a.client.Call(ctx, "recent.list", map[string]interface{}{"zone": zoneID, "limit": limit})
	if err != nil {
		slog.Warn("musicassistant: getRecentlyPlayed failed", "err", err)
		return provider.RecentResponse{}, nil
	}
	var rr provider.RecentResponse
	json.Unmarshal(resp.Result, &rr)
	return rr, nil
}

func (a *Adapter) ClearRecentlyPlayed(ctx context.Context, zoneID int) error {
	if err := a.ensureConnected(ctx); err != nil {
		return nil
	}
	_, err := a.client.Call(ctx, "recent.clear", map[string]int{"zone": zoneID})
	return err
}

// searchScope parses the "<source>:<categories>|<more>" scope string. Unknown
// scopes default to tracks,albums,artists,playlists with limit 25.
type searchScope struct {
	source     string
	categories map[string]int
}

func parseSearchScope(scope string) searchScope {
	out := searchScope{categories: make(map[string]int)}
	parts := strings.SplitN(scope, ":", 2)
	out.source = parts[0]
	if len(parts) < 2 || parts[1] == "" {
		for _, c := range []string{"tracks", "albums", "artists", "playlists"} {
			out.categories[c] = defaultSearchLimit
		}
		return out
	}
	for _, group := range strings.Split(parts[1], "|") {
		cat, limit := group, defaultSearchLimit
		if idx := strings.Index(group, ":"); idx >= 0 {
			cat = group[:idx]
			if n, err := strconv.Atoi(group[idx+1:]); err == nil {
				limit = n
			}
		}
		if cat != "" {
			out.categories[cat] = limit
		}
	}
	if len(out.categories) == 0 {
		for _, c := range []string{"tracks", "albums", "artists", "playlists"} {
			out.categories[c] = defaultSearchLimit
		}
	}
	return out
}

// GlobalSearch runs the search RPC for the parsed scope and returns the
// categorised result. It publishes no events itself: internal/router's
// globalsearch handling publishes the preamble (fresh id + literal command)
// before this call and the result frame after it.
func (a *Adapter) GlobalSearch(ctx context.Context, source, query string) (provider.SearchResponse, error) {
	scope := parseSearchScope(source)

	if err := a.ensureConnected(ctx); err != nil {
		slog.Warn("musicassistant: globalSearch failed", "err", err)
		return provider.SearchResponse{}, nil
	}

	resp, err := a.client.Call(ctx, "search.global", map[string]interface{}{
		"scope": scope.source,
		"query": query,
		"categories": scope.categories,
	})
	if err != nil {
		slog.Warn("musicassistant: globalSearch failed", "err", err)
		return provider.SearchResponse{}, nil
	}
	var sr provider.SearchResponse
	if err := json.Unmarshal(resp.Result, &sr); err != nil {
		return provider.SearchResponse{}, nil
	}
	return sr, nil
}

var _ provider.MediaProvider = (*Adapter)(nil)
