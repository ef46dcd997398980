package provider

import "context"

// dummyProvider answers every operation with an empty response rather than
// an error, the fallback for unconfigured or unknown provider keys.
type dummyProvider struct{}

func newDummyProvider(map[string]string) (MediaProvider, error) {
	return dummyProvider{}, nil
}

func (dummyProvider) GetRadios(ctx context.Context) ([]RadioEntry, error) { return nil, nil }

func (dummyProvider) GetServiceFolder(ctx context.Context, service, folderID, user string, offset, limit int) (FolderResponse, error) {
	return FolderResponse{Start: offset}, nil
}

func (dummyProvider) ResolveStation(ctx context.Context, service, stationID string) (*FolderItem, error) {
	return nil, nil
}

func (dummyProvider) GetPlaylists(ctx context.Context, offset, limit int) (PlaylistResponse, error) {
	return PlaylistResponse{Start: offset}, nil
}

func (dummyProvider) GetPlaylistItems(ctx context.Context, playlistID string, offset, limit int) (*PlaylistResponse, error) {
	return nil, nil
}

func (dummyProvider) ResolvePlaylist(ctx context.Context, service, playlistID string) (*PlaylistItem, error) {
	return nil, nil
}

func (dummyProvider) GetMediaFolder(ctx context.Context, folderID string, offset, limit int) (MediaFolderResponse, error) {
	return MediaFolderResponse{Start: offset}, nil
}

func (dummyProvider) ResolveMediaItem(ctx context.Context, folderID, itemID string) (*FolderItem, error) {
	return nil, nil
}

func (dummyProvider) GetFavorites(ctx context.Context, zoneID int, offset, limit int) (FavoriteResponse, error) {
	return FavoriteResponse{Start: offset}, nil
}

func (dummyProvider) GetRecentlyPlayed(ctx context.Context, zoneID int, limit int) (RecentResponse, error) {
	return RecentResponse{}, nil
}

func (dummyProvider) ClearRecentlyPlayed(ctx context.Context, zoneID int) error { return nil }

func (dummyProvider) GlobalSearch(ctx context.Context, source, query string) (SearchResponse, error) {
	return SearchResponse{}, nil
}

var _ MediaProvider = dummyProvider{}
