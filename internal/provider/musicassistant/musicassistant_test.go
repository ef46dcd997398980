package musicassistant

import (
	"testing"

	"github.com/rudyberends/lox-audioserver-sub001/internal/provider"
)

func TestParseSearchScopeDefaultsOnEmpty(t *testing.T) {
	s := parseSearchScope("mysource")
	want := []string{"tracks", "albums", "artists", "playlists"}
	for _, c := range want {
		if s.categories[c] != defaultSearchLimit {
			t.Fatalf("expected default category %q with limit %d, got %+v", c, defaultSearchLimit, s.categories)
		}
	}
	if s.source != "mysource" {
		t.Fatalf("unexpected source: %q", s.source)
	}
}

func TestParseSearchScopeExplicitCategories(t *testing.T) {
	s := parseSearchScope("mysource:tracks:5|albums:10")
	if s.categories["tracks"] != 5 || s.categories["albums"] != 10 {
		t.Fatalf("unexpected categories: %+v", s.categories)
	}
}

func TestParseSearchScopeBareCategoryUsesDefaultLimit(t *testing.T) {
	s := parseSearchScope("mysource:tracks")
	if s.categories["tracks"] != defaultSearchLimit {
		t.Fatalf("expected default limit for bare category, got %+v", s.categories)
	}
}

func TestPaginatePlaylistOutOfRange(t *testing.T) {
	full := provider.PlaylistResponse{Items: []provider.PlaylistItem{{ID: "1"}, {ID: "2"}}}
	out := paginatePlaylist(full, 10, 5)
	if len(out.Items) != 0 || out.TotalItems != 2 {
		t.Fatalf("unexpected pagination result: %+v", out)
	}
}

func TestPaginatePlaylistWithinRange(t *testing.T) {
	full := provider.PlaylistResponse{Items: []provider.PlaylistItem{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	out := paginatePlaylist(full, 1, 1)
	if len(out.Items) != 1 || out.Items[0].ID != "2" {
		t.Fatalf("unexpected pagination result: %+v", out)
	}
}

func TestCacheFolderItemLookupByDecodedID(t *testing.T) {
	a := &Adapter{folderCache: make(map[string]provider.FolderItem)}
	a.cacheFolderItem("folder1", provider.FolderItem{ID: "a%20b", Name: "Track"})
	if _, ok := a.lookupFolderItem("folder1", "a%20b"); !ok {
		t.Fatalf("expected lookup by original id to succeed")
	}
	if _, ok := a.lookupFolderItem("folder1", "a b"); !ok {
		t.Fatalf("expected lookup by decoded id to succeed")
	}
}
