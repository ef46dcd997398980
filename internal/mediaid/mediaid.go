// Package mediaid implements the canonical identifier grammar that crosses
// every component boundary in the audio server: the internal
// "library:provider:kind:id" family and the vendor-facing
// "library://kind/id?provider=p" family, plus the playlist: and radio:
// shorthands. External strings enter the system only through Parse.
package mediaid

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind enumerates the media kinds carried by the library: family.
type Kind string

const (
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindTrack    Kind = "track"
	KindPlaylist Kind = "playlist"
	KindRadio    Kind = "radio"
	KindAlbums   Kind = "albums"
	KindArtists  Kind = "artists"
	KindTracks   Kind = "tracks"
)

// thirdPartySchemes normalize into library:local:track:<scheme>:<id>.
var thirdPartySchemes = []string{"apple_music", "tidal", "deezer"}

// ID is the parsed, value-typed form of a canonical identifier. Its zero
// value represents "empty input" per the codec's edge-case contract.
type ID struct {
	Kind     Kind
	Provider string
	ItemID   string
}

// Empty reports whether id carries no information.
func (id ID) Empty() bool {
	return id.Kind == "" && id.Provider == "" && id.ItemID == ""
}

// Parse recognises the library://, library:, playlist:, radio: and bare
// "<kind>:<provider>:<id>" forms. Malformed percent/base64 sequences in the
// id segment degrade to the raw text rather than erroring; empty input
// returns a zero ID.
func Parse(s string) ID {
	if s == "" {
		return ID{}
	}

	if strings.HasPrefix(s, "library://") {
		return parseLegacyURI(s)
	}

	// Third-party track schemes normalize to library:local:track:<scheme>:<id>
	for _, scheme := range thirdPartySchemes {
		prefix := scheme + "://track/"
		if strings.HasPrefix(s, prefix) {
			return ID{Kind: KindTrack, Provider: "local", ItemID: scheme + ":" + strings.TrimPrefix(s, prefix)}
		}
	}

	parts := splitUnescaped(s, ':')
	switch {
	case len(parts) >= 1 && parts[0] == "playlist":
		if len(parts) >= 3 {
			return ID{Kind: KindPlaylist, Provider: decodeSeg(parts[1]), ItemID: decodeSeg(strings.Join(parts[2:], ":"))}
		}
		if len(parts) == 2 {
			return ID{Kind: KindPlaylist, ItemID: decodeSeg(parts[1])}
		}
	case len(parts) >= 1 && parts[0] == "radio":
		if len(parts) >= 3 {
			return ID{Kind: KindRadio, Provider: decodeSeg(parts[1]), ItemID: decodeSeg(strings.Join(parts[2:], ":"))}
		}
		if len(parts) == 2 {
			return ID{Kind: KindRadio, ItemID: decodeSeg(parts[1])}
		}
	case len(parts) >= 1 && parts[0] == "library":
		if len(parts) >= 4 {
			return ID{Kind: Kind(decodeSeg(parts[2])), Provider: decodeSeg(parts[1]), ItemID: decodeSeg(strings.Join(parts[3:], ":"))}
		}
	}

	// Bare "<kind>:<provider>:<id>" fallback form.
	if len(parts) >= 3 {
		return ID{Kind: Kind(decodeSeg(parts[0])), Provider: decodeSeg(parts[1]), ItemID: decodeSeg(strings.Join(parts[2:], ":"))}
	}

	// Unrecognised text degrades to a bare track id rather than erroring.
	return ID{ItemID: s}
}

func parseLegacyURI(s string) ID {
	u, err := url.Parse(s)
	if err != nil {
		return ID{ItemID: s}
	}
	kind := Kind(strings.Trim(u.Host+u.Path, "/"))
	// library://kind/id -> Host="kind", Path="/id"
	id := strings.TrimPrefix(u.Path, "/")
	if u.Host != "" {
		kind = Kind(u.Host)
	} else {
		segs := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if len(segs) == 2 {
			kind = Kind(segs[0])
			id = segs[1]
		}
	}
	provider := u.Query().Get("provider")
	decodedID, err := url.QueryUnescape(id)
	if err != nil {
		decodedID = id
	}
	return ID{Kind: kind, Provider: provider, ItemID: decodedID}
}

// splitUnescaped splits s on sep, but only at top level — it does not try to
// be a full escaping grammar, it simply mirrors Build's encoding so the
// round trip holds for ids produced by this package.
func splitUnescaped(s string, sep byte) []string {
	return strings.Split(s, string(sep))
}

func encodeSeg(s string) string { return url.QueryEscape(s) }

func decodeSeg(s string) string {
	d, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return d
}

// BuildLibraryURI builds the "library:<provider>:<kind>:<id>" canonical form.
func BuildLibraryURI(kind Kind, id string, provider string) string {
	return fmt.Sprintf("library:%s:%s:%s", encodeSeg(provider), encodeSeg(string(kind)), encodeSeg(id))
}

// BuildPlaylistURI builds the "playlist:<provider>:<id>" canonical form.
func BuildPlaylistURI(id string, provider string) string {
	if provider == "" {
		return fmt.Sprintf("playlist:%s", encodeSeg(id))
	}
	return fmt.Sprintf("playlist:%s:%s", encodeSeg(provider), encodeSeg(id))
}

// BuildRadioKey builds the "radio:<provider>:<id>" canonical form.
func BuildRadioKey(provider, id string) string {
	if provider == "" {
		return fmt.Sprintf("radio:%s", encodeSeg(id))
	}
	return fmt.Sprintf("radio:%s:%s", encodeSeg(provider), encodeSeg(id))
}

// NormalizeMediaURI bridges a vendor-facing library://... URI into the
// internal canonical form. Forms already in canonical shape pass through.
func NormalizeMediaURI(s string) string {
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "library://") {
		return s
	}
	id := parseLegacyURI(s)
	return BuildLibraryURI(id.Kind, id.ItemID, id.Provider)
}

// DenormalizeMediaURI is the inverse of NormalizeMediaURI: it produces the
// vendor-facing library://kind/id?provider=p form from any of the internal
// canonical forms. Round-trips losslessly with NormalizeMediaURI.
func DenormalizeMediaURI(s string) string {
	if s == "" {
		return s
	}
	id := Parse(s)
	if id.Empty() {
		return s
	}
	if id.Kind == KindTrack && id.Provider == "local" {
		for _, scheme := range thirdPartySchemes {
			if rest, ok := strings.CutPrefix(id.ItemID, scheme+":"); ok {
				return scheme + "://track/" + rest
			}
		}
	}
	v := url.Values{}
	if id.Provider != "" {
		v.Set("provider", id.Provider)
	}
	u := url.URL{
		Scheme:   "library",
		Host:     string(id.Kind),
		Path:     "/" + id.ItemID,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// ToPlaylistCommandURI coerces any recognised form to the command URI used
// for "play this playlist". If s does not parse to a usable id, fallbackID
// (already a full URI) is returned unchanged.
func ToPlaylistCommandURI(s string, provider string, fallbackID string) string {
	id := Parse(s)
	if id.ItemID == "" {
		return fallbackID
	}
	p := provider
	if p == "" {
		p = id.Provider
	}
	return BuildPlaylistURI(id.ItemID, p)
}
