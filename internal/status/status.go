// Package status defines the normalized PlayerStatus snapshot every backend
// maps into, and the field-by-field merge used to apply partial updates.
// Every field is optional; the zone manager keeps the last known value.
package status

// Mode mirrors the miniserver wire values for playback mode.
type Mode string

const (
	ModePlay   Mode = "play"
	ModePause  Mode = "pause"
	ModeStop   Mode = "stop"
	ModeResume Mode = "resume"
)

// Power mirrors the miniserver wire values for zone power state.
type Power string

const (
	PowerOn        Power = "on"
	PowerOff       Power = "off"
	PowerStarting  Power = "starting"
	PowerUpdating  Power = "updating"
	PowerRebooting Power = "rebooting"
	PowerOffline   Power = "offline"
)

// AudioType is the numeric media-type enum the miniserver expects on wire.
type AudioType int

const (
	AudioTypeFile      AudioType = 0
	AudioTypeRadio     AudioType = 1
	AudioTypePlaylist  AudioType = 2
	AudioTypeLineIn    AudioType = 3
	AudioTypeAirPlay   AudioType = 4
	AudioTypeSpotify   AudioType = 5
	AudioTypeBluetooth AudioType = 6
	AudioTypeSoundsuit AudioType = 7
)

// RepeatMode fixes the lox=1/lox=3 ambiguity noted in spec.md §9: 1 means
// "repeat queue", 3 means "repeat track". 0 means no repeat.
type RepeatMode int

const (
	RepeatNone  RepeatMode = 0
	RepeatQueue RepeatMode = 1
	RepeatTrack RepeatMode = 3
)

// PlayerStatus is the normalized player snapshot. Pointer fields are the
// "optional on partial update" slots from spec.md §3.2: nil means "backend
// did not report this field in this update", not "cleared".
type PlayerStatus struct {
	PlayerID int `json:"playerid"`

	Mode      *Mode      `json:"mode,omitempty"`
	Power     *Power     `json:"power,omitempty"`
	AudioType *AudioType `json:"audiotype,omitempty"`
	Repeat    *RepeatMode `json:"plrepeat,omitempty"`
	Shuffle   *bool      `json:"-"` // serialised numeric on wire, see ToWire
	Volume    *int       `json:"volume,omitempty"`

	Duration   *float64 `json:"duration,omitempty"`
	Time       *float64 `json:"time,omitempty"`
	PositionMs *int64   `json:"position_ms,omitempty"`
	DurationMs *int64   `json:"duration_ms,omitempty"`

	Title     *string `json:"title,omitempty"`
	Artist    *string `json:"artist,omitempty"`
	Album     *string `json:"album,omitempty"`
	CoverURL  *string `json:"coverurl,omitempty"`
	Station   *string `json:"station,omitempty"`
	AudioPath *string `json:"audiopath,omitempty"`

	QIndex *int    `json:"qindex,omitempty"`
	QID    *string `json:"qid,omitempty"`

	Players      []int `json:"players,omitempty"`
	SyncedZones  []int `json:"syncedzones,omitempty"`
}

// New returns the zero PlayerStatus for a zone, with PlayerID set.
func New(zoneID int) PlayerStatus {
	return PlayerStatus{PlayerID: zoneID}
}

// Merge applies every non-nil field of upd onto a copy of s and returns it.
// It never mutates s. This is the single merge primitive spec.md §4.5
// requires ("merge API"): field-by-field copy-if-present, never dynamic.
func Merge(s PlayerStatus, upd PlayerStatus) PlayerStatus {
	out := s
	out.PlayerID = s.PlayerID // playerid is owned by the zone, never by a backend update

	if upd.Mode != nil {
		out.Mode = upd.Mode
	}
	if upd.Power != nil {
		out.Power = upd.Power
	}
	if upd.AudioType != nil {
		out.AudioType = upd.AudioType
	}
	if upd.Repeat != nil {
		out.Repeat = upd.Repeat
	}
	if upd.Shuffle != nil {
		out.Shuffle = upd.Shuffle
	}
	if upd.Volume != nil {
		v := clampVolume(*upd.Volume)
		out.Volume = &v
	}
	if upd.Duration != nil {
		out.Duration = upd.Duration
	}
	if upd.Time != nil {
		out.Time = upd.Time
	}
	if upd.PositionMs != nil {
		out.PositionMs = upd.PositionMs
	}
	if upd.DurationMs != nil {
		out.DurationMs = upd.DurationMs
	}
	if upd.Title != nil {
		out.Title = upd.Title
	}
	if upd.Artist != nil {
		out.Artist = upd.Artist
	}
	if upd.Album != nil {
		out.Album = upd.Album
	}
	if upd.CoverURL != nil {
		out.CoverURL = upd.CoverURL
	}
	if upd.Station != nil {
		out.Station = upd.Station
	}
	if upd.AudioPath != nil {
		out.AudioPath = upd.AudioPath
	}
	if upd.QIndex != nil {
		out.QIndex = upd.QIndex
	}
	if upd.QID != nil {
		out.QID = upd.QID
	}
	if upd.Players != nil {
		out.Players = upd.Players
	}
	if upd.SyncedZones != nil {
		out.SyncedZones = upd.SyncedZones
	}
	return out
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Equal reports whether two statuses are field-for-field identical, used by
// the zone manager to skip no-op broadcasts.
func Equal(a, b PlayerStatus) bool {
	return marshalForDiff(a) == marshalForDiff(b)
}

// WireShuffle renders the Shuffle field as the numeric 0/1 the miniserver
// expects on output, regardless of the boolean internal representation
// (spec.md §9 open question: normalise to bool internally, serialise
// numeric on the wire since that's what's observed).
func (s PlayerStatus) WireShuffle() int {
	if s.Shuffle != nil && *s.Shuffle {
		return 1
	}
	return 0
}
