package status

import "encoding/json"

// wireStatus is the miniserver-facing JSON shape for PlayerStatus: shuffle
// is numeric, everything else mirrors the internal field names.
type wireStatus struct {
	PlayerID  int     `json:"playerid"`
	Mode      *Mode   `json:"mode,omitempty"`
	Power     *Power  `json:"power,omitempty"`
	AudioType *int    `json:"audiotype,omitempty"`
	Repeat    *int    `json:"plrepeat,omitempty"`
	Shuffle   int     `json:"plshuffle"`
	Volume    *int    `json:"volume,omitempty"`

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

	Players     []int `json:"players,omitempty"`
	SyncedZones []int `json:"syncedzones,omitempty"`
}

// ToWire renders s in the miniserver's expected JSON shape.
func (s PlayerStatus) ToWire() json.RawMessage {
	w := wireStatus{
		PlayerID:   s.PlayerID,
		Mode:       s.Mode,
		Power:      s.Power,
		Volume:     s.Volume,
		Duration:   s.Duration,
		Time:       s.Time,
		PositionMs: s.PositionMs,
		DurationMs: s.DurationMs,
		Title:      s.Title,
		Artist:     s.Artist,
		Album:      s.Album,
		CoverURL:   s.CoverURL,
		Station:    s.Station,
		AudioPath:  s.AudioPath,
		QIndex:     s.QIndex,
		QID:        s.QID,
		Players:    s.Players,
		SyncedZones: s.SyncedZones,
		Shuffle:    s.WireShuffle(),
	}
	if s.AudioType != nil {
		v := int(*s.AudioType)
		w.AudioType = &v
	}
	if s.Repeat != nil {
		v := int(*s.Repeat)
		w.Repeat = &v
	}
	data, _ := json.Marshal(w)
	return data
}

// marshalForDiff produces a byte string suitable for change detection.
func marshalForDiff(s PlayerStatus) string {
	return string(s.ToWire())
}
