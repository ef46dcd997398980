// Package router parses the miniserver's slash-separated command grammar
// and dispatches to the zone manager, media provider, and favorites store.
package router

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rudyberends/lox-audioserver-sub001/internal/apperr"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

// ParseInt clamps on overflow and rejects NaN-equivalent (non-numeric)
// input with a typed error.
func ParseInt(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperr.BadRequest(fmt.Sprintf("argument %q is not numeric", s))
	}
	if math.IsNaN(f) {
		return 0, apperr.BadRequest(fmt.Sprintf("argument %q is NaN", s))
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	if f < math.MinInt32 {
		return math.MinInt32, nil
	}
	return int(f), nil
}

// ParseIDSet parses a comma-separated list of ids using set semantics:
// duplicates collapse, order of first appearance is preserved.
func ParseIDSet(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := ParseInt(part)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// SortedIDSet is ParseIDSet with its result additionally sorted, used
// wherever the router needs a canonical/deterministic member ordering.
func SortedIDSet(s string) ([]int, error) {
	ids, err := ParseIDSet(s)
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

// ParseVolumeDelta parses a signed relative volume change.
func ParseVolumeDelta(s string) (int, error) {
	return ParseInt(s)
}

// ParseShuffle maps the accepted shuffle vocabulary to a tri-state: true,
// false, or nil for "toggle based on current state" (empty input).
func ParseShuffle(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "enable", "true", "1", "yes":
		v := true
		return &v, nil
	case "disable", "false", "0", "no":
		v := false
		return &v, nil
	default:
		return nil, apperr.BadRequest(fmt.Sprintf("unrecognised shuffle value %q", s))
	}
}

// ParseRepeat maps the accepted repeat vocabulary to the normalized enum.
// Unknown values map to "off" (RepeatNone) rather than erroring, matching
// spec.md's stated fallback.
func ParseRepeat(s string) status.RepeatMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one", "track", "single", "2":
		return status.RepeatTrack
	case "all", "queue", "playlist", "1", "true", "yes":
		return status.RepeatQueue
	default:
		return status.RepeatNone
	}
}
