package mediaid

import "testing"

func TestBuildParseRoundTrip(t *testing.T) {
	cases := []struct {
		kind     Kind
		provider string
		id       string
	}{
		{KindTrack, "musicassistant", "s24940"},
		{KindAlbum, "spotify", "weird:id:with:colons"},
		{KindPlaylist, "tunein", "p/with slashes"},
	}
	for _, c := range cases {
		built := BuildLibraryURI(c.kind, c.id, c.provider)
		parsed := Parse(built)
		if parsed.Kind != c.kind || parsed.Provider != c.provider || parsed.ItemID != c.id {
			t.Fatalf("round trip mismatch for %+v: got %+v from %q", c, parsed, built)
		}
	}
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	inputs := []string{
		"library://track/s24940?provider=musicassistant",
		"library://playlist/my%20mix?provider=tunein",
	}
	for _, x := range inputs {
		n := NormalizeMediaURI(x)
		d := DenormalizeMediaURI(n)
		if d != x {
			t.Fatalf("denormalize(normalize(%q)) = %q, want %q", x, d, x)
		}
		n2 := NormalizeMediaURI(DenormalizeMediaURI(n))
		if n2 != n {
			t.Fatalf("normalize(denormalize(normalize(%q))) = %q, want %q", x, n2, n)
		}
	}
}

func TestThirdPartySchemeRoundTrip(t *testing.T) {
	in := "tidal://track/12345"
	id := Parse(in)
	if id.Kind != KindTrack || id.Provider != "local" || id.ItemID != "tidal:12345" {
		t.Fatalf("unexpected parse of third-party scheme: %+v", id)
	}
	if d := DenormalizeMediaURI(NormalizeMediaURI(in)); d != in {
		t.Fatalf("denormalize(normalize(%q)) = %q, want %q", in, d, in)
	}
}

func TestEmptyInput(t *testing.T) {
	id := Parse("")
	if !id.Empty() {
		t.Fatalf("expected empty ID for empty input, got %+v", id)
	}
}

func TestMalformedDoesNotPanic(t *testing.T) {
	inputs := []string{"%zz", "library://", ":::", "playlist:"}
	for _, s := range inputs {
		_ = Parse(s)
	}
}
