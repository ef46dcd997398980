package rpcclient

import "testing"

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestIsNotConnectedClassification(t *testing.T) {
	err := &notConnectedError{err: errTest}
	if !IsNotConnected(err) {
		t.Fatalf("expected notConnectedError to be classified as not-connected")
	}
	if IsNotConnected(errTest) {
		t.Fatalf("expected a plain error not to be classified as not-connected")
	}
}

func TestJitterWithinBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := jitter(reconnectMinDelay, reconnectMaxDelay)
		if d < 0 || d > reconnectMaxDelay {
			t.Fatalf("jitter out of bounds: %v", d)
		}
	}
}

func TestJitterDegenerateRange(t *testing.T) {
	if d := jitter(reconnectMinDelay, reconnectMinDelay); d != reconnectMinDelay {
		t.Fatalf("expected degenerate range to return min, got %v", d)
	}
}

type testErr struct{}

func (testErr) Error() string { return "boom" }

var errTest = testErr{}
