package content

import (
	"context"
	"testing"
)

type stubAdapter struct{}

func (stubAdapter) Handles(cmd string) bool { return cmd == "announce" }
func (stubAdapter) Execute(ctx context.Context, cmd string, payload []byte) (bool, error) {
	return cmd == "announce", nil
}

func TestSelectUnknownKey(t *testing.T) {
	if _, ok := Select("nope", "musiccast", "musicassistant", nil); ok {
		t.Fatalf("expected unregistered key to miss")
	}
}

func TestSelectRegistered(t *testing.T) {
	Register("stub", func(backendKind, providerKey string, acquire AcquireClientFunc) (Adapter, error) {
		return stubAdapter{}, nil
	})
	a, ok := Select("stub", "musiccast", "musicassistant", nil)
	if !ok {
		t.Fatalf("expected registered adapter to be found")
	}
	if !a.Handles("announce") {
		t.Fatalf("expected stub adapter to handle announce")
	}
	if handled, _ := a.Execute(context.Background(), "announce", nil); !handled {
		t.Fatalf("expected execute to report handled")
	}
}
