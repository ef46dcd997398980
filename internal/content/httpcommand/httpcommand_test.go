package httpcommand

import (
	"context"
	"encoding/json"
	"testing"
)

type fakePoster struct {
	cmd  string
	args []string
	err  error
}

func (f *fakePoster) PostCommand(ctx context.Context, cmd string, args []string) error {
	f.cmd = cmd
	f.args = args
	return f.err
}

func TestNewAdapterRequiresClientAcquisition(t *testing.T) {
	if _, err := newAdapter("ndjson", "musicassistant", nil); err == nil {
		t.Fatalf("expected error when no acquisition hook is given")
	}
}

func TestNewAdapterRejectsNonPoster(t *testing.T) {
	_, err := newAdapter("ndjson", "musicassistant", func() (interface{}, error) { return 42, nil })
	if err == nil {
		t.Fatalf("expected error for a client that cannot post commands")
	}
}

func TestExecutePostsHandledVerb(t *testing.T) {
	fp := &fakePoster{}
	a, err := newAdapter("ndjson", "musicassistant", func() (interface{}, error) { return fp, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload, _ := json.Marshal([]string{"radio:musicassistant:1234"})
	handled, err := a.Execute(context.Background(), "serviceplay", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handled {
		t.Fatalf("expected serviceplay to be handled")
	}
	if fp.cmd != "serviceplay" || len(fp.args) != 1 || fp.args[0] != "radio:musicassistant:1234" {
		t.Fatalf("unexpected post: %+v", fp)
	}
}

func TestExecuteIgnoresUnhandledVerb(t *testing.T) {
	fp := &fakePoster{}
	a, _ := newAdapter("ndjson", "musicassistant", func() (interface{}, error) { return fp, nil })
	handled, err := a.Execute(context.Background(), "shuffle", nil)
	if err != nil || handled {
		t.Fatalf("expected shuffle to be left unhandled, got handled=%v err=%v", handled, err)
	}
}
