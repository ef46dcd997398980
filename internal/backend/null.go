package backend

import (
	"context"
	"log/slog"
	"time"

	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
)

func init() {
	Register("null", newNullDriver)
}

// nullDriver backs unconfigured zones: it emits a steady "unconfigured"
// status and a minute keep-alive, and drops every command.
type nullDriver struct {
	zoneID int
	cancel context.CancelFunc
}

func newNullDriver(cfg ZoneConfig) (Driver, error) {
	return &nullDriver{zoneID: cfg.ZoneID}, nil
}

func (d *nullDriver) Initialize(ctx context.Context, sink StatusSink) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	off := status.PowerOff
	paused := status.ModePause
	title := "Unconfigured"
	sink.MergeStatus(status.PlayerStatus{Power: &off, Mode: &paused, Title: &title})

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		pause := status.ModePause
		zeroTime := 0.0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sink.MergeStatus(status.PlayerStatus{Mode: &pause, Time: &zeroTime})
			}
		}
	}()
	return nil
}

func (d *nullDriver) SendCommand(ctx context.Context, verb string, args []string) error {
	slog.Debug("null backend dropped command", "zone", d.zoneID, "verb", verb, "args", args)
	return nil
}

func (d *nullDriver) Cleanup(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}

func (d *nullDriver) Probe(ctx context.Context) error {
	return nil
}
