// Package zeroconf advertises the audio server on the LAN as an
// mDNS/DNS-SD service so miniservers can discover it without a
// statically configured address.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// Service manages mDNS service registration for the miniserver-facing
// command port.
type Service struct {
	name   string // instance name / hostname, e.g. "lox-audioserver"
	port   int
	server *zeroconf.Server
}

// New creates a new zeroconf Service that will advertise on the given port.
func New(name string, port int) *Service {
	return &Service{
		name: name,
		port: port,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at
// which point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	txt := []string{"protocol=lox-audio", "role=audioserver"}

	server, err := zeroconf.Register(
		s.name,        // instance name
		"_loxaudio._tcp", // service type
		"local.",      // domain
		s.port,        // port
		txt,           // TXT records
		nil,           // ifaces — nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}

// UpdateTXT does not change the advertised TXT records: it only logs the
// request. grandcat/zeroconf v1.0.0 does not expose a live SetText method;
// updating TXT records requires restarting the service.
func (s *Service) UpdateTXT(records []string) error {
	if s.server == nil {
		return fmt.Errorf("zeroconf: server not started")
	}
	slog.Info("zeroconf: TXT update requested (requires service restart to apply)", "records", records)
	return nil
}
