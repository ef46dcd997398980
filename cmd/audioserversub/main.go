// Command audioserversub runs the zone manager, media-provider bridge,
// and the HTTP/WebSocket command surface the miniserver and client apps
// address.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/rudyberends/lox-audioserver-sub001/internal/alerts"
	"github.com/rudyberends/lox-audioserver-sub001/internal/api"
	"github.com/rudyberends/lox-audioserver-sub001/internal/backend"
	_ "github.com/rudyberends/lox-audioserver-sub001/internal/backend/musiccast"
	_ "github.com/rudyberends/lox-audioserver-sub001/internal/backend/ndjson"
	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
	"github.com/rudyberends/lox-audioserver-sub001/internal/config"
	"github.com/rudyberends/lox-audioserver-sub001/internal/content"
	_ "github.com/rudyberends/lox-audioserver-sub001/internal/content/httpcommand"
	"github.com/rudyberends/lox-audioserver-sub001/internal/favorites"
	"github.com/rudyberends/lox-audioserver-sub001/internal/group"
	"github.com/rudyberends/lox-audioserver-sub001/internal/provider"
	_ "github.com/rudyberends/lox-audioserver-sub001/internal/provider/musicassistant"
	"github.com/rudyberends/lox-audioserver-sub001/internal/router"
	"github.com/rudyberends/lox-audioserver-sub001/internal/status"
	"github.com/rudyberends/lox-audioserver-sub001/internal/zeroconf"
	"github.com/rudyberends/lox-audioserver-sub001/internal/zone"
)

const shutdownDeadline = 10 * time.Second

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: logLevel})))

	configDir := envOr("CONFIG_DIR", "./data")
	configFile := os.Getenv("CONFIG_FILE")
	cfgStore := config.New(configDir, configFile)
	doc, err := cfgStore.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if mp := os.Getenv("MEDIA_PROVIDER"); mp != "" {
		doc.Provider = mp
	}

	bus := broadcast.NewBus()
	groups := group.New()
	manager := zone.NewManager(bus, groups)

	mp, err := provider.Select(doc.Provider, doc.ProviderOptions)
	if err != nil {
		slog.Error("failed to select media provider", "provider", doc.Provider, "err", err)
		os.Exit(1)
	}

	favStore := favorites.New(configDir, bus)

	alertResolver, err := alerts.New(publicMediaRoot(), "cache", knownAlerts(), nil)
	if err != nil {
		slog.Error("failed to initialize alert resolver", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends := make(map[int]backend.Driver)
	for _, zc := range doc.Zones {
		factory, ok := backend.Lookup(zc.BackendKind)
		if !ok {
			slog.Warn("unknown backend kind, skipping zone", "zone", zc.ZoneID, "backend", zc.BackendKind)
			continue
		}
		drv, err := factory(backend.ZoneConfig{ZoneID: zc.ZoneID, IP: zc.IP, MAPlayerID: zc.MAPlayerID, Provider: zc.Provider})
		if err != nil {
			slog.Error("failed to construct backend", "zone", zc.ZoneID, "backend", zc.BackendKind, "err", err)
			continue
		}
		entry := &zone.Entry{
			ZoneID:       zc.ZoneID,
			Backend:      drv,
			Config:       zc,
			Status:       status.PlayerStatus{},
			Capabilities: backendCapabilities(zc.BackendKind),
		}
		if adapter, ok := content.Select("httpcommand", zc.BackendKind, zc.Provider, acquireClient(drv)); ok {
			entry.ContentAdapter = adapter
			entry.Capabilities = entry.Capabilities.UpgradeContent()
		}
		if err := manager.AddZone(ctx, entry); err != nil {
			slog.Error("failed to add zone", "zone", zc.ZoneID, "err", err)
			continue
		}
		if zc.MAPlayerID != "" {
			manager.RegisterBackendID(zc.ZoneID, zc.MAPlayerID)
		}
		backends[zc.ZoneID] = drv
	}

	rtr := router.New(manager, func(zoneID int) backend.Driver { return backends[zoneID] }, mp, favStore, bus)
	srv := api.New(rtr, bus, alertResolver)

	appPort := envOr("APP_HTTP_PORT", "7091")
	msPort := envOr("MS_HTTP_PORT", "7095")

	appHTTP := &http.Server{Addr: ":" + appPort, Handler: srv.Handler()}
	msHTTP := &http.Server{Addr: ":" + msPort, Handler: srv.Handler()}

	zc := zeroconf.New("lox-audioserver", atoiOr(msPort, 7095))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("AppHTTP listening", "addr", appHTTP.Addr)
		if err := appHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("MSHTTP listening", "addr", msHTTP.Addr)
		if err := msHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := zc.Start(gctx); err != nil {
			slog.Warn("zeroconf failed", "err", err)
		}
		return nil
	})

	if err := cfgStore.WatchReload(func(reloaded config.Document) {
		slog.Info("config reloaded from disk")
	}); err != nil {
		slog.Warn("config hot-reload disabled", "err", err)
	}

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	_ = appHTTP.Shutdown(shutdownCtx)
	_ = msHTTP.Shutdown(shutdownCtx)
	for zid := range backends {
		if err := manager.RemoveZone(shutdownCtx, zid); err != nil {
			slog.Warn("zone teardown failed", "zone", zid, "err", err)
		}
	}
	_ = cfgStore.Close()

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// backendCapabilities gives each backend kind its baseline capability
// matrix before any content adapter is attached. musiccast forwards
// arbitrary verbs straight to the device's own RPC surface, so it is
// native for control, content and grouping (alerts and tts stay none);
// ndjson is receive-only and starts at none,
// relying entirely on a content adapter for content-kind verbs.
func backendCapabilities(backendKind string) zone.Matrix {
	var m zone.Matrix
	if backendKind == "musiccast" {
		m[zone.CapabilityControl] = zone.CapabilityNative
		m[zone.CapabilityContent] = zone.CapabilityNative
		m[zone.CapabilityGrouping] = zone.CapabilityNative
	}
	return m
}

// acquireClient adapts a backend.Driver's optional AcquireClient method
// into a content.AcquireClientFunc, so a content adapter can share the
// backend's connection instead of opening its own.
func acquireClient(drv backend.Driver) content.AcquireClientFunc {
	cp, ok := drv.(interface {
		AcquireClient() (interface{}, error)
	})
	if !ok {
		return nil
	}
	return cp.AcquireClient
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func dataSubdir(base, sub string) string {
	return base + string(os.PathSeparator) + sub
}

func publicMediaRoot() string {
	return envOr("PUBLIC_MEDIA_ROOT", "./public")
}

func knownAlerts() map[string]alerts.KnownAlert {
	return map[string]alerts.KnownAlert{
		"alarm":     {RelativePath: "alarm.mp3", Title: "Alarm"},
		"bell":      {RelativePath: "bell.mp3", Title: "Bell"},
		"buzzer":    {RelativePath: "buzzer.mp3", Title: "Buzzer"},
		"firealarm": {RelativePath: "firealarm.mp3", Title: "Fire Alarm"},
	}
}
