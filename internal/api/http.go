// Package api exposes the command-routing surface over HTTP and
// WebSocket. It is grounded on the teacher's chi-based router and SSE
// push model, with WebSocket push replacing SSE for the miniserver's
// own connection style.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rudyberends/lox-audioserver-sub001/internal/alerts"
	"github.com/rudyberends/lox-audioserver-sub001/internal/apperr"
	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
	"github.com/rudyberends/lox-audioserver-sub001/internal/router"
)

// Dispatcher is the subset of router.Router the HTTP layer needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd string) (router.Response, error)
}

// Server wires the command dispatcher, broadcast bus, and alert resolver
// into chi handlers shared by the AppHTTP and MSHTTP listeners.
type Server struct {
	dsp    Dispatcher
	bus    *broadcast.Bus
	alerts *alerts.Resolver
}

// New creates a Server. Both AppHTTP and MSHTTP mount the same handler.
func New(dsp Dispatcher, bus *broadcast.Bus, alertResolver *alerts.Resolver) *Server {
	return &Server{dsp: dsp, bus: bus, alerts: alertResolver}
}

// Handler builds the chi mux serving the command grammar, WebSocket
// endpoint, and static alert media.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.CleanPath)

	r.Get("/ws", s.serveWS)
	r.Get("/audio/*", s.serveCommand)
	r.Get("/alerts/*", s.serveAlert)

	return r
}

func (s *Server) serveCommand(w http.ResponseWriter, r *http.Request) {
	cmd := strings.TrimPrefix(r.URL.Path, "/")
	resp, err := s.dsp.Dispatch(r.Context(), cmd)
	writeResponse(w, resp, err)
}

func (s *Server) serveAlert(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/alerts/")
	alertType := strings.TrimSuffix(rel, pathExt(rel))
	res, err := s.alerts.ResolveAlertMedia(r.Context(), alertType, r.URL.Query().Get("text"), r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, err)
		return
	}
	if res == nil {
		writeError(w, apperr.NotFound("alert not found"))
		return
	}
	http.ServeFile(w, r, res.AbsolutePath)
}

func pathExt(p string) string {
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		return p[i:]
	}
	return ""
}

func writeResponse(w http.ResponseWriter, resp router.Response, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		slog.Error("api: failed to encode response", "err", encErr)
	}
}

func writeError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal(err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(appErr)
}
