package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rudyberends/lox-audioserver-sub001/internal/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// pushFrame is the single-top-level-key envelope push events are sent as.
type pushFrame map[string]interface{}

func eventToFrame(ev broadcast.Event) pushFrame {
	return pushFrame{string(ev.Type): ev.Payload}
}

// serveWS upgrades the connection and runs two independent loops: one
// forwarding broadcast events to the client, one reading command frames
// off the wire and dispatching them, mirroring the HTTP command grammar
// over a persistent socket instead.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("api: websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	subID := uuid.New().String()
	events := s.bus.Subscribe(subID)
	defer s.bus.Unsubscribe(subID)

	var writeMu sync.Mutex
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			resp, dispErr := s.dsp.Dispatch(r.Context(), string(msg))
			var payload interface{} = resp
			if dispErr != nil {
				payload = dispErr
			}
			writeMu.Lock()
			writeErr := conn.WriteJSON(payload)
			writeMu.Unlock()
			if writeErr != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeMu.Lock()
			err := conn.WriteJSON(eventToFrame(ev))
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
