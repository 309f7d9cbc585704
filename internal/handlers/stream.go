package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/reliefgrid/relief-api/internal/realtime"
	"github.com/rs/zerolog"
)

const streamWriteTimeout = 10 * time.Second

// StreamHandler upgrades HTTP connections to WebSocket and relays every
// alert published on the bus. Connections only receive alerts persisted
// after they attach; there is no replay.
type StreamHandler struct {
	bus      *realtime.Bus
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewStreamHandler(bus *realtime.Bus, allowedOrigin string, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		logger: logger.With().Str("handler", "stream").Logger(),
	}
}

func (h *StreamHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id, alerts := h.bus.Subscribe()
	h.logger.Info().Uint64("subscriber_id", id).Str("remote", r.RemoteAddr).Msg("viewer connected")

	// Reader goroutine: we never expect client messages, but reading is
	// required to detect disconnects and process control frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.bus.Unsubscribe(id)
		conn.Close()
		h.logger.Info().Uint64("subscriber_id", id).Msg("viewer disconnected")
	}()

	for {
		select {
		case alert, ok := <-alerts:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(alert); err != nil {
				h.logger.Warn().Err(err).Uint64("subscriber_id", id).Msg("dropping viewer after write failure")
				return
			}
		case <-done:
			return
		}
	}
}
