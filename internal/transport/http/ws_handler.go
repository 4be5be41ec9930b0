package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"quiz-results-service/internal/app"
)

// Message types on the websocket.
const (
	typeStatistics     = "statistics"
	typeResultsChanged = "results:changed"
	typeError          = "error"
)

type WSHandler struct {
	service  *app.ResultService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ResultService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type statisticsRequest struct {
	Window int `json:"window"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and streams result changes, each followed
// by fresh statistics. Clients may ask for statistics with another trend
// window by sending {"type":"statistics","payload":{"window":N}}.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	initialWindow, err := parseIntParam(r, "window", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// read by the updates goroutine, written by the read loop
	var window atomic.Int64
	window.Store(int64(initialWindow))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe(r.Context())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", slog.Any("error", err))
				return
			}
		}
	}()

	statistics := func() outboundMessage[any] {
		info, err := h.service.Statistics(r.Context(), int(window.Load()))
		if err != nil {
			return outboundMessage[any]{Type: typeError, Payload: errorPayload{Message: "could not calculate statistics"}}
		}
		return outboundMessage[any]{Type: typeStatistics, Payload: info}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				for _, msg := range []outboundMessage[any]{
					{Type: typeResultsChanged, Payload: event},
					statistics(),
				} {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- statistics()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case typeStatistics:
			var req statisticsRequest
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &req); err != nil || req.Window < 0 {
					send <- outboundMessage[any]{Type: typeError, Payload: errorPayload{Message: "invalid statistics payload"}}
					continue
				}
			}
			window.Store(int64(req.Window))
			send <- statistics()
		default:
			send <- outboundMessage[any]{Type: typeError, Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
