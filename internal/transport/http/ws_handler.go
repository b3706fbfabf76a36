package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-server/internal/domain"
)

// StatusFeed is the read side of the status publisher.
type StatusFeed interface {
	Latest() (domain.Status, bool)
	Subscribe() (<-chan domain.Status, func())
}

type WSHandler struct {
	feed     StatusFeed
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(feed StatusFeed, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		feed:   feed,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and streams every rendered status snapshot
// until the client goes away or the publisher stops.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe()
	defer cancel()

	// The stream is one-way; reading only detects the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case status, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(outboundMessage[domain.Status]{Type: "status", Payload: status}); err != nil {
				h.logger.Debug("ws write error", "err", err)
				return
			}
		}
	}
}
