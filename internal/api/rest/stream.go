package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"depthview/internal/depthchart"
	"depthview/internal/infra/http/middleware"
	"depthview/internal/infra/metrics"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Renderers are served from other origins; the stream is read-mostly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamEvent is an input event sent by a connected renderer.
type streamEvent struct {
	Type   string  `json:"type"` // "wheel" or "pointer"
	DeltaY float64 `json:"delta_y,omitempty"`
	Event  string  `json:"event,omitempty"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("market")
	ch, initial, cancel, err := s.reg.Subscribe(key, sendBufferSize)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errUnknownChart) {
			status = http.StatusNotFound
		}
		s.fail(w, r, "stream", status, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		s.logger.Warn().Err(err).Str("market", key).Msg("ws upgrade failed")
		return
	}
	metrics.WSClients.Inc()
	lg := s.logger.With().Str("market", key).Str("rid", middleware.GetRequestID(r.Context())).Logger()
	lg.Info().Msg("stream client connected")

	client := middleware.ClientKey(r)
	go func() {
		defer cancel()
		s.readPump(conn, key, client)
	}()
	s.writePump(conn, ch, initial)
	metrics.WSClients.Dec()
	lg.Info().Msg("stream client disconnected")
}

// readPump applies renderer events until the connection fails.
func (s *Server) readPump(conn *websocket.Conn, key, client string) {
	pongWait := s.ping * 10 / 9
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var ev streamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			var syn *json.SyntaxError
			var typ *json.UnmarshalTypeError
			if errors.As(err, &syn) || errors.As(err, &typ) {
				metrics.APIErrorsTotal.WithLabelValues("stream").Inc()
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Str("market", key).Msg("stream closed unexpectedly")
			}
			return
		}
		if !s.limiter.Allow(client, time.Now()) {
			metrics.ZoomEventsTotal.WithLabelValues("limited").Inc()
			continue
		}
		switch ev.Type {
		case "wheel":
			s.reg.Zoom(key, ev.DeltaY)
		case "pointer":
			pe, err := depthchart.ParsePointerEvent(ev.Event)
			if err != nil {
				metrics.APIErrorsTotal.WithLabelValues("stream").Inc()
				continue
			}
			_, _, _, _ = s.reg.Pointer(key, pe)
		default:
			metrics.APIErrorsTotal.WithLabelValues("stream").Inc()
		}
	}
}

// writePump sends the initial view, every published view and periodic pings.
func (s *Server) writePump(conn *websocket.Conn, ch <-chan []byte, initial []byte) {
	ticker := time.NewTicker(s.ping)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, initial); err != nil {
		return
	}
	for {
		select {
		case msg, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
