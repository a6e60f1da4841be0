package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"interview-scheduler/internal/hub"
)

// SocketHandler upgrades /ws requests and bridges each connection to the
// hub: a read loop for inbound frames and a writer goroutine draining the
// client's outbound queue (the connection allows one concurrent writer).
type SocketHandler struct {
	hub      *hub.Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewSocketHandler(h *hub.Hub, log *slog.Logger) *SocketHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SocketHandler{
		hub: h,
		log: log.With(slog.String("component", "web.socket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *SocketHandler) Serve(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		s.log.Warn("websocket upgrade failed", slog.Any("err", err))
		return nil
	}

	client := s.hub.Register()
	log := s.log.With(slog.String("client_id", client.ID()))
	log.Info("websocket connected")

	go s.writeLoop(conn, client, log)
	s.readLoop(conn, client, log)
	return nil
}

// readLoop answers ping frames and detects disconnects. Other inbound
// messages are ignored.
func (s *SocketHandler) readLoop(conn *websocket.Conn, client *hub.Client, log *slog.Logger) {
	defer func() {
		s.hub.Unregister(client)
		_ = conn.Close()
		log.Info("websocket disconnected")
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.TextMessage && string(payload) == "ping" {
			if !client.Send([]byte("pong")) {
				return
			}
		}
	}
}

func (s *SocketHandler) writeLoop(conn *websocket.Conn, client *hub.Client, log *slog.Logger) {
	for payload := range client.Outbound() {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warn("websocket write failed", slog.Any("err", err))
			s.hub.Unregister(client)
			break
		}
	}
	_ = conn.Close()
}
