package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/log"
)

const (
	// writeWait 单次写入超时
	writeWait = 10 * time.Second
	// pongWait 超过该时间未收到任何消息则断开
	pongWait = 60 * time.Second
	// pingPeriod 心跳间隔，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize 客户端消息上限（客户端只需要发送 pong）
	maxMessageSize = 4 * 1024
)

// Server 负责把 HTTP 请求升级为 WebSocket 并接入 Hub
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer 创建 WebSocket 服务端
func NewServer(hub *Hub, cfg *config.WebSocketConfig) *Server {
	return &Server{
		hub:    hub,
		logger: log.NewModuleLogger("websocket", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // 本地看板允许所有来源
			},
		},
	}
}

// ServeWS 处理新的 WebSocket 连接，channel 为空时订阅默认频道
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			"error", err,
		)
		return
	}

	client := NewConnection(channel)
	s.hub.Register(client)

	s.logger.Info("Client connected",
		"channel", client.Channel,
		"remote_addr", r.RemoteAddr,
	)

	go s.writePump(conn, client)
	go s.readPump(conn, client)
}

// readPump 读取消息：只用于感知断开和续期心跳
func (s *Server) readPump(conn *websocket.Conn, client *Connection) {
	defer func() {
		s.hub.Unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		// 收到 Pong 说明对方存活，续期读取超时
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("Connection read error",
					"channel", client.Channel,
					"error", err,
				)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump 写入消息，Send 被关闭时发送关闭帧
func (s *Server) writePump(conn *websocket.Conn, client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("Failed to write message",
					"channel", client.Channel,
					"error", err,
				)
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
