// Package websocket 提供 WebSocket 推送：连接管理中心与 HTTP 升级处理
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/retailmind/backend/internal/infrastructure/log"
)

// DefaultChannel 默认订阅频道
const DefaultChannel = "dataset"

// Hub WebSocket 连接管理中心
type Hub struct {
	// 按频道分组的连接
	channels map[string]map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan *Message
	// 停止信号
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	logger   *slog.Logger
}

// Connection WebSocket 连接
type Connection struct {
	Channel string
	Send    chan []byte
}

// NewConnection 创建带发送缓冲的连接
func NewConnection(channel string) *Connection {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Connection{
		Channel: channel,
		Send:    make(chan []byte, 64),
	}
}

// Message 消息
type Message struct {
	Channel string
	Data    []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		channels:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 16),
		done:       make(chan struct{}),
		logger:     log.NewModuleLogger("websocket", "hub"),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行），Stop 后返回
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.channels[conn.Channel] == nil {
				h.channels[conn.Channel] = make(map[*Connection]bool)
			}
			h.channels[conn.Channel][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.channels[msg.Channel] {
				select {
				case conn.Send <- msg.Data:
				default:
					// 慢消费者直接断开
					h.logger.Warn("Send buffer full, dropping connection",
						"channel", msg.Channel,
					)
					h.remove(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove 移除连接并关闭其发送通道，调用方需持有写锁
func (h *Hub) remove(conn *Connection) {
	channel, ok := h.channels[conn.Channel]
	if !ok {
		return
	}
	if _, ok := channel[conn]; !ok {
		return
	}
	delete(channel, conn)
	close(conn.Send)
	if len(channel) == 0 {
		delete(h.channels, conn.Channel)
	}
}

// closeAll 关闭所有连接
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, channel := range h.channels {
		for conn := range channel {
			close(conn.Send)
		}
	}
	h.channels = make(map[string]map[*Connection]bool)
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Stop 停止 Hub 并关闭所有连接，可重复调用
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// ConnectionCount 指定频道当前的连接数
func (h *Hub) ConnectionCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// BroadcastToChannel 向指定频道广播消息
func (h *Hub) BroadcastToChannel(channel string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &Message{Channel: channel, Data: jsonData}:
	case <-h.done:
	}
	return nil
}
