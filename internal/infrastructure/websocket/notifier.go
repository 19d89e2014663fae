package websocket

import (
	"log/slog"
	"time"

	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/log"
)

// MessageTypeDatasetUpdated 推送给前端的快照更新消息类型
const MessageTypeDatasetUpdated = "dataset.updated"

// Envelope 推送消息结构
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// DatasetUpdate dataset.updated 消息体
type DatasetUpdate struct {
	Reason   string `json:"reason"` // reloaded / appended
	Version  int64  `json:"version"`
	Source   string `json:"source,omitempty"`
	Turns    int    `json:"turns"`
	ConvID   int    `json:"conv_id,omitempty"`
	UploadID string `json:"upload_id,omitempty"`
}

// DatasetNotifier 把数据集事件桥接为 WebSocket 推送
type DatasetNotifier struct {
	hub    *Hub
	bus    events.EventBus
	logger *slog.Logger
	unsub  func()
}

// NewDatasetNotifier 创建通知桥
func NewDatasetNotifier(hub *Hub, bus events.EventBus) *DatasetNotifier {
	return &DatasetNotifier{
		hub:    hub,
		bus:    bus,
		logger: log.NewModuleLogger("websocket", "notifier"),
	}
}

// Start 订阅数据集事件
func (n *DatasetNotifier) Start() {
	n.unsub = n.bus.SubscribeMultiple(
		events.DatasetEventTypes,
		events.HandlerFunc(n.HandleEvent),
	)
}

// Stop 取消订阅
func (n *DatasetNotifier) Stop() {
	if n.unsub != nil {
		n.unsub()
		n.unsub = nil
	}
}

// HandleEvent 实现 events.Handler
func (n *DatasetNotifier) HandleEvent(event events.Event) error {
	ds, ok := event.(*events.DatasetEvent)
	if !ok {
		return nil
	}

	reason := "reloaded"
	if ds.EventType == events.DatasetAppended {
		reason = "appended"
	}

	n.logger.Debug("Pushing dataset update",
		"reason", reason,
		"version", ds.Version,
	)

	return n.hub.BroadcastToChannel(DefaultChannel, Envelope{
		Type:      MessageTypeDatasetUpdated,
		Timestamp: ds.EventTime,
		Data: DatasetUpdate{
			Reason:   reason,
			Version:  ds.Version,
			Source:   ds.Source,
			Turns:    ds.Turns,
			ConvID:   ds.ConvID,
			UploadID: ds.UploadID,
		},
	})
}
