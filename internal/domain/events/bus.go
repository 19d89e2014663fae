package events

// Handler 事件处理器
// 返回的 error 只记录日志，不会重试
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc 函数适配器
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 进程内事件总线
// 文件监听器发布数据文件事件，看板服务与上传服务发布快照事件
type EventBus interface {
	// Subscribe 订阅单个事件类型，返回取消订阅函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// SubscribeMultiple 一次订阅多个事件类型
	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())

	// Publish 异步投递，不等待订阅者处理
	Publish(event Event)

	// Close 停止接收新事件并等待已投递事件处理完
	Close()
}

// DataFileEventTypes 数据目录变更相关的全部事件
var DataFileEventTypes = []EventType{DataFileChanged, DataFileRemoved}

// DatasetEventTypes 新快照发布相关的全部事件
var DatasetEventTypes = []EventType{DatasetReloaded, DatasetAppended}
