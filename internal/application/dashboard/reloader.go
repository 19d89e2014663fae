package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/log"
)

// reloadTimeout 单次自动重新加载的超时
const reloadTimeout = 30 * time.Second

// Reloader 数据文件变化时自动重新加载数据集
type Reloader struct {
	service *Service
	bus     events.EventBus
	logger  *slog.Logger
	unsub   func()
}

// NewReloader 创建自动重新加载器
func NewReloader(service *Service, bus events.EventBus) *Reloader {
	return &Reloader{
		service: service,
		bus:     bus,
		logger:  log.NewModuleLogger("dashboard", "reloader"),
	}
}

// Start 订阅数据文件事件
func (r *Reloader) Start() {
	r.unsub = r.bus.SubscribeMultiple(
		events.DataFileEventTypes,
		events.HandlerFunc(r.HandleEvent),
	)
}

// Stop 取消订阅
func (r *Reloader) Stop() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

// HandleEvent 实现 events.Handler
// 加载失败时保留旧快照，错误仅记录日志
func (r *Reloader) HandleEvent(event events.Event) error {
	fileEvent, ok := event.(*events.DataFileEvent)
	if !ok {
		return nil
	}

	r.logger.Info("Data file changed, reloading dataset",
		"file", fileEvent.FileName,
		"type", fileEvent.EventType,
	)

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if _, err := r.service.Reload(ctx); err != nil {
		r.logger.Warn("Reload failed, keeping previous snapshot",
			"file", fileEvent.FileName,
			"error", err,
		)
		return err
	}
	return nil
}
