// Package watcher 监听数据目录并通过进程内事件总线分发变更
package watcher

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/log"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retailmind",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Events published on the in-process bus.",
	}, []string{"type"})

	handlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retailmind",
		Subsystem: "events",
		Name:      "handler_failures_total",
		Help:      "Event handlers that returned an error or panicked.",
	}, []string{"type"})
)

type subscriber struct {
	id      uint64
	handler events.Handler
}

// inProcessBus 每个事件对每个订阅者各起一个 goroutine 处理
type inProcessBus struct {
	mu     sync.RWMutex
	subs   map[events.EventType][]subscriber
	lastID uint64
	closed bool

	inflight sync.WaitGroup
	logger   *slog.Logger
}

// NewEventBus 创建事件总线
func NewEventBus() events.EventBus {
	return &inProcessBus{
		subs:   make(map[events.EventType][]subscriber),
		logger: log.NewModuleLogger("watcher", "event_bus"),
	}
}

// Subscribe 订阅单个事件类型
func (b *inProcessBus) Subscribe(eventType events.EventType, handler events.Handler) func() {
	b.mu.Lock()
	b.lastID++
	id := b.lastID
	b.subs[eventType] = append(b.subs[eventType], subscriber{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

// SubscribeMultiple 订阅多个事件类型，返回的函数一次取消全部
func (b *inProcessBus) SubscribeMultiple(eventTypes []events.EventType, handler events.Handler) func() {
	cancels := make([]func(), len(eventTypes))
	for i, eventType := range eventTypes {
		cancels[i] = b.Subscribe(eventType, handler)
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// remove 生成新切片替换旧列表，Publish 中已取出的旧列表不受影响
func (b *inProcessBus) remove(eventType events.EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[eventType]
	kept := make([]subscriber, 0, len(current))
	for _, s := range current {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(b.subs, eventType)
		return
	}
	b.subs[eventType] = kept
}

// Publish 异步分发；总线关闭后的事件直接丢弃
func (b *inProcessBus) Publish(event events.Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := b.subs[event.Type()]
	// 在读锁内登记，保证 Close 能等到这些处理器
	b.inflight.Add(len(targets))
	b.mu.RUnlock()

	eventsPublished.WithLabelValues(string(event.Type())).Inc()
	if len(targets) == 0 {
		return
	}

	b.logger.Debug("Publishing event",
		"type", event.Type(),
		"subscribers", len(targets),
	)
	for _, s := range targets {
		go b.deliver(event, s.handler)
	}
}

func (b *inProcessBus) deliver(event events.Event, handler events.Handler) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			handlerFailures.WithLabelValues(string(event.Type())).Inc()
			b.logger.Error("Event handler panicked",
				"type", event.Type(),
				"panic", r,
			)
		}
	}()

	if err := handler.HandleEvent(event); err != nil {
		handlerFailures.WithLabelValues(string(event.Type())).Inc()
		b.logger.Warn("Event handler failed",
			"type", event.Type(),
			"error", err,
		)
	}
}

// Close 拒绝新事件并等待处理中的事件完成，可重复调用
func (b *inProcessBus) Close() {
	b.mu.Lock()
	wasClosed := b.closed
	b.closed = true
	b.mu.Unlock()

	b.inflight.Wait()
	if !wasClosed {
		b.logger.Info("Event bus closed")
	}
}
