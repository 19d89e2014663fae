package watcher

import (
	"github.com/google/wire"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
)

// ProviderSet 事件与文件监听 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideFileWatcher,
)

// ProvideEventBus 提供事件总线实例
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideFileWatcher 提供数据目录监听器实例
func ProvideFileWatcher(cfg *config.DatasetConfig, eventBus events.EventBus) (*FileWatcher, error) {
	dir, files := dataset.WatchTargets(cfg)

	watchConfig := DefaultWatchConfig(dir, files)
	if cfg.WatchDebounce > 0 {
		watchConfig.DebounceDelay = cfg.WatchDebounce
	}

	return NewFileWatcher(watchConfig, eventBus)
}
