package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/log"
)

// WatchConfig FileWatcher 配置
type WatchConfig struct {
	// Dir 数据目录
	Dir string
	// Files 需要关注的文件名，其它文件的事件被忽略
	Files []string
	// DebounceDelay 防抖延迟
	DebounceDelay time.Duration
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig(dir string, files []string) WatchConfig {
	return WatchConfig{
		Dir:           dir,
		Files:         files,
		DebounceDelay: 500 * time.Millisecond,
	}
}

// FileWatcher 数据文件监听器
// 数据文件被导出工具覆盖写入时，通过事件总线通知重新加载
type FileWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 关注的文件名集合
	files map[string]struct{}

	// 防抖相关
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// 控制
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFileWatcher 创建文件监听器
func NewFileWatcher(config WatchConfig, eventBus events.EventBus) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]struct{}, len(config.Files))
	for _, name := range config.Files {
		files[name] = struct{}{}
	}

	return &FileWatcher{
		config:         config,
		eventBus:       eventBus,
		watcher:        watcher,
		logger:         log.NewModuleLogger("watcher", "file_watcher"),
		files:          files,
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start 启动文件监听
// 监听的是目录而不是文件本身，这样原子替换（写临时文件再 rename）也能被捕获
func (fw *FileWatcher) Start() error {
	fw.logger.Info("Starting file watcher",
		"dir", fw.config.Dir,
		"files", fw.config.Files,
	)

	if err := fw.watcher.Add(fw.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fw.config.Dir, err)
	}

	// 启动事件处理循环
	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop 停止文件监听，可重复调用
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		fw.logger.Info("Stopping file watcher")

		close(fw.stopCh)
		fw.watcher.Close()
		fw.wg.Wait()

		// 取消所有防抖定时器
		fw.debounceMu.Lock()
		for _, timer := range fw.debounceTimers {
			timer.Stop()
		}
		fw.debounceMu.Unlock()

		fw.logger.Info("File watcher stopped")
	})
}

// watchLoop 事件监听循环
func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件
func (fw *FileWatcher) handleFsEvent(event fsnotify.Event) {
	if !fw.isDataFile(event.Name) {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	fw.debounce(event)
}

// isDataFile 判断路径是否为关注的数据文件
func (fw *FileWatcher) isDataFile(path string) bool {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(fw.config.Dir) {
		return false
	}
	_, ok := fw.files[filepath.Base(path)]
	return ok
}

// debounce 同一文件的连续事件合并为一次
func (fw *FileWatcher) debounce(fsEvent fsnotify.Event) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	// 取消之前的定时器
	if timer, exists := fw.debounceTimers[fsEvent.Name]; exists {
		timer.Stop()
	}

	// 创建新的防抖定时器
	fw.debounceTimers[fsEvent.Name] = time.AfterFunc(fw.config.DebounceDelay, func() {
		fw.emitDataFileEvent(fsEvent.Name)

		// 清理定时器
		fw.debounceMu.Lock()
		delete(fw.debounceTimers, fsEvent.Name)
		fw.debounceMu.Unlock()
	})
}

// emitDataFileEvent 发送数据文件事件
// 以防抖结束时文件是否存在为准，而不是最后一个 fsnotify 操作
func (fw *FileWatcher) emitDataFileEvent(path string) {
	select {
	case <-fw.stopCh:
		return
	default:
	}

	event := &events.DataFileEvent{
		EventType: events.DataFileRemoved,
		FileName:  filepath.Base(path),
		FilePath:  path,
		EventTime: time.Now(),
	}
	if info, err := os.Stat(path); err == nil {
		event.EventType = events.DataFileChanged
		event.ModTime = info.ModTime()
		event.FileSize = info.Size()
	}

	fw.eventBus.Publish(event)

	fw.logger.Debug("Data file event emitted",
		"type", event.EventType,
		"file", event.FileName,
		"size", event.FileSize,
	)
}
