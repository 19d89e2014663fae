package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_IsDataFile(t *testing.T) {
	fw := &FileWatcher{
		config: WatchConfig{Dir: "/data/dashboard"},
		files: map[string]struct{}{
			"dashboard_turns.jsonl": {},
			"dashboard_topics.json": {},
		},
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{"/data/dashboard/dashboard_turns.jsonl", true},
		{"/data/dashboard/dashboard_topics.json", true},
		{"/data/dashboard/notes.txt", false},
		{"/data/dashboard/.dashboard_turns.jsonl.swp", false},
		{"/data/other/dashboard_turns.jsonl", false},
		{"/data/dashboard/sub/dashboard_turns.jsonl", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, fw.isDataFile(tt.path))
		})
	}
}

func TestFileWatcher_Debounce(t *testing.T) {
	tmpDir := t.TempDir()

	// 创建事件总线
	bus := NewEventBus()
	defer bus.Close()

	// 记录接收到的事件
	var eventCount atomic.Int32
	bus.Subscribe(events.DataFileChanged, events.HandlerFunc(func(event events.Event) error {
		eventCount.Add(1)
		return nil
	}))

	watchConfig := WatchConfig{
		Dir:           tmpDir,
		Files:         []string{"dashboard_turns.jsonl"},
		DebounceDelay: 100 * time.Millisecond,
	}

	fw, err := NewFileWatcher(watchConfig, bus)
	require.NoError(t, err)

	// 启动监听
	require.NoError(t, fw.Start())
	defer fw.Stop()

	// 等待监听就绪
	time.Sleep(50 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "dashboard_turns.jsonl")
	require.NoError(t, os.WriteFile(testFile, []byte("{}\n"), 0644))

	// 快速多次写入（应该被防抖合并）
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, os.WriteFile(testFile, []byte("{}\n{}\n"), 0644))
	}

	// 等待防抖完成
	time.Sleep(300 * time.Millisecond)

	count := eventCount.Load()
	assert.GreaterOrEqual(t, count, int32(1), "the change must be reported")
	assert.LessOrEqual(t, count, int32(2), "events should be debounced")
}

func TestFileWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	tmpDir := t.TempDir()

	bus := NewEventBus()
	defer bus.Close()

	var eventCount atomic.Int32
	bus.SubscribeMultiple(
		[]events.EventType{events.DataFileChanged, events.DataFileRemoved},
		events.HandlerFunc(func(event events.Event) error {
			eventCount.Add(1)
			return nil
		}),
	)

	fw, err := NewFileWatcher(WatchConfig{
		Dir:           tmpDir,
		Files:         []string{"dashboard_turns.jsonl"},
		DebounceDelay: 50 * time.Millisecond,
	}, bus)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "readme.md"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(0), eventCount.Load())
}

func TestFileWatcher_ReportsRemoval(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "dashboard_topics.json")
	require.NoError(t, os.WriteFile(testFile, []byte("[]"), 0644))

	bus := NewEventBus()
	defer bus.Close()

	var (
		mu       sync.Mutex
		received []*events.DataFileEvent
	)
	bus.Subscribe(events.DataFileRemoved, events.HandlerFunc(func(event events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.(*events.DataFileEvent))
		return nil
	}))

	fw, err := NewFileWatcher(WatchConfig{
		Dir:           tmpDir,
		Files:         []string{"dashboard_topics.json"},
		DebounceDelay: 50 * time.Millisecond,
	}, bus)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.Remove(testFile))
	time.Sleep(250 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "dashboard_topics.json", received[0].FileName)
	assert.Zero(t, received[0].FileSize)
}

func TestFileWatcher_StartMissingDir(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	fw, err := NewFileWatcher(DefaultWatchConfig(filepath.Join(t.TempDir(), "missing"), nil), bus)
	require.NoError(t, err)
	defer fw.Stop()

	assert.Error(t, fw.Start())
}

func TestProvideFileWatcher_UsesDatasetConfig(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	fw, err := ProvideFileWatcher(&config.DatasetConfig{
		Dir:           "/data",
		SnapshotDB:    "/snapshots/dash.db",
		WatchDebounce: 200 * time.Millisecond,
	}, bus)
	require.NoError(t, err)
	defer fw.Stop()

	assert.Equal(t, "/snapshots", fw.config.Dir)
	assert.Equal(t, 200*time.Millisecond, fw.config.DebounceDelay)
	_, ok := fw.files["dash.db"]
	assert.True(t, ok)
}
