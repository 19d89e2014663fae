package dataset

import (
	"context"
	"path/filepath"

	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/infrastructure/config"
)

// 数据目录中的文件名
const (
	TurnsFile        = "dashboard_turns.jsonl"
	TopicsFile       = "dashboard_topics.json"
	RepairsFile      = "dashboard_repairs.json"
	SandboxCasesFile = "dashboard_sandbox_cases.json"
)

// Loader 数据集加载器
type Loader interface {
	// Load 读取完整数据集；返回的快照版本号为 0，由仓储发布时分配
	Load(ctx context.Context) (*dialogue.Dataset, error)
	// Source 数据来源描述
	Source() string
}

// NewLoader 根据配置选择加载器：配置了 SQLite 快照时优先使用快照
func NewLoader(cfg *config.DatasetConfig) Loader {
	if cfg.SnapshotDB != "" {
		return NewSQLiteLoader(cfg.SnapshotDB)
	}
	return NewFileLoader(cfg.Dir)
}

// WatchTargets 返回需要监听的目录及其中的数据文件名
func WatchTargets(cfg *config.DatasetConfig) (dir string, files []string) {
	if cfg.SnapshotDB != "" {
		return filepath.Dir(cfg.SnapshotDB), []string{filepath.Base(cfg.SnapshotDB)}
	}
	return cfg.Dir, []string{TurnsFile, TopicsFile, RepairsFile, SandboxCasesFile}
}
