package dataset

import (
	"log/slog"
	"sync"

	"github.com/retailmind/backend/internal/domain/dialogue"
	applog "github.com/retailmind/backend/internal/infrastructure/log"
)

// MemoryStore 数据集快照仓储
// 持有当前快照指针；读取方拿到整个快照后无需加锁，写入方串行生成新版本
type MemoryStore struct {
	mu      sync.RWMutex
	current *dialogue.Dataset
	logger  *slog.Logger
}

// NewMemoryStore 创建空仓储，加载数据前 Snapshot 返回 ErrDatasetNotLoaded
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logger: applog.NewModuleLogger("dataset", "store"),
	}
}

// Snapshot 返回当前快照
func (s *MemoryStore) Snapshot() (*dialogue.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, dialogue.ErrDatasetNotLoaded
	}
	return s.current, nil
}

// AppendConversation 在写锁内分配会话 ID 并追加新会话，返回新快照
// build 在持锁期间调用，不能再访问仓储
func (s *MemoryStore) AppendConversation(build dialogue.ConversationBuilder) (*dialogue.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, dialogue.ErrDatasetNotLoaded
	}

	convID := s.current.NextConvID()
	turns := build(convID)
	if len(turns) == 0 {
		return nil, dialogue.ErrEmptyUpload
	}

	next := s.current.WithAppendedTurns(turns)
	s.current = next

	s.logger.Info("Conversation appended",
		"conv_id", convID,
		"turns", len(turns),
		"version", next.Version,
	)
	return next, nil
}

// Replace 整体替换当前快照（例如数据文件重新加载）
// 版本号保持单调递增；会话内上传的会话会被带入新快照，返回实际发布的快照
func (s *MemoryStore) Replace(ds *dialogue.Dataset) *dialogue.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	published := *ds
	if s.current != nil {
		if published.Version <= s.current.Version {
			published.Version = s.current.Version + 1
		}
		// 新数据自带上传轮次（例如从快照文件恢复）时不再重复带入
		uploaded := s.current.UploadedTurns()
		if len(uploaded) > 0 && len(ds.UploadedTurns()) == 0 {
			turns, renumbered := ds.WithCarriedTurns(uploaded)
			published.Turns = turns
			s.logger.Info("Uploaded conversations carried over",
				"turns", len(uploaded),
				"renumbered", len(renumbered),
			)
			for oldID, newID := range renumbered {
				s.logger.Warn("Uploaded conversation renumbered", "old_conv_id", oldID, "new_conv_id", newID)
			}
		}
	}
	if published.Version <= 0 {
		published.Version = 1
	}
	s.current = &published

	s.logger.Info("Dataset published",
		"version", published.Version,
		"source", published.Source,
		"turns", len(published.Turns),
		"topics", len(published.Topics),
	)
	return s.current
}
