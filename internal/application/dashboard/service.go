// Package dashboard 编排看板用例：在数据集快照上调用聚合引擎并组装页面数据
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	"github.com/retailmind/backend/internal/infrastructure/log"
)

// defaultHistorySize 指标历史默认保留条数
const defaultHistorySize = 10

// Service 看板应用服务
// 每个方法只读取一次快照，整个计算过程基于同一个版本
type Service struct {
	repo   dialogue.DatasetRepository
	loader dataset.Loader
	bus    events.EventBus
	logger *slog.Logger

	// 指标历史：总轮次数变化时追加一条，最多保留 historySize 条
	historyMu   sync.Mutex
	history     []MetricsSnapshot
	historySize int

	// reloadMu 串行化重新加载
	reloadMu sync.Mutex
}

// NewService 创建看板服务
func NewService(
	repo dialogue.DatasetRepository,
	loader dataset.Loader,
	bus events.EventBus,
	cfg *config.DatasetConfig,
) *Service {
	size := cfg.HistorySize
	if size <= 0 {
		size = defaultHistorySize
	}
	return &Service{
		repo:        repo,
		loader:      loader,
		bus:         bus,
		logger:      log.NewModuleLogger("dashboard", "service"),
		historySize: size,
	}
}

// Reload 从数据源重新加载并发布新快照
func (s *Service) Reload(ctx context.Context) (*dialogue.Summary, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset from %s: %w", s.loader.Source(), err)
	}

	published := s.repo.Replace(ds)
	summary := published.Summarize()

	s.logger.Info("Dataset reloaded",
		"source", summary.Source,
		"version", summary.Version,
		"turns", summary.Turns,
		"topics", summary.Topics,
		"duration", time.Since(start),
	)

	if s.bus != nil {
		s.bus.Publish(&events.DatasetEvent{
			EventType: events.DatasetReloaded,
			Version:   summary.Version,
			Source:    summary.Source,
			Turns:     summary.Turns,
			EventTime: time.Now(),
		})
	}
	return &summary, nil
}

// Summary 当前快照摘要
func (s *Service) Summary() (*dialogue.Summary, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	summary := ds.Summarize()
	return &summary, nil
}

// Overview 概览 KPI 及相对上一条历史记录的变化
func (s *Service) Overview() (*OverviewDTO, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}

	kpis := analytics.ComputeOverview(ds.Turns, ds.Topics)
	prev := s.record(ds.Version, kpis)

	dto := &OverviewDTO{
		Version:              ds.Version,
		KPIs:                 kpis,
		IssueBreakdown:       analytics.IssueBreakdown(ds.Turns),
		SuccessDistribution:  analytics.ComputeSuccessDistribution(ds.Turns),
		SeverityDistribution: analytics.DominantSeverityDistribution(ds.Turns),
	}
	if prev != nil {
		delta := analytics.CompareOverview(prev.Overview, kpis)
		dto.Delta = &delta
	}
	return dto, nil
}

// History 指标历史，按时间先后排列
func (s *Service) History() []MetricsSnapshot {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	out := make([]MetricsSnapshot, len(s.history))
	copy(out, s.history)
	return out
}

// record 总轮次数与最后一条记录不同时追加历史，返回用于对比的上一条记录
func (s *Service) record(version int64, kpis analytics.Overview) *MetricsSnapshot {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	n := len(s.history)
	if n == 0 || s.history[n-1].Overview.TotalTurns != kpis.TotalTurns {
		s.history = append(s.history, MetricsSnapshot{
			Version:    version,
			Overview:   kpis,
			RecordedAt: time.Now(),
		})
		if len(s.history) > s.historySize {
			s.history = append([]MetricsSnapshot(nil), s.history[len(s.history)-s.historySize:]...)
		}
	}

	if len(s.history) < 2 {
		return nil
	}
	prev := s.history[len(s.history)-2]
	return &prev
}
