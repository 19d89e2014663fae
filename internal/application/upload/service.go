package upload

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/log"
	"github.com/retailmind/backend/internal/infrastructure/tokenizer"
)

// ErrPayloadTooLarge 上传内容超过配置的大小上限
var ErrPayloadTooLarge = errors.New("upload payload too large")

// Record 一次上传的历史记录
type Record struct {
	ID                   string    `json:"id"`
	Filename             string    `json:"filename"`
	Timestamp            time.Time `json:"timestamp"`
	ConvID               int       `json:"conv_id"`
	Version              int64     `json:"version"`
	TurnCount            int       `json:"turn_count"`
	Satisfaction         float64   `json:"satisfaction"`
	Resolution           string    `json:"resolution"`
	Theme                string    `json:"theme"`
	LowSatisfactionTurns int       `json:"low_sat_turns"`
}

// Result 上传结果
type Result struct {
	Record   Record                   `json:"record"`
	Analysis analytics.UploadAnalysis `json:"analysis"`
	Turns    []dialogue.Turn          `json:"turns"`
}

// HistorySummary 上传历史汇总
type HistorySummary struct {
	TotalUploads    int     `json:"total_uploads"`
	TotalTurns      int     `json:"total_turns"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	Resolved        int     `json:"resolved"`
}

// Service 上传实验室应用服务
type Service struct {
	repo    dialogue.DatasetRepository
	counter tokenizer.Counter
	bus     events.EventBus
	cfg     *config.UploadConfig
	logger  *slog.Logger

	mu      sync.RWMutex
	history []Record
}

// NewService 创建上传服务
func NewService(
	repo dialogue.DatasetRepository,
	counter tokenizer.Counter,
	bus events.EventBus,
	cfg *config.UploadConfig,
) *Service {
	return &Service{
		repo:    repo,
		counter: counter,
		bus:     bus,
		cfg:     cfg,
		logger:  log.NewModuleLogger("upload", "service"),
	}
}

// Upload 解析、分析上传的会话并作为新会话追加到数据集
// 新会话的 conv_id 在仓储写锁内分配，并发上传不会得到相同的 ID
func (s *Service) Upload(filename string, payload []byte) (*Result, error) {
	if s.cfg != nil && s.cfg.MaxBytes > 0 && int64(len(payload)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, len(payload), s.cfg.MaxBytes)
	}

	records, err := ParseUploadPayload(payload)
	if err != nil {
		return nil, err
	}

	analysis := analytics.AnalyzeUpload(records, s.counter)

	var turns []dialogue.Turn
	ds, err := s.repo.AppendConversation(func(convID int) []dialogue.Turn {
		turns = analytics.BuildUploadTurns(records, convID)
		return turns
	})
	if err != nil {
		return nil, err
	}

	record := Record{
		ID:                   uuid.New().String(),
		Filename:             filename,
		Timestamp:            time.Now(),
		ConvID:               turns[0].ConvID,
		Version:              ds.Version,
		TurnCount:            analysis.TurnCount,
		Satisfaction:         analysis.Satisfaction,
		Resolution:           analysis.Resolution,
		Theme:                analysis.Theme,
		LowSatisfactionTurns: analysis.LowSatisfactionTurns,
	}
	s.remember(record)

	s.logger.Info("Conversation uploaded",
		"upload_id", record.ID,
		"filename", filename,
		"conv_id", record.ConvID,
		"turns", record.TurnCount,
		"version", record.Version,
	)

	if s.bus != nil {
		s.bus.Publish(&events.DatasetEvent{
			EventType: events.DatasetAppended,
			Version:   ds.Version,
			Source:    ds.Source,
			Turns:     len(ds.Turns),
			ConvID:    record.ConvID,
			UploadID:  record.ID,
			EventTime: record.Timestamp,
		})
	}

	return &Result{
		Record:   record,
		Analysis: analysis,
		Turns:    turns,
	}, nil
}

// Preview 只做解析与分析，不修改数据集；convID 用于生成预览轮次
func (s *Service) Preview(payload []byte, convID int) (*Result, error) {
	records, err := ParseUploadPayload(payload)
	if err != nil {
		return nil, err
	}
	return &Result{
		Record:   Record{ConvID: convID, TurnCount: len(records)},
		Analysis: analytics.AnalyzeUpload(records, s.counter),
		Turns:    analytics.BuildUploadTurns(records, convID),
	}, nil
}

// MaxBytes 单次上传的大小上限，0 表示不限制
func (s *Service) MaxBytes() int64 {
	if s.cfg == nil {
		return 0
	}
	return s.cfg.MaxBytes
}

// remember 追加历史记录，超过上限时丢弃最旧的
func (s *Service) remember(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, record)
	if s.cfg != nil && s.cfg.HistorySize > 0 && len(s.history) > s.cfg.HistorySize {
		s.history = append([]Record(nil), s.history[len(s.history)-s.cfg.HistorySize:]...)
	}
}

// History 上传历史，最新的在前
func (s *Service) History() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.history))
	for i := len(s.history) - 1; i >= 0; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// Summary 上传历史汇总
func (s *Service) Summary() HistorySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := HistorySummary{TotalUploads: len(s.history)}
	if len(s.history) == 0 {
		return summary
	}

	var sat float64
	for _, r := range s.history {
		summary.TotalTurns += r.TurnCount
		sat += r.Satisfaction
		if r.Resolution == analytics.ResolutionResolved {
			summary.Resolved++
		}
	}
	summary.AvgSatisfaction = sat / float64(len(s.history))
	return summary
}
