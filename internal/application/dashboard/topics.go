package dashboard

import (
	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
)

// RankedTopics 按低满意度比例排序的失败主题
func (s *Service) RankedTopics() ([]dialogue.Topic, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	return analytics.RankTopics(ds.Topics), nil
}

// DiagnosticLabels 失败主题的展示标签
func (s *Service) DiagnosticLabels() ([]analytics.DiagnosticLabel, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	return analytics.DiagnosticLabels(ds.Turns, ds.Topics), nil
}

// TopicDetail 主题详情：元数据、严重程度、修复方案与成功指标
func (s *Service) TopicDetail(topicID int) (*TopicDetailDTO, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}

	topic, ok := ds.TopicByID(topicID)
	if !ok {
		return nil, dialogue.ErrTopicNotFound
	}

	topicTurns := analytics.TopicTurns(ds.Turns, topicID)
	theme := topic.TopicLabel
	if len(topicTurns) > 0 {
		theme = analytics.InferConversationTheme(topicTurns)
	}

	dto := &TopicDetailDTO{
		Topic:           topic,
		DisplayLabel:    "Failure - " + theme,
		TurnCount:       len(topicTurns),
		SeverityStats:   analytics.ComputeSeverityStats(topicTurns),
		SuccessInsights: analytics.GetSuccessInsightsForTopic(ds.Turns, topicID),
	}
	if repair, ok := ds.RepairByTopic(topicID); ok {
		dto.Repair = &repair
	}
	return dto, nil
}

// TopicConversations 主题下的示例会话（分页）
func (s *Service) TopicConversations(topicID, page, pageSize int) (*analytics.ConversationPage, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	if _, ok := ds.TopicByID(topicID); !ok {
		return nil, dialogue.ErrTopicNotFound
	}

	result := analytics.TopicConversationPage(ds.Turns, topicID, page, pageSize)
	return &result, nil
}

// SuccessfulConversations 主题内满意度最高的会话
func (s *Service) SuccessfulConversations(topicID, limit int) ([]analytics.ConversationStats, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	return analytics.GetSuccessfulConversations(ds.Turns, topicID, limit), nil
}

// TopicsBySeverity 主导失败严重程度为 severity 的主题
func (s *Service) TopicsBySeverity(severity string, limit int) ([]analytics.TopicFailureCount, error) {
	if !dialogue.IsKnownSeverity(severity) {
		return nil, dialogue.ErrInvalidSeverity
	}

	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	return analytics.TopicsByDominantSeverity(ds.Turns, severity, limit), nil
}

// SeverityStats 任意主题（包括未聚类主题 -1）的严重程度统计
func (s *Service) SeverityStats(topicID int) (*analytics.SeverityStats, error) {
	ds, err := s.repo.Snapshot()
	if err != nil {
		return nil, err
	}
	stats := analytics.ComputeSeverityStats(analytics.TopicTurns(ds.Turns, topicID))
	return &stats, nil
}
