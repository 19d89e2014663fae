package dashboard

import (
	"time"

	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
)

// MetricsSnapshot 指标历史中的一条记录
type MetricsSnapshot struct {
	Version    int64              `json:"version"`
	Overview   analytics.Overview `json:"overview"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// OverviewDTO 概览页数据
type OverviewDTO struct {
	Version              int64                         `json:"version"`
	KPIs                 analytics.Overview            `json:"kpis"`
	Delta                *analytics.OverviewDelta      `json:"delta"` // 没有历史快照时为 nil
	IssueBreakdown       []analytics.KeyCount          `json:"issue_breakdown"`
	SuccessDistribution  analytics.SuccessDistribution `json:"success_distribution"`
	SeverityDistribution []analytics.KeyCount          `json:"severity_distribution"`
}

// TopicDetailDTO 失败主题详情
type TopicDetailDTO struct {
	Topic           dialogue.Topic            `json:"topic"`
	DisplayLabel    string                    `json:"display_label"`
	TurnCount       int                       `json:"turn_count"`
	SeverityStats   analytics.SeverityStats   `json:"severity_stats"`
	Repair          *dialogue.Repair          `json:"repair"`
	SuccessInsights analytics.SuccessInsights `json:"success_insights"`
}

// SuccessTopicsDTO 成功主题列表（detailed 决定使用哪一种汇总）
type SuccessTopicsDTO struct {
	Detailed bool                             `json:"detailed"`
	Topics   []analytics.SuccessTopic         `json:"topics,omitempty"`
	Details  []analytics.DetailedSuccessTopic `json:"details,omitempty"`
}

// PerformingTopicDTO 带成功展示名的主题表现
type PerformingTopicDTO struct {
	analytics.PerformingTopic
	DisplayLabel string `json:"display_label"`
}

// ConversationExampleDTO 成功会话示例
type ConversationExampleDTO struct {
	analytics.RankedConversation
	DisplayLabel string `json:"display_label"`
	Highlights   string `json:"highlights"`
}

// TakeawaysDTO 成功会话的汇总结论
type TakeawaysDTO struct {
	ConversationCount   int     `json:"conversation_count"`
	AvgSatisfaction     float64 `json:"avg_satisfaction"`
	AvgTurns            float64 `json:"avg_turns"`
	MostSuccessfulTopic string  `json:"most_successful_topic"`
}

// WhatWorksDTO "What works well" 页面数据
type WhatWorksDTO struct {
	TopTopics []PerformingTopicDTO     `json:"top_topics"`
	Patterns  analytics.WhyItWorks     `json:"patterns"`
	Examples  []ConversationExampleDTO `json:"examples"`
	Takeaways *TakeawaysDTO            `json:"takeaways"` // 没有可用会话时为 nil
}

// ConversationDTO 单个会话的完整轮次
type ConversationDTO struct {
	ConvID int             `json:"conv_id"`
	Theme  string          `json:"theme"`
	Turns  []dialogue.Turn `json:"turns"`
}
