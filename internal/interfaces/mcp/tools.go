package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
)

// 工具参数默认值
const (
	defaultTopConversations = 10
	defaultSuccessTopN      = 5
	defaultPatternSample    = 50
)

// RankTopicsInput 失败主题排行输入
type RankTopicsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"最多返回的主题数，0 表示全部"`
}

// RankTopicsOutput 失败主题排行输出
type RankTopicsOutput struct {
	Topics []dialogue.Topic `json:"topics" jsonschema:"按低满意度比例排序的主题"`
	Total  int              `json:"total" jsonschema:"主题总数"`
}

// SeverityStatsInput 严重程度统计输入
type SeverityStatsInput struct {
	TopicID int `json:"topic_id" jsonschema:"主题 ID，-1 表示未聚类轮次"`
}

// SeverityStatsOutput 严重程度统计输出
type SeverityStatsOutput struct {
	TopicID int                     `json:"topic_id" jsonschema:"主题 ID"`
	Stats   analytics.SeverityStats `json:"stats" jsonschema:"严重程度统计"`
}

// TopConversationsInput 高分会话输入
type TopConversationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"返回条数，默认 10"`
}

// TopConversationsOutput 高分会话输出
type TopConversationsOutput struct {
	Conversations []analytics.RankedConversation `json:"conversations" jsonschema:"按平均满意度排序的会话"`
}

// SuccessTopicsInput 成功主题输入
type SuccessTopicsInput struct {
	TopN     int  `json:"top_n,omitempty" jsonschema:"返回条数，默认 5"`
	Detailed bool `json:"detailed,omitempty" jsonschema:"是否返回详细指标"`
}

// WhyItWorksInput 成功模式输入
type WhyItWorksInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"参与分析的高分会话数，默认 50"`
}

// InferThemeInput 主题推断输入
type InferThemeInput struct {
	ConvID    *int   `json:"conv_id,omitempty" jsonschema:"数据集中的会话 ID"`
	Text      string `json:"text,omitempty" jsonschema:"未提供 conv_id 时用于推断的文本"`
	TurnCount int    `json:"turn_count,omitempty" jsonschema:"回退标签使用的轮次数"`
}

// InferThemeOutput 主题推断输出
type InferThemeOutput struct {
	Theme  string `json:"theme" jsonschema:"推断出的主题"`
	ConvID *int   `json:"conv_id,omitempty" jsonschema:"会话 ID"`
}

func (s *MCPServer) rankTopicsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RankTopicsInput,
) (*mcp.CallToolResult, RankTopicsOutput, error) {
	topics, err := s.dashboard.RankedTopics()
	if err != nil {
		return nil, RankTopicsOutput{}, fmt.Errorf("rank topics: %w", err)
	}

	total := len(topics)
	if input.Limit > 0 && len(topics) > input.Limit {
		topics = topics[:input.Limit]
	}
	return nil, RankTopicsOutput{Topics: topics, Total: total}, nil
}

func (s *MCPServer) getSeverityStatsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SeverityStatsInput,
) (*mcp.CallToolResult, SeverityStatsOutput, error) {
	stats, err := s.dashboard.SeverityStats(input.TopicID)
	if err != nil {
		return nil, SeverityStatsOutput{}, fmt.Errorf("severity stats: %w", err)
	}
	return nil, SeverityStatsOutput{TopicID: input.TopicID, Stats: *stats}, nil
}

func (s *MCPServer) getTopConversationsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input TopConversationsInput,
) (*mcp.CallToolResult, TopConversationsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = defaultTopConversations
	}

	convs, err := s.dashboard.TopConversations(limit)
	if err != nil {
		return nil, TopConversationsOutput{}, fmt.Errorf("top conversations: %w", err)
	}
	return nil, TopConversationsOutput{Conversations: convs}, nil
}

func (s *MCPServer) getSuccessTopicsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SuccessTopicsInput,
) (*mcp.CallToolResult, dashboard.SuccessTopicsDTO, error) {
	topN := input.TopN
	if topN == 0 {
		topN = defaultSuccessTopN
	}

	result, err := s.dashboard.SuccessTopics(topN, input.Detailed)
	if err != nil {
		return nil, dashboard.SuccessTopicsDTO{}, fmt.Errorf("success topics: %w", err)
	}
	return nil, *result, nil
}

func (s *MCPServer) getWhyItWorksTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input WhyItWorksInput,
) (*mcp.CallToolResult, analytics.WhyItWorks, error) {
	limit := input.Limit
	if limit == 0 {
		limit = defaultPatternSample
	}

	patterns, err := s.dashboard.WhyItWorks(limit)
	if err != nil {
		return nil, analytics.WhyItWorks{}, fmt.Errorf("why it works: %w", err)
	}
	return nil, *patterns, nil
}

func (s *MCPServer) inferThemeTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input InferThemeInput,
) (*mcp.CallToolResult, InferThemeOutput, error) {
	if input.ConvID == nil {
		return nil, InferThemeOutput{
			Theme: s.dashboard.InferTheme(input.Text, input.TurnCount),
		}, nil
	}

	conv, err := s.dashboard.Conversation(*input.ConvID)
	if err != nil {
		return nil, InferThemeOutput{}, fmt.Errorf("infer theme for conversation %d: %w", *input.ConvID, err)
	}
	return nil, InferThemeOutput{Theme: conv.Theme, ConvID: input.ConvID}, nil
}
