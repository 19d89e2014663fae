package analytics

import (
	"strings"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// FailureSummary 会话中第一个失败轮次的摘要
type FailureSummary struct {
	TurnID   int    `json:"turn_id"`
	Issues   string `json:"issues"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// SampleConversation 主题下的示例会话
type SampleConversation struct {
	ConvID  int             `json:"conv_id"`
	Failure *FailureSummary `json:"failure,omitempty"`
	Turns   []dialogue.Turn `json:"turns"`
}

// ConversationPage 主题示例会话的一页
type ConversationPage struct {
	TopicID       int                  `json:"topic_id"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"page_size"`
	Total         int                  `json:"total"`
	HasMore       bool                 `json:"has_more"`
	Conversations []SampleConversation `json:"conversations"`
}

// TopicConversationPage 分页返回主题下的会话
// 会话按在表中首次出现的顺序排列；page 从 0 开始，pageSize <= 0 时按 1 处理
func TopicConversationPage(turns []dialogue.Turn, topicID, page, pageSize int) ConversationPage {
	if pageSize <= 0 {
		pageSize = 1
	}
	if page < 0 {
		page = 0
	}

	convIDs := ConversationIDs(TopicTurns(turns, topicID))
	result := ConversationPage{
		TopicID:       topicID,
		Page:          page,
		PageSize:      pageSize,
		Total:         len(convIDs),
		Conversations: make([]SampleConversation, 0, pageSize),
	}

	start := page * pageSize
	if start >= len(convIDs) {
		return result
	}
	end := min(start+pageSize, len(convIDs))
	result.HasMore = end < len(convIDs)

	for _, convID := range convIDs[start:end] {
		convTurns := ConversationTurns(turns, convID)
		result.Conversations = append(result.Conversations, SampleConversation{
			ConvID:  convID,
			Failure: summarizeFailure(convTurns, topicID),
			Turns:   convTurns,
		})
	}
	return result
}

// summarizeFailure 取会话中属于该主题的第一个低满意度轮次
func summarizeFailure(convTurns []dialogue.Turn, topicID int) *FailureSummary {
	for _, t := range convTurns {
		if !t.LowSatisfaction || t.TopicID != topicID {
			continue
		}
		summary := &FailureSummary{
			TurnID:   t.TurnID,
			Issues:   "General failure",
			Reason:   "N/A",
			Severity: "N/A",
		}
		if t.HasIssues() {
			summary.Issues = strings.Join(t.Issues, ", ")
		}
		if t.Reason != "" {
			summary.Reason = t.Reason
		}
		if t.HasSeverity() {
			summary.Severity = t.Severity
		}
		return summary
	}
	return nil
}
