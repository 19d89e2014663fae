// Package dialogue 定义对话分析的领域模型：对话轮次、失败主题、修复方案与数据集快照
package dialogue

import (
	"encoding/json"
	"fmt"
)

// Speaker 说话方
type Speaker string

const (
	// SpeakerUser 用户
	SpeakerUser Speaker = "USER"
	// SpeakerSystem 系统（助手）
	SpeakerSystem Speaker = "SYSTEM"
)

// 严重程度标签（大小写敏感）
const (
	SeverityLow    = "LOW"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
	SeverityNone   = "NONE"
)

const (
	// UnclusteredTopicID 未聚类（或缺失）的主题 ID
	UnclusteredTopicID       = -1
	// UnclusteredTopicLabel 未聚类主题的默认标签
	UnclusteredTopicLabel    = "UNCLUSTERED"
	// IssueUnsupportedIntent 知识库未覆盖的意图
	IssueUnsupportedIntent   = "UNSUPPORTED_INTENT"
	// LowSatisfactionThreshold 低满意度阈值（满意度低于该值视为失败）
	LowSatisfactionThreshold = 3.5
	// UploadDataset 会话内上传数据的 dataset 标记
	UploadDataset            = "UPLOAD"
)

// Turn 对话中的一轮发言
type Turn struct {
	Dataset            string   `json:"dataset,omitempty"`
	ConvID             int      `json:"conv_id"`
	TurnID             int      `json:"turn_id"`
	Speaker            Speaker  `json:"speaker"`
	Text               string   `json:"text"`
	SatisfactionScore  *float64 `json:"satisfaction_score"` // nil 表示缺失
	LowSatisfaction    bool     `json:"low_satisfaction"`
	Issues             []string `json:"issues"`
	Severity           string   `json:"severity,omitempty"` // 空字符串表示缺失
	Reason             string   `json:"reason,omitempty"`
	TopicID            int      `json:"topic_id"` // -1 表示未聚类
	TopicLabel         string   `json:"topic_label,omitempty"`
	SatisfactionSource string   `json:"satisfaction_source,omitempty"`
	// TopicMissing 原始记录没有可用的 topic_id（缺失、空或 NaN），区别于显式的 -1
	TopicMissing       bool     `json:"-"`
}

// IsUser 是否为用户发言
func (t Turn) IsUser() bool {
	return t.Speaker == SpeakerUser
}

// IsSystem 是否为系统发言
func (t Turn) IsSystem() bool {
	return t.Speaker == SpeakerSystem
}

// HasScore 是否有满意度评分
func (t Turn) HasScore() bool {
	return t.SatisfactionScore != nil
}

// Score 返回满意度评分，缺失时返回 0
func (t Turn) Score() float64 {
	if t.SatisfactionScore == nil {
		return 0
	}
	return *t.SatisfactionScore
}

// HasSeverity 是否记录了严重程度
func (t Turn) HasSeverity() bool {
	return t.Severity != ""
}

// HasIssues 是否记录了任何问题标签
func (t Turn) HasIssues() bool {
	return len(t.Issues) > 0
}

// HasIssue 是否包含指定问题标签
func (t Turn) HasIssue(tag string) bool {
	for _, issue := range t.Issues {
		if issue == tag {
			return true
		}
	}
	return false
}

// Topic 上游聚类得到的失败主题
type Topic struct {
	TopicID             int      `json:"topic_id"`
	TopicLabel          string   `json:"topic_label"`
	ExampleReason       string   `json:"example_reason"`
	NExamples           int      `json:"n_examples"`
	NUserTurns          int      `json:"n_user_turns"`
	AvgSatisfaction     float64  `json:"avg_satisfaction"`
	LowSatisfactionRate float64  `json:"low_satisfaction_rate"`
	TopIssues           []string `json:"top_issues"`
}

// Repair 主题对应的修复方案
type Repair struct {
	TopicID                int        `json:"topic_id"`
	RootCause              string     `json:"root_cause"`
	SuggestedPromptChanges StringList `json:"suggested_prompt_changes"`
	SystemPromptSnippet    string     `json:"system_prompt_snippet"`
	GuardrailRules         StringList `json:"guardrail_rules"`
}

// SandboxCase 上传实验室的预置示例
type SandboxCase struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Turns       []map[string]any `json:"turns"`
}

// StringList 兼容单个字符串或字符串数组的 JSON 字段
type StringList []string

// UnmarshalJSON 实现 json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = StringList{}
		} else {
			*l = StringList{single}
		}
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("string list must be a string or an array: %w", err)
	}
	out := make(StringList, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// IsKnownSeverity 是否为四个合法的严重程度标签之一
func IsKnownSeverity(severity string) bool {
	switch severity {
	case SeverityHigh, SeverityMedium, SeverityLow, SeverityNone:
		return true
	}
	return false
}
