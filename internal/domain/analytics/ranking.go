package analytics

import (
	"sort"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// RankTopics 按 (low_satisfaction_rate 降序, n_examples 降序) 对主题排序
// 稳定排序，两个键都相同时保持输入顺序；返回新切片，不修改输入
// 缺失的 top_issues 规范为空列表，序列化结果始终是数组
func RankTopics(topics []dialogue.Topic) []dialogue.Topic {
	ranked := make([]dialogue.Topic, len(topics))
	copy(ranked, topics)
	for i := range ranked {
		if ranked[i].TopIssues == nil {
			ranked[i].TopIssues = []string{}
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.LowSatisfactionRate != b.LowSatisfactionRate {
			return a.LowSatisfactionRate > b.LowSatisfactionRate
		}
		return a.NExamples > b.NExamples
	})
	return ranked
}

// TopicTurns 返回属于指定主题的轮次（保持原顺序）
func TopicTurns(turns []dialogue.Turn, topicID int) []dialogue.Turn {
	out := make([]dialogue.Turn, 0)
	for _, t := range turns {
		if t.TopicID == topicID {
			out = append(out, t)
		}
	}
	return out
}

// ConversationTurns 返回指定会话的全部轮次，按 turn_id 排序
func ConversationTurns(turns []dialogue.Turn, convID int) []dialogue.Turn {
	out := make([]dialogue.Turn, 0)
	for _, t := range turns {
		if t.ConvID == convID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TurnID < out[j].TurnID
	})
	return out
}

// ConversationIDs 返回会话 ID 列表（按首次出现顺序去重）
func ConversationIDs(turns []dialogue.Turn) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, t := range turns {
		if _, ok := seen[t.ConvID]; ok {
			continue
		}
		seen[t.ConvID] = struct{}{}
		out = append(out, t.ConvID)
	}
	return out
}
