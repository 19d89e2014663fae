package analytics

import (
	"fmt"
	"sort"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// SuccessTopic 成功轮次按主题的汇总
type SuccessTopic struct {
	TopicID          int     `json:"topic_id"`
	MeanSatisfaction float64 `json:"mean_satisfaction"`
	SuccessfulTurns  int     `json:"successful_turns"`
}

// DetailedSuccessTopic 带低满意度比例与主题信息的成功主题
type DetailedSuccessTopic struct {
	TopicID             int     `json:"topic_id"`
	TopicLabel          *string `json:"topic_label"` // 主题表中不存在时为 nil
	MeanSatisfaction    float64 `json:"mean_satisfaction"`
	SuccessfulTurns     int     `json:"successful_turns"`
	LowSatCount         int     `json:"low_sat_count"`
	LowSatisfactionRate float64 `json:"low_satisfaction_rate"`
	NExamples           *int    `json:"n_examples"`
}

// topicAccumulator 按主题累加评分
type topicAccumulator struct {
	topicID int
	scores  []float64
	lowSat  int
}

// accumulateByTopic 按 topic_id 分组，组按 topic_id 升序返回
func accumulateByTopic(turns []dialogue.Turn, keep func(dialogue.Turn) bool) []*topicAccumulator {
	index := make(map[int]*topicAccumulator)
	var groups []*topicAccumulator
	for _, t := range turns {
		if !keep(t) {
			continue
		}
		acc, ok := index[t.TopicID]
		if !ok {
			acc = &topicAccumulator{topicID: t.TopicID}
			index[t.TopicID] = acc
			groups = append(groups, acc)
		}
		acc.scores = append(acc.scores, t.Score())
		if t.LowSatisfaction {
			acc.lowSat++
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].topicID < groups[j].topicID
	})
	return groups
}

// GetSuccessTopics 统计成功（非低满意度且有评分）的用户轮次，按主题平均满意度降序取前 topN 个
func GetSuccessTopics(turns []dialogue.Turn, topN int) []SuccessTopic {
	groups := accumulateByTopic(turns, func(t dialogue.Turn) bool {
		return t.IsUser() && !t.LowSatisfaction && t.HasScore()
	})

	out := make([]SuccessTopic, 0, len(groups))
	for _, g := range groups {
		out = append(out, SuccessTopic{
			TopicID:          g.topicID,
			MeanSatisfaction: mean(g.scores),
			SuccessfulTurns:  len(g.scores),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MeanSatisfaction > out[j].MeanSatisfaction
	})
	return head(out, topN)
}

// GetTopSuccessTopicsDetailed 统计所有有评分的用户轮次
// 按 (low_satisfaction_rate 升序, mean_satisfaction 降序) 排序取前 topN 个，
// 主题标签与样本数从主题表左连接得到，悬空的 topic_id 对应字段为 nil
func GetTopSuccessTopicsDetailed(turns []dialogue.Turn, topics []dialogue.Topic, topN int) []DetailedSuccessTopic {
	groups := accumulateByTopic(turns, func(t dialogue.Turn) bool {
		return t.IsUser() && t.HasScore()
	})

	byID := make(map[int]dialogue.Topic, len(topics))
	for _, topic := range topics {
		if _, ok := byID[topic.TopicID]; !ok {
			byID[topic.TopicID] = topic
		}
	}

	out := make([]DetailedSuccessTopic, 0, len(groups))
	for _, g := range groups {
		row := DetailedSuccessTopic{
			TopicID:             g.topicID,
			MeanSatisfaction:    mean(g.scores),
			SuccessfulTurns:     len(g.scores),
			LowSatCount:         g.lowSat,
			LowSatisfactionRate: float64(g.lowSat) / float64(len(g.scores)),
		}
		if topic, ok := byID[g.topicID]; ok {
			label := topic.TopicLabel
			examples := topic.NExamples
			row.TopicLabel = &label
			row.NExamples = &examples
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LowSatisfactionRate != b.LowSatisfactionRate {
			return a.LowSatisfactionRate < b.LowSatisfactionRate
		}
		return a.MeanSatisfaction > b.MeanSatisfaction
	})
	return head(out, topN)
}

// SuccessInsights 单个主题的"为什么成功"指标
type SuccessInsights struct {
	ClearIntent    string     `json:"clear_intent"`
	Concise        string     `json:"concise"`
	KBCoverage     string     `json:"kb_coverage"`
	DominantIssues []KeyCount `json:"dominant_issues"`
}

// GetSuccessInsightsForTopic 分析主题内轮次的问题标签与会话长度
func GetSuccessInsightsForTopic(turns []dialogue.Turn, topicID int) SuccessInsights {
	topicTurns := TopicTurns(turns, topicID)
	if len(topicTurns) == 0 {
		return SuccessInsights{
			ClearIntent:    NotAvailable,
			Concise:        NotAvailable,
			KBCoverage:     NotAvailable,
			DominantIssues: []KeyCount{},
		}
	}

	withIssues, unsupported := 0, 0
	issues := newCounter()
	for _, t := range topicTurns {
		if t.HasIssues() {
			withIssues++
		}
		if t.HasIssue(dialogue.IssueUnsupportedIntent) {
			unsupported++
		}
		for _, issue := range t.Issues {
			issues.add(issue)
		}
	}
	total := float64(len(topicTurns))
	clearIntent := (1 - float64(withIssues)/total) * 100
	kbCoverage := (1 - float64(unsupported)/total) * 100

	var turnCounts []float64
	for _, g := range groupByConversation(topicTurns) {
		turnCounts = append(turnCounts, float64(maxTurnID(g.turns)))
	}

	return SuccessInsights{
		ClearIntent:    fmt.Sprintf("%.0f%%", clearIntent),
		Concise:        fmt.Sprintf("%.1f turns", mean(turnCounts)),
		KBCoverage:     fmt.Sprintf("%.0f%%", kbCoverage),
		DominantIssues: head(issues.ranked(), 3),
	}
}
