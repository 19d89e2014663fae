package analytics

import (
	"sort"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// Overview 概览页 KPI
type Overview struct {
	MeanSatisfaction    *float64 `json:"mean_satisfaction"`
	LowSatisfactionRate *float64 `json:"low_satisfaction_rate"`
	TopicCount          int      `json:"topic_count"`
	LowSatTurns         int      `json:"low_sat_turns"`
	LowSatMeanScore     *float64 `json:"low_sat_mean_score"`
	TotalTurns          int      `json:"total_turns"`
	TotalConversations  int      `json:"total_conversations"`
}

// ComputeOverview 计算概览 KPI，缺少数据的指标为 nil
func ComputeOverview(turns []dialogue.Turn, topics []dialogue.Topic) Overview {
	var scores, lowScores []float64
	lowSat := 0
	for _, t := range turns {
		if t.HasScore() {
			scores = append(scores, t.Score())
		}
		if t.LowSatisfaction {
			lowSat++
			if t.HasScore() {
				lowScores = append(lowScores, t.Score())
			}
		}
	}

	ov := Overview{
		TopicCount:         len(topics),
		LowSatTurns:        lowSat,
		TotalTurns:         len(turns),
		TotalConversations: len(ConversationIDs(turns)),
	}
	if len(scores) > 0 {
		ov.MeanSatisfaction = floatPtr(mean(scores))
	}
	if len(turns) > 0 {
		ov.LowSatisfactionRate = floatPtr(float64(lowSat) / float64(len(turns)))
	}
	if len(lowScores) > 0 {
		ov.LowSatMeanScore = floatPtr(mean(lowScores))
	}
	return ov
}

// OverviewDelta 两次概览之间的变化量
type OverviewDelta struct {
	MeanSatisfaction    *float64 `json:"mean_satisfaction"`
	LowSatisfactionRate *float64 `json:"low_satisfaction_rate"`
	TopicCount          int      `json:"topic_count"`
	LowSatTurns         int      `json:"low_sat_turns"`
	LowSatMeanScore     *float64 `json:"low_sat_mean_score"`
	TotalTurns          int      `json:"total_turns"`
	TotalConversations  int      `json:"total_conversations"`
}

// CompareOverview 计算 cur 相对 prev 的变化
func CompareOverview(prev, cur Overview) OverviewDelta {
	return OverviewDelta{
		MeanSatisfaction:    diffPtr(prev.MeanSatisfaction, cur.MeanSatisfaction),
		LowSatisfactionRate: diffPtr(prev.LowSatisfactionRate, cur.LowSatisfactionRate),
		TopicCount:          cur.TopicCount - prev.TopicCount,
		LowSatTurns:         cur.LowSatTurns - prev.LowSatTurns,
		LowSatMeanScore:     diffPtr(prev.LowSatMeanScore, cur.LowSatMeanScore),
		TotalTurns:          cur.TotalTurns - prev.TotalTurns,
		TotalConversations:  cur.TotalConversations - prev.TotalConversations,
	}
}

func diffPtr(prev, cur *float64) *float64 {
	if prev == nil || cur == nil {
		return nil
	}
	return floatPtr(*cur - *prev)
}

// IssueBreakdown 低满意度轮次中的问题标签分布（空标签跳过）
func IssueBreakdown(turns []dialogue.Turn) []KeyCount {
	issues := newCounter()
	for _, t := range turns {
		if !t.LowSatisfaction {
			continue
		}
		for _, issue := range t.Issues {
			if issue != "" {
				issues.add(issue)
			}
		}
	}
	return issues.ranked()
}

// SuccessDistribution 成功/失败轮次分布
type SuccessDistribution struct {
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	SuccessfulPct float64 `json:"successful_pct"`
	FailedPct     float64 `json:"failed_pct"`
}

// ComputeSuccessDistribution 统计成功与失败轮次及其占比（保留一位小数）
func ComputeSuccessDistribution(turns []dialogue.Turn) SuccessDistribution {
	dist := SuccessDistribution{}
	for _, t := range turns {
		if t.LowSatisfaction {
			dist.Failed++
		} else {
			dist.Successful++
		}
	}
	if total := dist.Successful + dist.Failed; total > 0 {
		dist.SuccessfulPct = round(float64(dist.Successful)/float64(total)*100, 1)
		dist.FailedPct = round(float64(dist.Failed)/float64(total)*100, 1)
	}
	return dist
}

// dominantSeverityOrder 主导严重程度分布的展示顺序
var dominantSeverityOrder = []string{
	dialogue.SeverityHigh,
	dialogue.SeverityMedium,
	dialogue.SeverityLow,
	dialogue.SeverityNone,
}

// failureTopics 低满意度轮次按主题分组，主题按首次出现顺序
func failureTopics(turns []dialogue.Turn) ([]int, map[int][]dialogue.Turn) {
	var order []int
	byTopic := make(map[int][]dialogue.Turn)
	for _, t := range turns {
		if !t.LowSatisfaction {
			continue
		}
		if _, ok := byTopic[t.TopicID]; !ok {
			order = append(order, t.TopicID)
		}
		byTopic[t.TopicID] = append(byTopic[t.TopicID], t)
	}
	return order, byTopic
}

// DominantSeverityDistribution 统计各主题失败轮次的主导严重程度
// 结果固定按 HIGH, MEDIUM, LOW, NONE 顺序返回
func DominantSeverityDistribution(turns []dialogue.Turn) []KeyCount {
	counts := make(map[string]int, len(dominantSeverityOrder))
	order, byTopic := failureTopics(turns)
	for _, topicID := range order {
		dom := ComputeSeverityStats(byTopic[topicID]).DominantSeverity
		counts[dom]++
	}

	out := make([]KeyCount, 0, len(dominantSeverityOrder))
	for _, sev := range dominantSeverityOrder {
		out = append(out, KeyCount{Key: sev, Count: counts[sev]})
	}
	return out
}

// TopicFailureCount 主题及其失败轮次数
type TopicFailureCount struct {
	TopicID      int `json:"topic_id"`
	FailureTurns int `json:"failure_turns"`
}

// TopicsByDominantSeverity 返回失败轮次主导严重程度等于 severity 的主题，按失败轮次数降序
func TopicsByDominantSeverity(turns []dialogue.Turn, severity string, limit int) []TopicFailureCount {
	out := make([]TopicFailureCount, 0)
	order, byTopic := failureTopics(turns)
	for _, topicID := range order {
		topicTurns := byTopic[topicID]
		if ComputeSeverityStats(topicTurns).DominantSeverity != severity {
			continue
		}
		out = append(out, TopicFailureCount{TopicID: topicID, FailureTurns: len(topicTurns)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FailureTurns > out[j].FailureTurns
	})
	return head(out, limit)
}
