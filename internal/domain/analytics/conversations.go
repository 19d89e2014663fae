package analytics

import (
	"sort"
	"strconv"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// ConversationStats 单个会话的满意度统计
type ConversationStats struct {
	ConvID           int     `json:"conv_id"`
	MinSatisfaction  float64 `json:"min_satisfaction"`
	MaxSatisfaction  float64 `json:"max_satisfaction"`
	MeanSatisfaction float64 `json:"mean_satisfaction"`
	TurnCount        int     `json:"turn_count"`
	SystemTurns      int     `json:"system_turns"`
	UserTurns        int     `json:"user_turns"`
	LowSatCount      int     `json:"low_sat_count"`
}

// RankedConversation 带主题归属与成功率的会话
type RankedConversation struct {
	ConversationStats
	SuccessRate float64 `json:"success_rate"`
	// TopicID 会话的主导主题；-1 表示标签由主题推断得到而非规范主题
	TopicID    int    `json:"topic_id"`
	TopicLabel string `json:"topic_label"`
}

// summarizeConversation 计算会话统计；没有用户轮次或没有评分时返回 false
func summarizeConversation(g conversationGroup) (ConversationStats, bool) {
	var scores []float64
	users, systems, lowSat := 0, 0, 0
	for _, t := range g.turns {
		switch {
		case t.IsUser():
			users++
			if t.HasScore() {
				scores = append(scores, t.Score())
			}
			if t.LowSatisfaction {
				lowSat++
			}
		case t.IsSystem():
			systems++
		}
	}
	if users == 0 || len(scores) == 0 {
		return ConversationStats{}, false
	}

	lo, hi := minMax(scores)
	return ConversationStats{
		ConvID:           g.convID,
		MinSatisfaction:  lo,
		MaxSatisfaction:  hi,
		MeanSatisfaction: mean(scores),
		TurnCount:        maxTurnID(g.turns),
		SystemTurns:      systems,
		UserTurns:        users,
		LowSatCount:      lowSat,
	}, true
}

// GetSuccessfulConversations 返回指定主题下满意度最高的会话
// 排序：(mean_satisfaction 降序, low_sat_count 升序)，会话 ID 升序兜底
func GetSuccessfulConversations(turns []dialogue.Turn, topicID, limit int) []ConversationStats {
	out := make([]ConversationStats, 0)
	for _, g := range groupByConversation(TopicTurns(turns, topicID)) {
		if stats, ok := summarizeConversation(g); ok {
			out = append(out, stats)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MeanSatisfaction != b.MeanSatisfaction {
			return a.MeanSatisfaction > b.MeanSatisfaction
		}
		return a.LowSatCount < b.LowSatCount
	})
	return head(out, limit)
}

// GetTopConversations 返回全量数据中满意度最高的会话
// 主题归属取会话内出现次数最多的 topic_id（并列取最先出现者）；
// 主题缺失或标签为空时改用 InferConversationTheme 推断标签，并将 topic_id 记为 -1。
// 排序：(mean_satisfaction 降序, user_turns 降序, low_sat_count 升序)
func GetTopConversations(turns []dialogue.Turn, limit int) []RankedConversation {
	out := make([]RankedConversation, 0)
	for _, g := range groupByConversation(turns) {
		stats, ok := summarizeConversation(g)
		if !ok {
			continue
		}

		topicID, label := assignTopic(g.turns)
		if topicID < 0 || label == "" {
			label = InferConversationTheme(g.turns)
			topicID = dialogue.UnclusteredTopicID
		}

		out = append(out, RankedConversation{
			ConversationStats: stats,
			SuccessRate:       1 - float64(stats.LowSatCount)/float64(stats.UserTurns),
			TopicID:           topicID,
			TopicLabel:        label,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MeanSatisfaction != b.MeanSatisfaction {
			return a.MeanSatisfaction > b.MeanSatisfaction
		}
		if a.UserTurns != b.UserTurns {
			return a.UserTurns > b.UserTurns
		}
		return a.LowSatCount < b.LowSatCount
	})
	return head(out, limit)
}

// assignTopic 返回会话的众数主题及其首个标签
// 缺失 topic_id 的轮次不参与计数，显式的 -1 照常计数
func assignTopic(turns []dialogue.Turn) (int, string) {
	topics := newCounter()
	for _, t := range turns {
		if t.TopicMissing {
			continue
		}
		topics.add(strconv.Itoa(t.TopicID))
	}
	key, ok := topics.mostCommon()
	if !ok {
		return dialogue.UnclusteredTopicID, ""
	}
	topicID, _ := strconv.Atoi(key)
	if topicID < 0 {
		return topicID, ""
	}
	for _, t := range turns {
		if !t.TopicMissing && t.TopicID == topicID {
			return topicID, t.TopicLabel
		}
	}
	return topicID, ""
}
