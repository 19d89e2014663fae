package analytics

import "sort"

// PerformingTopic 由会话列表汇总得到的主题表现
type PerformingTopic struct {
	TopicLabel       string  `json:"topic_label"`
	NumConversations int     `json:"num_conversations"`
	AvgSatisfaction  float64 `json:"avg_satisfaction"`
	SuccessRate      float64 `json:"success_rate"`
	MedianTurns      float64 `json:"median_turns"`
	AvgTurns         float64 `json:"avg_turns"`
}

// GetTopPerformingTopicsFromConversations 按会话的（可能是推断的）主题标签汇总
// 排序：(success_rate 降序, avg_satisfaction 降序)，标签升序兜底
func GetTopPerformingTopicsFromConversations(convs []RankedConversation, limit int) []PerformingTopic {
	type acc struct {
		sat, success, turns []float64
	}
	groups := make(map[string]*acc)
	var labels []string
	for _, c := range convs {
		g, ok := groups[c.TopicLabel]
		if !ok {
			g = &acc{}
			groups[c.TopicLabel] = g
			labels = append(labels, c.TopicLabel)
		}
		g.sat = append(g.sat, c.MeanSatisfaction)
		g.success = append(g.success, c.SuccessRate)
		g.turns = append(g.turns, float64(c.TurnCount))
	}
	sort.Strings(labels)

	out := make([]PerformingTopic, 0, len(labels))
	for _, label := range labels {
		g := groups[label]
		out = append(out, PerformingTopic{
			TopicLabel:       label,
			NumConversations: len(g.sat),
			AvgSatisfaction:  mean(g.sat),
			SuccessRate:      mean(g.success),
			MedianTurns:      median(g.turns),
			AvgTurns:         mean(g.turns),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SuccessRate != b.SuccessRate {
			return a.SuccessRate > b.SuccessRate
		}
		return a.AvgSatisfaction > b.AvgSatisfaction
	})
	return head(out, limit)
}
