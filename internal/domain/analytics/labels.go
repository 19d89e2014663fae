package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// DiagnosticLabel 失败主题的展示标签
type DiagnosticLabel struct {
	Rank     int            `json:"rank"`
	Label    string         `json:"label"`
	Topic    dialogue.Topic `json:"topic"`
	Inferred bool           `json:"inferred"`
}

// DiagnosticLabels 为失败主题生成互不重复的 "Failure - {theme}" 标签
// 主题按 n_examples 降序；有轮次的主题使用推断主题，否则沿用主题原标签
func DiagnosticLabels(turns []dialogue.Turn, topics []dialogue.Topic) []DiagnosticLabel {
	ordered := make([]dialogue.Topic, len(topics))
	copy(ordered, topics)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].NExamples > ordered[j].NExamples
	})

	used := make(map[string]struct{}, len(ordered))
	out := make([]DiagnosticLabel, 0, len(ordered))
	for i, topic := range ordered {
		theme, inferred := topic.TopicLabel, false
		if topicTurns := TopicTurns(turns, topic.TopicID); len(topicTurns) > 0 {
			theme, inferred = InferConversationTheme(topicTurns), true
		}
		out = append(out, DiagnosticLabel{
			Rank:     i + 1,
			Label:    uniqueLabel("Failure - "+theme, used),
			Topic:    topic,
			Inferred: inferred,
		})
	}
	return out
}

// uniqueLabel 在 used 中已存在时追加 " #n" 后缀（n 从 2 开始），并登记结果
func uniqueLabel(base string, used ...map[string]struct{}) string {
	taken := func(s string) bool {
		for _, set := range used {
			if _, ok := set[s]; ok {
				return true
			}
		}
		return false
	}

	candidate := base
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s #%d", base, n)
	}
	used[0][candidate] = struct{}{}
	return candidate
}

// curatedPositiveLabels 成功主题的精选展示名
var curatedPositiveLabels = map[string]string{
	"Movie Recommendations & Reviews": "Personalized Streaming Wins",
	"Event & Ticket Booking":          "Seamless Ticketing Journey",
	"Account & Profile":               "Effortless Account Support",
	"Orders & Payments":               "Checkout Success Stories",
	"Product Discovery":               "Guided Discovery Delight",
}

// PositiveLabel 返回成功主题的展示名（不去重）
func PositiveLabel(label string) string {
	if curated, ok := curatedPositiveLabels[label]; ok && curated != label {
		return curated
	}
	return label + " Excellence"
}

// PositiveLabeler 生成互不重复、且不与失败主题标签冲突的成功主题展示名
type PositiveLabeler struct {
	used    map[string]struct{}
	failure map[string]struct{}
}

// NewPositiveLabeler 创建标签生成器，failureLabels 为需要避开的主题标签
func NewPositiveLabeler(failureLabels []string) *PositiveLabeler {
	failure := make(map[string]struct{}, len(failureLabels))
	for _, l := range failureLabels {
		failure[l] = struct{}{}
	}
	return &PositiveLabeler{used: make(map[string]struct{}), failure: failure}
}

// Label 返回 label 的唯一展示名
func (p *PositiveLabeler) Label(label string) string {
	return uniqueLabel(PositiveLabel(label), p.used, p.failure)
}

// ConversationHighlights 单行描述会话的亮点
func ConversationHighlights(conv RankedConversation) string {
	var parts []string
	if conv.TurnCount <= 12 {
		parts = append(parts, "Efficient exchange")
	}
	if conv.LowSatCount == 0 {
		parts = append(parts, "No issues")
	}
	if conv.SuccessRate >= 0.95 {
		parts = append(parts, "High satisfaction")
	}
	if len(parts) == 0 {
		parts = append(parts, "Exemplary interaction")
	}
	return strings.Join(parts, " • ")
}
