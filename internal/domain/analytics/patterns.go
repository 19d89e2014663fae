package analytics

import (
	"fmt"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// 叙述卡片的阈值
const (
	clearIntentThreshold  = 70.0
	kbAlignmentThreshold  = 80.0
	conciseTurnsThreshold = 15.0
	lowErrorThreshold     = 0.85
	wellScopedIssueTypes  = 3
	maxPatterns           = 5
	issueSampleSize       = 5
	defaultLowErrorRate   = 0.95
)

// Pattern 一张"为什么有效"叙述卡片
type Pattern struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Metric      string `json:"metric"`
}

// PatternMetrics 生成卡片所用的原始信号
type PatternMetrics struct {
	ClearIntentPct float64 `json:"clear_intent_pct"`
	KBAlignment    float64 `json:"kb_alignment"`
	AvgTurns       float64 `json:"avg_turns"`
	LowErrorRate   float64 `json:"low_error_rate"`
	IssueTypes     int     `json:"issue_types"`
}

// WhyItWorks 叙述卡片与指标
type WhyItWorks struct {
	Patterns []Pattern       `json:"patterns"`
	Metrics  *PatternMetrics `json:"metrics,omitempty"`
}

// GetWhyItWorksPatterns 从高分会话中提炼成功模式
// 四个阈值卡片按固定顺序独立判断，第五张在 Well-Scoped Domain 与
// Detailed Context & Constraints 之间二选一，最终最多保留 5 张。
// low_error_rate = 1 - 平均每会话低满意度轮次 / 平均轮次数，平均轮次为 0 时取 0.95
func GetWhyItWorksPatterns(convs []RankedConversation, turns []dialogue.Turn) WhyItWorks {
	if len(convs) == 0 {
		return WhyItWorks{Patterns: []Pattern{}}
	}

	ids := make(map[int]struct{}, len(convs))
	for _, c := range convs {
		ids[c.ConvID] = struct{}{}
	}

	total, withIssues, unsupported := 0, 0, 0
	issues := newCounter()
	for _, t := range turns {
		if _, ok := ids[t.ConvID]; !ok {
			continue
		}
		total++
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

	var clearIntent, kbAlignment float64
	if total > 0 {
		clearIntent = (1 - float64(withIssues)/float64(total)) * 100
		kbAlignment = (1 - float64(unsupported)/float64(total)) * 100
	}

	turnSum, lowSatSum := 0, 0
	for _, c := range convs {
		turnSum += c.TurnCount
		lowSatSum += c.LowSatCount
	}
	avgTurns := float64(turnSum) / float64(len(convs))
	avgLowSat := float64(lowSatSum) / float64(len(convs))
	lowErrorRate := defaultLowErrorRate
	if avgTurns > 0 {
		lowErrorRate = 1 - avgLowSat/avgTurns
	}

	issueTypes := len(head(issues.ranked(), issueSampleSize))

	patterns := make([]Pattern, 0, maxPatterns)
	if clearIntent >= clearIntentThreshold {
		patterns = append(patterns, Pattern{
			Title:       "Clear Intent & Specificity",
			Description: fmt.Sprintf("Users state goals and expected outcomes clearly (%.0f%% of turns free of ambiguity), reducing clarification rounds.", clearIntent),
			Metric:      fmt.Sprintf("%.0f%%", clearIntent),
		})
	}
	if kbAlignment >= kbAlignmentThreshold {
		patterns = append(patterns, Pattern{
			Title:       "Strong Knowledge Base Alignment",
			Description: fmt.Sprintf("Requests align well with system knowledge (%.0f%% coverage), leading to faster, more accurate responses.", kbAlignment),
			Metric:      fmt.Sprintf("%.0f%%", kbAlignment),
		})
	}
	if avgTurns <= conciseTurnsThreshold {
		patterns = append(patterns, Pattern{
			Title:       "Efficient Conversation Flow",
			Description: fmt.Sprintf("Conversations are concise (avg %.1f turns), indicating well-structured exchanges with minimal back-and-forth.", avgTurns),
			Metric:      fmt.Sprintf("%.1f turns", avgTurns),
		})
	}
	if lowErrorRate >= lowErrorThreshold {
		issuePct := (1 - lowErrorRate) * 100
		patterns = append(patterns, Pattern{
			Title:       "High Success Rate",
			Description: fmt.Sprintf("Very few satisfaction issues (%.0f%% avg low-sat turns per conversation), indicating user needs are met efficiently.", issuePct),
			Metric:      fmt.Sprintf("%.0f%% issues", issuePct),
		})
	}
	if issueTypes < wellScopedIssueTypes {
		patterns = append(patterns, Pattern{
			Title:       "Well-Scoped Domain",
			Description: "Interactions are focused on topics the system handles well, with minimal edge cases or ambiguities.",
			Metric:      fmt.Sprintf("%d issue types", issueTypes),
		})
	} else {
		patterns = append(patterns, Pattern{
			Title:       "Detailed Context & Constraints",
			Description: "Users provide sufficient context (examples, data, format preferences) upfront, enabling accurate, complete responses.",
			Metric:      "Context-rich",
		})
	}

	return WhyItWorks{
		Patterns: head(patterns, maxPatterns),
		Metrics: &PatternMetrics{
			ClearIntentPct: clearIntent,
			KBAlignment:    kbAlignment,
			AvgTurns:       avgTurns,
			LowErrorRate:   lowErrorRate,
			IssueTypes:     issueTypes,
		},
	}
}
