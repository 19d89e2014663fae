package analytics

import (
	"regexp"
	"strings"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// 上传数据的来源标记
const (
	UploadDataset            = dialogue.UploadDataset
	UploadSatisfactionSource = "upload"
)

// 解决状态与处理成本
const (
	ResolutionResolved   = "Resolved"
	ResolutionUnresolved = "Unresolved"

	EffortLow    = "Low"
	EffortMedium = "Medium"
	EffortHigh   = "High"
)

const (
	uploadBaseScore     = 3.5
	uploadPositiveBoost = 0.3
	uploadNegativeCost  = 0.4
	lowEffortTurns      = 6
	mediumEffortTurns   = 12
)

var (
	positiveWords = []string{"thank", "great", "helpful", "resolved", "love", "fast", "excellent", "perfect", "good"}
	negativeWords = []string{"angry", "bad", "slow", "issue", "problem", "refund", "disappointed", "terrible"}

	topicPrefix = regexp.MustCompile(`^Topic\s*\d+\s*[:\-]\s*`)
)

// TokenCounter 统计文本 token 数
type TokenCounter interface {
	Count(text string) int
}

// ScoreUploadedText 关键词启发式打分：3.5 + 0.3*正向词数 - 0.4*负向词数，截断到 [1, 5]
// 每个关键词按子串最多计一次
func ScoreUploadedText(text string) float64 {
	lower := strings.ToLower(text)
	score := uploadBaseScore +
		float64(countContained(lower, positiveWords))*uploadPositiveBoost -
		float64(countContained(lower, negativeWords))*uploadNegativeCost
	return min(5.0, max(1.0, score))
}

func countContained(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// CleanTopicLabel 去掉 "Topic 4: " 之类的编号前缀
func CleanTopicLabel(label string) string {
	if label == "" {
		return ""
	}
	return strings.TrimSpace(topicPrefix.ReplaceAllString(label, ""))
}

// BuildUploadTurns 将上传记录转换为 conv_id 会话下的轮次，turn_id 从 1 开始
func BuildUploadTurns(records []map[string]any, convID int) []dialogue.Turn {
	turns := make([]dialogue.Turn, 0, len(records))
	for i, rec := range records {
		text, _ := rec["text"].(string)

		score, ok := dialogue.FloatValue(rec["satisfaction_score"])
		if !dialogue.HasField(rec, "satisfaction_score") || !ok {
			score = ScoreUploadedText(text)
		}

		speaker := dialogue.SpeakerUser
		if s, ok := rec["speaker"].(string); ok {
			speaker = dialogue.Speaker(s)
		}

		severity := dialogue.SeverityNone
		if _, present := rec["severity"]; present {
			severity, _ = rec["severity"].(string)
		}

		topicID := dialogue.UnclusteredTopicID
		if _, present := rec["topic_id"]; present {
			topicID = dialogue.IntValue(rec["topic_id"], dialogue.UnclusteredTopicID)
		}

		label := dialogue.UnclusteredTopicLabel
		if _, present := rec["topic_label"]; present {
			label, _ = rec["topic_label"].(string)
		}

		reason, _ := rec["reason"].(string)

		turns = append(turns, dialogue.Turn{
			Dataset:            UploadDataset,
			ConvID:             convID,
			TurnID:             i + 1,
			Speaker:            speaker,
			Text:               text,
			SatisfactionScore:  floatPtr(score),
			LowSatisfaction:    score != 0 && score < dialogue.LowSatisfactionThreshold,
			Issues:             dialogue.StringsValue(rec["issues"]),
			Severity:           severity,
			Reason:             reason,
			TopicID:            topicID,
			TopicLabel:         CleanTopicLabel(label),
			SatisfactionSource: UploadSatisfactionSource,
		})
	}
	return turns
}

// UploadAnalysis 上传会话的分析结果
type UploadAnalysis struct {
	Satisfaction         float64 `json:"satisfaction"` // 0-100
	Resolution           string  `json:"resolution"`
	Effort               string  `json:"effort"`
	Theme                string  `json:"theme"`
	TurnCount            int     `json:"turn_count"`
	LowSatisfactionTurns int     `json:"low_satisfaction_turns"`
	TokenCount           int     `json:"token_count"`
}

// AnalyzeUpload 基于原始上传记录计算会话指标
// 满意度只使用记录中提供的评分，没有评分时按 3.5 计；tokens 为 nil 时不统计 token 数
func AnalyzeUpload(records []map[string]any, tokens TokenCounter) UploadAnalysis {
	var scores []float64
	lowSat := 0
	labels := newCounter()
	texts := make([]string, 0, len(records))
	for _, rec := range records {
		if score, ok := dialogue.FloatValue(rec["satisfaction_score"]); ok {
			scores = append(scores, score)
		}
		if dialogue.BoolValue(rec["low_satisfaction"]) {
			lowSat++
		}
		if raw, _ := rec["topic_label"].(string); raw != "" && raw != dialogue.UnclusteredTopicLabel {
			if cleaned := CleanTopicLabel(raw); cleaned != "" {
				labels.add(cleaned)
			}
		}
		text, _ := rec["text"].(string)
		texts = append(texts, text)
	}

	avg := uploadBaseScore
	if len(scores) > 0 {
		avg = mean(scores)
	}

	result := UploadAnalysis{
		Satisfaction:         round(avg*20, 1),
		Resolution:           ResolutionUnresolved,
		TurnCount:            len(records),
		LowSatisfactionTurns: lowSat,
	}
	if avg >= uploadBaseScore && lowSat <= 1 {
		result.Resolution = ResolutionResolved
	}

	switch {
	case len(records) <= lowEffortTurns:
		result.Effort = EffortLow
	case len(records) <= mediumEffortTurns:
		result.Effort = EffortMedium
	default:
		result.Effort = EffortHigh
	}

	allText := strings.Join(texts, " ")
	if theme, ok := labels.mostCommon(); ok {
		result.Theme = theme
	} else {
		result.Theme = InferThemeFromText(allText, len(records))
	}

	if tokens != nil {
		result.TokenCount = tokens.Count(allText)
	}
	return result
}
