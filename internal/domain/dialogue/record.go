package dialogue

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// TurnFromRecord 将松散的原始记录规范化为 Turn
// 这是唯一的入口校验点，聚合引擎不再对字段做防御性检查：
//   - speaker 缺失或非法 -> USER
//   - text 缺失 -> ""
//   - satisfaction_score 非数值 -> 缺失
//   - issues 非数组 -> 空列表（非字符串元素被跳过）
//   - severity 非字符串 -> 缺失（字符串原样保留，大小写敏感）
//   - topic_id 缺失/空/NaN -> -1，并标记 TopicMissing
func TurnFromRecord(rec map[string]any) Turn {
	turn := Turn{
		Dataset:            stringField(rec, "dataset"),
		ConvID:             intField(rec, "conv_id", 0),
		TurnID:             intField(rec, "turn_id", 0),
		Speaker:            speakerField(rec),
		Text:               stringField(rec, "text"),
		SatisfactionScore:  floatField(rec, "satisfaction_score"),
		LowSatisfaction:    boolField(rec, "low_satisfaction"),
		Issues:             stringSliceField(rec, "issues"),
		Severity:           stringField(rec, "severity"),
		Reason:             stringField(rec, "reason"),
		TopicID:            intField(rec, "topic_id", UnclusteredTopicID),
		TopicLabel:         stringField(rec, "topic_label"),
		SatisfactionSource: stringField(rec, "satisfaction_source"),
	}
	if _, ok := FloatValue(rec["topic_id"]); !ok {
		turn.TopicMissing = true
	}
	return turn
}

// HasField 记录中是否存在非空字段
func HasField(rec map[string]any, key string) bool {
	v, ok := rec[key]
	return ok && v != nil
}

// FloatValue 将任意 JSON 值转换为有限浮点数
func FloatValue(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func speakerField(rec map[string]any) Speaker {
	s, _ := rec["speaker"].(string)
	switch Speaker(s) {
	case SpeakerUser, SpeakerSystem:
		return Speaker(s)
	case "":
		return SpeakerUser
	default:
		// 未知说话方保留原值，聚合时既不算 USER 也不算 SYSTEM
		return Speaker(s)
	}
}

func stringField(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}

func floatField(rec map[string]any, key string) *float64 {
	f, ok := FloatValue(rec[key])
	if !ok {
		return nil
	}
	return &f
}

func intField(rec map[string]any, key string, def int) int {
	return IntValue(rec[key], def)
}

func boolField(rec map[string]any, key string) bool {
	return BoolValue(rec[key])
}

func stringSliceField(rec map[string]any, key string) []string {
	return StringsValue(rec[key])
}

// IntValue 将整数值的数字或字符串转换为 int，否则返回 def
func IntValue(v any, def int) int {
	f, ok := FloatValue(v)
	if !ok || f != math.Trunc(f) {
		return def
	}
	return int(f)
}

// BoolValue 布尔值、"true"/"1" 之类的字符串或非零数字视为 true
func BoolValue(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(x)
		return err == nil && b
	default:
		f, ok := FloatValue(x)
		return ok && f != 0
	}
}

// StringsValue 取数组中的字符串元素，非数组返回空列表
func StringsValue(v any) []string {
	switch x := v.(type) {
	case []string:
		return append([]string{}, x...)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// TopicFromRecord 将原始主题记录规范化为 Topic
// 数值字段可能是浮点形式（如 2.0）或 NaN，无法解析时取零值
func TopicFromRecord(rec map[string]any) Topic {
	return Topic{
		TopicID:             intField(rec, "topic_id", UnclusteredTopicID),
		TopicLabel:          stringField(rec, "topic_label"),
		ExampleReason:       stringField(rec, "example_reason"),
		NExamples:           intField(rec, "n_examples", 0),
		NUserTurns:          intField(rec, "n_user_turns", 0),
		AvgSatisfaction:     floatOrZero(rec, "avg_satisfaction"),
		LowSatisfactionRate: floatOrZero(rec, "low_satisfaction_rate"),
		TopIssues:           stringSliceField(rec, "top_issues"),
	}
}

// RepairFromRecord 将原始修复方案记录规范化为 Repair
// suggested_prompt_changes 与 guardrail_rules 为单个字符串时转换为单元素列表
func RepairFromRecord(rec map[string]any) Repair {
	return Repair{
		TopicID:                intField(rec, "topic_id", UnclusteredTopicID),
		RootCause:              stringField(rec, "root_cause"),
		SuggestedPromptChanges: stringListField(rec, "suggested_prompt_changes"),
		SystemPromptSnippet:    stringField(rec, "system_prompt_snippet"),
		GuardrailRules:         stringListField(rec, "guardrail_rules"),
	}
}

func floatOrZero(rec map[string]any, key string) float64 {
	f, _ := FloatValue(rec[key])
	return f
}

func stringListField(rec map[string]any, key string) StringList {
	switch x := rec[key].(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return StringList{}
		}
		return StringList{x}
	default:
		return StringList(StringsValue(x))
	}
}
