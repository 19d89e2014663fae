package analytics

import "github.com/retailmind/backend/internal/domain/dialogue"

// severityScores 严重程度到数值的映射
var severityScores = map[string]float64{
	dialogue.SeverityLow:    1,
	dialogue.SeverityMedium: 2,
	dialogue.SeverityHigh:   3,
}

// SeverityStats 严重程度统计
type SeverityStats struct {
	// AvgSeverity 平均严重程度（保留两位小数），无有效数据时为 nil
	AvgSeverity *float64 `json:"avg_severity"`
	// SeverityCounts 各严重程度的计数
	SeverityCounts map[string]int `json:"severity_counts"`
	// Distribution 按计数降序排列的分布，计数相同保持首次出现顺序
	Distribution []KeyCount `json:"distribution"`
	// DominantSeverity 主导严重程度；无有效数据时为 NONE 或 N/A
	DominantSeverity string `json:"dominant_severity"`
}

// ComputeSeverityStats 计算严重程度统计，三级回退：
//  1. 存在 LOW/MEDIUM/HIGH：计算平均值、计数与主导值（并列取最先出现者）
//  2. 否则若存在 NONE：主导值为 NONE，计数为所有非缺失值的分布
//  3. 否则主导值为 N/A，计数为空
func ComputeSeverityStats(turns []dialogue.Turn) SeverityStats {
	valid := newCounter()
	var scores []float64
	for _, t := range turns {
		score, ok := severityScores[t.Severity]
		if !ok {
			continue
		}
		valid.add(t.Severity)
		scores = append(scores, score)
	}

	if valid.size() > 0 {
		dist := valid.ranked()
		return SeverityStats{
			AvgSeverity:      floatPtr(round(mean(scores), 2)),
			SeverityCounts:   countsMap(dist),
			Distribution:     dist,
			DominantSeverity: dist[0].Key,
		}
	}

	nonMissing := newCounter()
	hasNone := false
	for _, t := range turns {
		if !t.HasSeverity() {
			continue
		}
		nonMissing.add(t.Severity)
		if t.Severity == dialogue.SeverityNone {
			hasNone = true
		}
	}
	if hasNone {
		dist := nonMissing.ranked()
		return SeverityStats{
			SeverityCounts:   countsMap(dist),
			Distribution:     dist,
			DominantSeverity: dialogue.SeverityNone,
		}
	}

	return SeverityStats{
		SeverityCounts:   map[string]int{},
		Distribution:     []KeyCount{},
		DominantSeverity: NotAvailable,
	}
}

func countsMap(dist []KeyCount) map[string]int {
	m := make(map[string]int, len(dist))
	for _, kc := range dist {
		m[kc.Key] = kc.Count
	}
	return m
}
