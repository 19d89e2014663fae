// Package analytics 实现对话数据的聚合引擎
// 所有函数都是纯函数：不修改输入、不返回错误、不 panic，空输入返回空结果或哨兵值
package analytics

import (
	"math"
	"sort"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// 哨兵值
const (
	// NotAvailable 无可用数据时的占位
	NotAvailable = "N/A"
)

// round 按银行家舍入（半数取偶）保留指定小数位
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func head[T any](items []T, limit int) []T {
	if limit <= 0 {
		return items[:0]
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func floatPtr(v float64) *float64 {
	return &v
}

// counter 按首次出现顺序计数
// 并列时以首次出现的先后作为确定性的决胜规则
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) size() int {
	return len(c.order)
}

// ranked 按计数降序返回，计数相同保持首次出现顺序
func (c *counter) ranked() []KeyCount {
	out := make([]KeyCount, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, KeyCount{Key: k, Count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// mostCommon 返回出现次数最多的键
func (c *counter) mostCommon() (string, bool) {
	r := c.ranked()
	if len(r) == 0 {
		return "", false
	}
	return r[0].Key, true
}

// KeyCount 键及其计数
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// conversationGroup 同一会话的轮次
type conversationGroup struct {
	convID int
	turns  []dialogue.Turn
}

// groupByConversation 按 conv_id 分组，组按 conv_id 升序返回
func groupByConversation(turns []dialogue.Turn) []conversationGroup {
	index := make(map[int]int)
	var groups []conversationGroup
	for _, t := range turns {
		i, ok := index[t.ConvID]
		if !ok {
			i = len(groups)
			index[t.ConvID] = i
			groups = append(groups, conversationGroup{convID: t.ConvID})
		}
		groups[i].turns = append(groups[i].turns, t)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].convID < groups[j].convID
	})
	return groups
}

func maxTurnID(turns []dialogue.Turn) int {
	maxID := turns[0].TurnID
	for _, t := range turns[1:] {
		if t.TurnID > maxID {
			maxID = t.TurnID
		}
	}
	return maxID
}
