package analytics

import (
	"strings"

	"github.com/retailmind/backend/internal/domain/dialogue"
)

// 兜底主题标签
const (
	ThemeQuickQA  = "Quick Q&A"
	ThemeStandard = "Standard Assistance"
	ThemeComplex  = "Complex Multi-Turn Help"
	ThemeGeneral  = "General Conversation"
)

const (
	quickTurnLimit    = 8
	standardTurnLimit = 15
)

// ThemeBucket 关键词桶
type ThemeBucket struct {
	Label    string
	Keywords []string
}

// themeBuckets 按优先级排列，第一个命中的桶胜出
// 关键词与顺序决定标注结果，修改会影响历史可复现性
var themeBuckets = []ThemeBucket{
	{"Movie Recommendations & Reviews", []string{"movie", "film", "show", "cinema", "actor", "actress", "review", "tickets", "avengers", "disney", "x-men", "marvel", "netflix"}},
	{"Event & Ticket Booking", []string{"ticket", "event", "concert", "festival", "venue", "seats", "book", "reserve", "reservation", "showtime", "perform", "tour"}},
	{"Travel & Flight Planning", []string{"flight", "plane", "airport", "departure", "arrival", "round trip", "one way", "london", "philly", "philadelphia", "hotel", "check-in", "booking"}},
	{"Food & Dining / Reservations", []string{"restaurant", "table", "dining", "reservation", "book a table", "cuisine", "menu", "waiter", "booking"}},
	{"Commerce & Orders", []string{"order", "refund", "purchase", "buy", "price", "cart", "delivery", "shipping", "return", "payment"}},
	{"Support & Account Help", []string{"account", "login", "password", "support", "help", "issue", "problem", "troubleshoot", "reset"}},
}

// ThemeBuckets 返回关键词桶的副本
func ThemeBuckets() []ThemeBucket {
	out := make([]ThemeBucket, len(themeBuckets))
	for i, b := range themeBuckets {
		out[i] = ThemeBucket{Label: b.Label, Keywords: append([]string(nil), b.Keywords...)}
	}
	return out
}

// InferConversationTheme 根据会话文本推断可读主题
// 关键词未命中时按最大 turn_id 兜底：<=8 Quick Q&A，<=15 Standard Assistance，
// 其余 Complex Multi-Turn Help；没有任何轮次时返回 General Conversation
func InferConversationTheme(turns []dialogue.Turn) string {
	texts := make([]string, 0, len(turns))
	for _, t := range turns {
		texts = append(texts, t.Text)
	}
	if len(turns) == 0 {
		return inferTheme("", 0, false)
	}
	return inferTheme(strings.Join(texts, " "), maxTurnID(turns), true)
}

// InferThemeFromText 对拼接后的文本推断主题；turnCount <= 0 视为轮次数未知
func InferThemeFromText(text string, turnCount int) string {
	return inferTheme(text, turnCount, turnCount > 0)
}

func inferTheme(text string, turnCount int, hasTurns bool) string {
	blob := strings.ToLower(text)
	for _, bucket := range themeBuckets {
		for _, kw := range bucket.Keywords {
			if strings.Contains(blob, kw) {
				return bucket.Label
			}
		}
	}

	if !hasTurns {
		return ThemeGeneral
	}
	switch {
	case turnCount <= quickTurnLimit:
		return ThemeQuickQA
	case turnCount <= standardTurnLimit:
		return ThemeStandard
	default:
		return ThemeComplex
	}
}
