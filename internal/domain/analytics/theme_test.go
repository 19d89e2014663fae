package analytics

import (
	"testing"

	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/stretchr/testify/assert"
)

func textTurns(n int, text string) []dialogue.Turn {
	turns := make([]dialogue.Turn, 0, n)
	for i := 1; i <= n; i++ {
		turns = append(turns, withText(userTurn(1, i, -1, 4, false), text))
	}
	return turns
}

func TestInferConversationTheme(t *testing.T) {
	tests := []struct {
		name  string
		turns []dialogue.Turn
		want  string
	}{
		{"关键词 refund/order", textTurns(2, "I need a refund on my order"), "Commerce & Orders"},
		{"大小写不敏感", textTurns(1, "Anything good on NETFLIX tonight?"), "Movie Recommendations & Reviews"},
		{"按桶顺序优先", textTurns(1, "can you book a table for two"), "Event & Ticket Booking"},
		{"多词关键词", textTurns(1, "a round trip please"), "Travel & Flight Planning"},
		{"无关键词 5 轮", textTurns(5, "hi there"), ThemeQuickQA},
		{"无关键词 8 轮", textTurns(8, "hi there"), ThemeQuickQA},
		{"无关键词 12 轮", textTurns(12, "hi there"), ThemeStandard},
		{"无关键词 20 轮", textTurns(20, "hi there"), ThemeComplex},
		{"空会话", nil, ThemeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferConversationTheme(tt.turns))
		})
	}
}

func TestInferConversationTheme_UsesMaxTurnID(t *testing.T) {
	turns := []dialogue.Turn{
		withText(userTurn(1, 1, -1, 4, false), "hi"),
		withText(userTurn(1, 16, -1, 4, false), "bye"),
	}
	assert.Equal(t, ThemeComplex, InferConversationTheme(turns))
}

func TestInferThemeFromText(t *testing.T) {
	assert.Equal(t, "Support & Account Help", InferThemeFromText("I forgot my password", 0))
	assert.Equal(t, ThemeGeneral, InferThemeFromText("hi", 0))
	assert.Equal(t, ThemeQuickQA, InferThemeFromText("hi", 3))
}

func TestThemeBuckets_ReturnsCopy(t *testing.T) {
	buckets := ThemeBuckets()
	buckets[0].Keywords[0] = "changed"

	assert.Equal(t, "movie", ThemeBuckets()[0].Keywords[0])
	assert.Len(t, buckets, 6)
}
