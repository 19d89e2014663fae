package analytics

import (
	"testing"

	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTurns() []dialogue.Turn {
	failed := withSeverity(userTurn(7, 2, 3, 2.0, true, "WRONG_ANSWER", "SLOW"), dialogue.SeverityHigh)
	failed.Reason = "gave the wrong showtime"

	return []dialogue.Turn{
		userTurn(7, 1, 3, 4.0, false),
		failed,
		systemTurn(7, 3, 3),
		userTurn(2, 2, 3, 1.5, true),
		userTurn(2, 1, 3, 4.0, false),
		userTurn(5, 1, 9, 4.5, false),
		userTurn(9, 1, 3, 4.5, false),
	}
}

func TestTopicConversationPage_FirstPage(t *testing.T) {
	page := TopicConversationPage(sampleTurns(), 3, 0, 1)

	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Conversations, 1)

	conv := page.Conversations[0]
	assert.Equal(t, 7, conv.ConvID)
	require.Len(t, conv.Turns, 3)
	require.NotNil(t, conv.Failure)
	assert.Equal(t, FailureSummary{
		TurnID:   2,
		Issues:   "WRONG_ANSWER, SLOW",
		Reason:   "gave the wrong showtime",
		Severity: "HIGH",
	}, *conv.Failure)
}

func TestTopicConversationPage_DefaultsForMissingFailureFields(t *testing.T) {
	page := TopicConversationPage(sampleTurns(), 3, 1, 1)

	require.Len(t, page.Conversations, 1)
	conv := page.Conversations[0]
	assert.Equal(t, 2, conv.ConvID)
	// 会话内按 turn_id 排序
	assert.Equal(t, 1, conv.Turns[0].TurnID)
	assert.Equal(t, &FailureSummary{
		TurnID:   2,
		Issues:   "General failure",
		Reason:   "N/A",
		Severity: "N/A",
	}, conv.Failure)
}

func TestTopicConversationPage_LastPageAndBeyond(t *testing.T) {
	turns := sampleTurns()

	last := TopicConversationPage(turns, 3, 1, 2)
	assert.False(t, last.HasMore)
	require.Len(t, last.Conversations, 1)
	assert.Equal(t, 9, last.Conversations[0].ConvID)
	assert.Nil(t, last.Conversations[0].Failure)

	beyond := TopicConversationPage(turns, 3, 5, 2)
	assert.NotNil(t, beyond.Conversations)
	assert.Empty(t, beyond.Conversations)
	assert.False(t, beyond.HasMore)
}

func TestTopicConversationPage_UnknownTopic(t *testing.T) {
	page := TopicConversationPage(sampleTurns(), 42, 0, 0)

	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 1, page.PageSize)
	assert.Empty(t, page.Conversations)
}
