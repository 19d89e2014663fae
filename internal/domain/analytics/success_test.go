package analytics

import (
	"testing"

	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTopSuccessTopicsDetailed_EndToEnd(t *testing.T) {
	turns := []dialogue.Turn{
		userTurn(1, 1, 2, 4.5, false),
		systemTurn(1, 2, 2),
	}
	topics := []dialogue.Topic{{TopicID: 2, TopicLabel: "Billing", NExamples: 12}}

	rows := GetTopSuccessTopicsDetailed(turns, topics, 5)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, 2, row.TopicID)
	assert.InDelta(t, 4.5, row.MeanSatisfaction, 1e-9)
	assert.Equal(t, 1, row.SuccessfulTurns)
	assert.Equal(t, 0, row.LowSatCount)
	assert.Zero(t, row.LowSatisfactionRate)
	require.NotNil(t, row.TopicLabel)
	assert.Equal(t, "Billing", *row.TopicLabel)
	require.NotNil(t, row.NExamples)
	assert.Equal(t, 12, *row.NExamples)
}

func TestGetTopSuccessTopicsDetailed_OrderingAndDanglingTopic(t *testing.T) {
	turns := []dialogue.Turn{
		userTurn(1, 1, 1, 4, false),
		userTurn(1, 2, 1, 2, true),
		userTurn(2, 1, 2, 3, false),
		userTurn(3, 1, 3, 5, false),
		{ConvID: 3, TurnID: 2, Speaker: dialogue.SpeakerUser, TopicID: 3, Issues: []string{}},
	}
	topics := []dialogue.Topic{
		{TopicID: 1, TopicLabel: "Orders"},
		{TopicID: 2, TopicLabel: "Login"},
	}

	rows := GetTopSuccessTopicsDetailed(turns, topics, 10)

	require.Len(t, rows, 3)
	// 低满意度比例为 0 的两个主题按均分降序
	assert.Equal(t, 3, rows[0].TopicID)
	assert.Nil(t, rows[0].TopicLabel, "主题表中不存在时标签为 nil")
	assert.Nil(t, rows[0].NExamples)
	assert.Equal(t, 1, rows[0].SuccessfulTurns, "无评分的轮次不计入")
	assert.Equal(t, 2, rows[1].TopicID)
	assert.Equal(t, 1, rows[2].TopicID)
	assert.InDelta(t, 0.5, rows[2].LowSatisfactionRate, 1e-9)
}

func TestGetSuccessTopics(t *testing.T) {
	turns := []dialogue.Turn{
		userTurn(1, 1, 5, 4, false),
		userTurn(1, 2, 5, 5, false),
		userTurn(1, 3, 5, 1, true),
		userTurn(2, 1, 3, 5, false),
		systemTurn(2, 2, 3),
		userTurn(3, 1, 9, 3, false),
	}

	rows := GetSuccessTopics(turns, 2)

	require.Len(t, rows, 2)
	assert.Equal(t, SuccessTopic{TopicID: 3, MeanSatisfaction: 5, SuccessfulTurns: 1}, rows[0])
	assert.Equal(t, SuccessTopic{TopicID: 5, MeanSatisfaction: 4.5, SuccessfulTurns: 2}, rows[1])
}

func TestGetSuccessTopics_NonPositiveLimit(t *testing.T) {
	turns := []dialogue.Turn{userTurn(1, 1, 1, 5, false)}

	assert.Empty(t, GetSuccessTopics(turns, 0))
	assert.NotNil(t, GetSuccessTopics(turns, -1))
	assert.Empty(t, GetSuccessTopics(nil, 5))
}

func TestGetSuccessInsightsForTopic(t *testing.T) {
	turns := []dialogue.Turn{
		userTurn(1, 1, 4, 4, false),
		userTurn(1, 2, 4, 2, true, dialogue.IssueUnsupportedIntent, "LATENCY"),
		userTurn(2, 1, 4, 5, false),
		userTurn(2, 4, 4, 5, false, "LATENCY"),
		userTurn(3, 1, 8, 5, false, "OTHER"),
	}

	insights := GetSuccessInsightsForTopic(turns, 4)

	assert.Equal(t, "50%", insights.ClearIntent)
	assert.Equal(t, "75%", insights.KBCoverage)
	assert.Equal(t, "3.0 turns", insights.Concise)
	assert.Equal(t, []KeyCount{
		{Key: "LATENCY", Count: 2},
		{Key: dialogue.IssueUnsupportedIntent, Count: 1},
	}, insights.DominantIssues)
}

func TestGetSuccessInsightsForTopic_EmptyTopic(t *testing.T) {
	insights := GetSuccessInsightsForTopic(nil, 4)

	assert.Equal(t, NotAvailable, insights.ClearIntent)
	assert.Equal(t, NotAvailable, insights.Concise)
	assert.Equal(t, NotAvailable, insights.KBCoverage)
	assert.Empty(t, insights.DominantIssues)
}
