package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(v float64) *float64 {
	return &v
}

func newTestSession(t *testing.T, loaded bool) *mcp.ClientSession {
	t.Helper()

	store := dataset.NewMemoryStore()
	if loaded {
		store.Replace(&dialogue.Dataset{
			Source: "fixture",
			Turns: []dialogue.Turn{
				{ConvID: 1, TurnID: 1, Speaker: dialogue.SpeakerUser, Text: "track my order delivery", SatisfactionScore: score(4.5), Issues: []string{}, TopicID: 1, TopicLabel: "Orders & Delivery"},
				{ConvID: 1, TurnID: 2, Speaker: dialogue.SpeakerSystem, Text: "It ships tomorrow", Issues: []string{}, TopicID: 1},
				{ConvID: 2, TurnID: 1, Speaker: dialogue.SpeakerUser, Text: "the payment failed", SatisfactionScore: score(1.5), LowSatisfaction: true, Issues: []string{"WRONG_ANSWER"}, Severity: dialogue.SeverityHigh, TopicID: 2, TopicLabel: "Payments"},
			},
			Topics: []dialogue.Topic{
				{TopicID: 1, TopicLabel: "Orders & Delivery", NExamples: 4, LowSatisfactionRate: 0.1},
				{TopicID: 2, TopicLabel: "Payments", NExamples: 2, LowSatisfactionRate: 0.6},
			},
		})
	}
	service := dashboard.NewService(store, dataset.NewFileLoader(t.TempDir()), nil, &config.DatasetConfig{})
	server := NewServer(service)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool 调用工具并把结构化输出解码到 out
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		raw, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return res
}

func TestMCPServer_ListTools(t *testing.T) {
	session := newTestSession(t, true)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"rank_topics",
		"get_severity_stats",
		"get_top_conversations",
		"get_success_topics",
		"get_why_it_works",
		"infer_theme",
	}, names)
}

func TestMCPServer_RankTopics(t *testing.T) {
	session := newTestSession(t, true)

	var out RankTopicsOutput
	res := callTool(t, session, "rank_topics", map[string]any{"limit": 1}, &out)
	require.False(t, res.IsError)

	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Topics, 1)
	assert.Equal(t, 2, out.Topics[0].TopicID, "低满意度比例最高的主题在前")
}

func TestMCPServer_SeverityStats(t *testing.T) {
	session := newTestSession(t, true)

	var out SeverityStatsOutput
	res := callTool(t, session, "get_severity_stats", map[string]any{"topic_id": 2}, &out)
	require.False(t, res.IsError)

	assert.Equal(t, 2, out.TopicID)
	assert.Equal(t, dialogue.SeverityHigh, out.Stats.DominantSeverity)
	require.NotNil(t, out.Stats.AvgSeverity)
	assert.InDelta(t, 3.0, *out.Stats.AvgSeverity, 1e-9)
}

func TestMCPServer_TopConversationsAndPatterns(t *testing.T) {
	session := newTestSession(t, true)

	var convs TopConversationsOutput
	res := callTool(t, session, "get_top_conversations", map[string]any{}, &convs)
	require.False(t, res.IsError)
	require.NotEmpty(t, convs.Conversations)
	assert.Equal(t, 1, convs.Conversations[0].ConvID)

	var success dashboard.SuccessTopicsDTO
	res = callTool(t, session, "get_success_topics", map[string]any{"detailed": true}, &success)
	require.False(t, res.IsError)
	assert.True(t, success.Detailed)
	assert.NotEmpty(t, success.Details)

	res = callTool(t, session, "get_why_it_works", map[string]any{"limit": 10}, nil)
	assert.False(t, res.IsError)
}

func TestMCPServer_InferTheme(t *testing.T) {
	session := newTestSession(t, true)

	var fromText InferThemeOutput
	res := callTool(t, session, "infer_theme", map[string]any{"text": "where is my package delivery", "turn_count": 2}, &fromText)
	require.False(t, res.IsError)
	assert.NotEmpty(t, fromText.Theme)
	assert.Nil(t, fromText.ConvID)

	var fromConv InferThemeOutput
	res = callTool(t, session, "infer_theme", map[string]any{"conv_id": 1}, &fromConv)
	require.False(t, res.IsError)
	require.NotNil(t, fromConv.ConvID)
	assert.Equal(t, 1, *fromConv.ConvID)
	assert.NotEmpty(t, fromConv.Theme)

	res = callTool(t, session, "infer_theme", map[string]any{"conv_id": 99}, nil)
	assert.True(t, res.IsError, "不存在的会话返回工具错误")
}

func TestMCPServer_NotLoaded(t *testing.T) {
	session := newTestSession(t, false)

	res := callTool(t, session, "rank_topics", map[string]any{}, nil)
	assert.True(t, res.IsError)
}
