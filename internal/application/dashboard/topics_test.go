package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RankedTopics(t *testing.T) {
	svc, _ := loadedService(t)

	topics, err := svc.RankedTopics()
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, 1, topics[0].TopicID)
	assert.Equal(t, 2, topics[1].TopicID)
}

func TestService_TopicDetail(t *testing.T) {
	svc, _ := loadedService(t)

	detail, err := svc.TopicDetail(1)
	require.NoError(t, err)

	assert.Equal(t, "Failure - Movie Recommendations & Reviews", detail.DisplayLabel)
	assert.Equal(t, 3, detail.TurnCount)
	assert.Equal(t, "HIGH", detail.SeverityStats.DominantSeverity)
	require.NotNil(t, detail.Repair)
	assert.Equal(t, "stale catalogue", detail.Repair.RootCause)
	assert.Equal(t, "67%", detail.SuccessInsights.ClearIntent)

	// 没有修复方案的主题
	detail, err = svc.TopicDetail(2)
	require.NoError(t, err)
	assert.Nil(t, detail.Repair)

	_, err = svc.TopicDetail(99)
	assert.ErrorIs(t, err, dialogue.ErrTopicNotFound)
}

func TestService_TopicConversations(t *testing.T) {
	svc, _ := loadedService(t)

	page, err := svc.TopicConversations(2, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Conversations, 1)
	assert.Equal(t, 2, page.Conversations[0].ConvID)
	assert.Nil(t, page.Conversations[0].Failure)

	page, err = svc.TopicConversations(2, 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Conversations, 1)
	require.NotNil(t, page.Conversations[0].Failure)
	assert.Equal(t, "UNSUPPORTED_INTENT", page.Conversations[0].Failure.Issues)

	_, err = svc.TopicConversations(99, 0, 1)
	assert.ErrorIs(t, err, dialogue.ErrTopicNotFound)
}

func TestService_SuccessfulConversations(t *testing.T) {
	svc, _ := loadedService(t)

	convs, err := svc.SuccessfulConversations(2, 10)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, 2, convs[0].ConvID)
	assert.InDelta(t, 4.7, convs[0].MeanSatisfaction, 1e-9)
}

func TestService_TopicsBySeverity(t *testing.T) {
	svc, _ := loadedService(t)

	topics, err := svc.TopicsBySeverity("MEDIUM", 5)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, 2, topics[0].TopicID)

	_, err = svc.TopicsBySeverity("medium", 5)
	assert.ErrorIs(t, err, dialogue.ErrInvalidSeverity)
}

func TestService_SeverityStatsForUnclustered(t *testing.T) {
	svc, _ := loadedService(t)

	stats, err := svc.SeverityStats(-1)
	require.NoError(t, err)
	assert.Equal(t, "N/A", stats.DominantSeverity)
	assert.Nil(t, stats.AvgSeverity)
}

func TestService_DiagnosticLabels(t *testing.T) {
	svc, _ := loadedService(t)

	labels, err := svc.DiagnosticLabels()
	require.NoError(t, err)
	require.Len(t, labels, 2)
	// n_examples 更多的主题排在前面
	assert.Equal(t, 2, labels[0].Topic.TopicID)
	assert.Equal(t, "Failure - Commerce & Orders", labels[0].Label)
	assert.Equal(t, "Failure - Movie Recommendations & Reviews", labels[1].Label)
}

func TestReloader_ReloadsOnDataFileEvent(t *testing.T) {
	svc, _, loader, bus := newTestService(t, 0)
	reloader := NewReloader(svc, bus)

	require.NoError(t, reloader.HandleEvent(&events.DataFileEvent{
		EventType: events.DataFileChanged,
		FileName:  "dashboard_turns.jsonl",
		EventTime: time.Now(),
	}))
	assert.Equal(t, 1, loader.callCount())

	summary, err := svc.Summary()
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Version)

	// 其它事件被忽略
	require.NoError(t, reloader.HandleEvent(&events.DatasetEvent{EventType: events.DatasetReloaded}))
	assert.Equal(t, 1, loader.callCount())
}

func TestReloader_KeepsUploadedConversations(t *testing.T) {
	svc, store, _, bus := newTestService(t, 0)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	_, err = store.AppendConversation(func(convID int) []dialogue.Turn {
		return []dialogue.Turn{{Dataset: dialogue.UploadDataset, ConvID: convID, TurnID: 1, Speaker: dialogue.SpeakerUser, SatisfactionScore: ptr(4.0), Issues: []string{}, TopicID: -1}}
	})
	require.NoError(t, err)

	reloader := NewReloader(svc, bus)
	require.NoError(t, reloader.HandleEvent(&events.DataFileEvent{
		EventType: events.DataFileChanged,
		FileName:  "dashboard_turns.jsonl",
		EventTime: time.Now(),
	}))

	summary, err := svc.Summary()
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Version)
	assert.Equal(t, 8, summary.Turns)
	assert.Equal(t, 4, summary.Conversations)

	ds, err := store.Snapshot()
	require.NoError(t, err)
	uploaded := ds.UploadedTurns()
	require.Len(t, uploaded, 1)
	assert.Equal(t, 4, uploaded[0].ConvID)
}

func TestReloader_FailureKeepsSnapshot(t *testing.T) {
	svc, _, loader, bus := newTestService(t, 0)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	loader.err = assert.AnError
	reloader := NewReloader(svc, bus)
	err = reloader.HandleEvent(&events.DataFileEvent{EventType: events.DataFileRemoved, EventTime: time.Now()})
	assert.ErrorIs(t, err, assert.AnError)

	summary, err := svc.Summary()
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Version)
}
