package upload

import (
	"fmt"
	"sync"
	"testing"

	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `[
  {"speaker": "USER", "text": "thanks, great help", "satisfaction_score": 4.5, "topic_label": "Topic 3: Orders & Payments"},
  {"speaker": "SYSTEM", "text": "happy to help"}
]`

type fixedCounter int

func (c fixedCounter) Count(string) int {
	return int(c)
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Subscribe(events.EventType, events.Handler) func() { return func() {} }

func (b *recordingBus) SubscribeMultiple([]events.EventType, events.Handler) func() {
	return func() {}
}

func (b *recordingBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) Close() {}

func newTestService(t *testing.T, cfg *config.UploadConfig) (*Service, *dataset.MemoryStore, *recordingBus) {
	t.Helper()
	store := dataset.NewMemoryStore()
	store.Replace(&dialogue.Dataset{
		Source: "test",
		Turns: []dialogue.Turn{
			{ConvID: 1, TurnID: 1, Speaker: dialogue.SpeakerUser, Issues: []string{}},
			{ConvID: 3, TurnID: 1, Speaker: dialogue.SpeakerUser, Issues: []string{}},
		},
	})
	bus := &recordingBus{}
	return NewService(store, fixedCounter(42), bus, cfg), store, bus
}

func TestService_UploadAppendsConversation(t *testing.T) {
	svc, store, bus := newTestService(t, &config.UploadConfig{})

	result, err := svc.Upload("chat.json", []byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Record.ConvID, "max conv_id + 1")
	assert.Equal(t, int64(2), result.Record.Version)
	assert.NotEmpty(t, result.Record.ID)
	assert.Equal(t, "chat.json", result.Record.Filename)

	assert.Equal(t, analytics.UploadAnalysis{
		Satisfaction:         90,
		Resolution:           analytics.ResolutionResolved,
		Effort:               analytics.EffortLow,
		Theme:                "Orders & Payments",
		TurnCount:            2,
		LowSatisfactionTurns: 0,
		TokenCount:           42,
	}, result.Analysis)

	require.Len(t, result.Turns, 2)
	assert.Equal(t, 1, result.Turns[0].TurnID)
	assert.Equal(t, "Orders & Payments", result.Turns[0].TopicLabel)
	assert.Equal(t, analytics.UploadDataset, result.Turns[1].Dataset)

	ds, err := store.Snapshot()
	require.NoError(t, err)
	assert.Len(t, ds.Turns, 4)

	require.Len(t, bus.published, 1)
	event := bus.published[0].(*events.DatasetEvent)
	assert.Equal(t, events.DatasetAppended, event.EventType)
	assert.Equal(t, 4, event.ConvID)
	assert.Equal(t, result.Record.ID, event.UploadID)
	assert.Equal(t, 4, event.Turns)
}

func TestService_UploadRejectsInvalidPayload(t *testing.T) {
	svc, store, bus := newTestService(t, &config.UploadConfig{})

	_, err := svc.Upload("bad.jsonl", []byte("{oops"))
	assert.ErrorIs(t, err, dialogue.ErrInvalidUploadPayload)

	_, err = svc.Upload("empty.json", []byte(`[{"speaker":"USER"}]`))
	assert.ErrorIs(t, err, dialogue.ErrEmptyUpload)

	ds, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(1), ds.Version, "failed uploads must not publish a snapshot")
	assert.Empty(t, bus.published)
	assert.Empty(t, svc.History())
}

func TestService_UploadTooLarge(t *testing.T) {
	svc, _, _ := newTestService(t, &config.UploadConfig{MaxBytes: 10})

	_, err := svc.Upload("big.json", []byte(samplePayload))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestService_UploadBeforeDatasetLoaded(t *testing.T) {
	svc := NewService(dataset.NewMemoryStore(), nil, nil, nil)

	_, err := svc.Upload("chat.json", []byte(samplePayload))
	assert.ErrorIs(t, err, dialogue.ErrDatasetNotLoaded)
}

func TestService_ConcurrentUploadsGetDistinctConvIDs(t *testing.T) {
	svc, store, _ := newTestService(t, &config.UploadConfig{})

	const uploads = 8
	var wg sync.WaitGroup
	ids := make(chan int, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.Upload(fmt.Sprintf("chat-%d.json", i), []byte(samplePayload))
			if assert.NoError(t, err) {
				ids <- result.Record.ConvID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "conv_id %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, uploads)

	ds, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(1+uploads), ds.Version)
}

func TestService_HistoryAndSummary(t *testing.T) {
	svc, _, _ := newTestService(t, &config.UploadConfig{HistorySize: 2})

	unresolved := `[{"text":"terrible, bad, slow", "satisfaction_score": 1.0, "low_satisfaction": true}]`
	_, err := svc.Upload("a.json", []byte(samplePayload))
	require.NoError(t, err)
	_, err = svc.Upload("b.json", []byte(unresolved))
	require.NoError(t, err)
	_, err = svc.Upload("c.json", []byte(samplePayload))
	require.NoError(t, err)

	history := svc.History()
	require.Len(t, history, 2)
	assert.Equal(t, "c.json", history[0].Filename, "most recent first")
	assert.Equal(t, "b.json", history[1].Filename)

	summary := svc.Summary()
	assert.Equal(t, 2, summary.TotalUploads)
	assert.Equal(t, 3, summary.TotalTurns)
	assert.InDelta(t, 55.0, summary.AvgSatisfaction, 1e-9)
	assert.Equal(t, 1, summary.Resolved)
}

func TestService_Preview(t *testing.T) {
	svc, store, bus := newTestService(t, &config.UploadConfig{})

	result, err := svc.Preview([]byte(samplePayload), 99)
	require.NoError(t, err)
	assert.Equal(t, 99, result.Turns[0].ConvID)
	assert.Equal(t, 2, result.Record.TurnCount)

	ds, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(1), ds.Version)
	assert.Empty(t, bus.published)
}
