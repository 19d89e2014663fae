package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/retailmind/backend/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForConnections 等待 Hub 处理完注册
func waitForConnections(t *testing.T, hub *Hub, channel string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ConnectionCount(channel) == n
	}, time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send channel closed")
		return data
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHub_BroadcastToChannel(t *testing.T) {
	hub := NewHub()
	hub.Start()
	defer hub.Stop()

	datasetConn := NewConnection("")
	otherConn := NewConnection("uploads")
	hub.Register(datasetConn)
	hub.Register(otherConn)
	waitForConnections(t, hub, DefaultChannel, 1)

	require.NoError(t, hub.BroadcastToChannel(DefaultChannel, map[string]int{"version": 3}))

	assert.JSONEq(t, `{"version":3}`, string(receive(t, datasetConn)))
	select {
	case <-otherConn.Send:
		t.Fatal("other channel must not receive the message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	hub.Start()
	defer hub.Stop()

	conn := NewConnection(DefaultChannel)
	hub.Register(conn)
	waitForConnections(t, hub, DefaultChannel, 1)

	hub.Unregister(conn)
	waitForConnections(t, hub, DefaultChannel, 0)

	_, ok := <-conn.Send
	assert.False(t, ok)

	// 重复注销不应 panic
	require.NotPanics(t, func() { hub.Unregister(conn) })
}

func TestHub_StopClosesConnections(t *testing.T) {
	hub := NewHub()
	hub.Start()

	conn := NewConnection(DefaultChannel)
	hub.Register(conn)
	waitForConnections(t, hub, DefaultChannel, 1)

	hub.Stop()
	hub.Stop()

	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel should be closed after Stop")
	}

	// Stop 之后的广播直接返回
	assert.NoError(t, hub.BroadcastToChannel(DefaultChannel, "ignored"))
}

func TestHub_BroadcastUnmarshalableData(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	assert.Error(t, hub.BroadcastToChannel(DefaultChannel, make(chan int)))
}

func TestDatasetNotifier_PushesDatasetUpdated(t *testing.T) {
	hub := NewHub()
	hub.Start()
	defer hub.Stop()

	conn := NewConnection(DefaultChannel)
	hub.Register(conn)
	waitForConnections(t, hub, DefaultChannel, 1)

	notifier := NewDatasetNotifier(hub, nil)
	eventTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, notifier.HandleEvent(&events.DatasetEvent{
		EventType: events.DatasetAppended,
		Version:   4,
		Turns:     120,
		ConvID:    42,
		UploadID:  "u-1",
		EventTime: eventTime,
	}))

	var envelope struct {
		Type      string        `json:"type"`
		Timestamp time.Time     `json:"timestamp"`
		Data      DatasetUpdate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(receive(t, conn), &envelope))

	assert.Equal(t, MessageTypeDatasetUpdated, envelope.Type)
	assert.True(t, envelope.Timestamp.Equal(eventTime))
	assert.Equal(t, DatasetUpdate{
		Reason:   "appended",
		Version:  4,
		Turns:    120,
		ConvID:   42,
		UploadID: "u-1",
	}, envelope.Data)
}

func TestDatasetNotifier_IgnoresOtherEvents(t *testing.T) {
	notifier := NewDatasetNotifier(NewHub(), nil)

	assert.NoError(t, notifier.HandleEvent(&events.DataFileEvent{
		EventType: events.DataFileChanged,
		EventTime: time.Now(),
	}))
}
