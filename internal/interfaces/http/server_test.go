package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/application/upload"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	"github.com/retailmind/backend/internal/infrastructure/singleton"
	"github.com/retailmind/backend/internal/infrastructure/tokenizer"
	"github.com/retailmind/backend/internal/infrastructure/watcher"
	"github.com/retailmind/backend/internal/infrastructure/websocket"
	"github.com/retailmind/backend/internal/interfaces/http/handler"
	"github.com/retailmind/backend/internal/interfaces/http/middleware"
	"github.com/retailmind/backend/internal/interfaces/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := dataset.NewMemoryStore()
	score := 4.0
	store.Replace(&dialogue.Dataset{
		Source: "fixture",
		Turns: []dialogue.Turn{
			{ConvID: 1, TurnID: 1, Speaker: dialogue.SpeakerUser, Text: "hello", SatisfactionScore: &score, Issues: []string{}, TopicID: 1},
		},
		Topics: []dialogue.Topic{{TopicID: 1, TopicLabel: "Greetings", NExamples: 1}},
	})

	bus := watcher.NewEventBus()
	t.Cleanup(bus.Close)
	hub := websocket.NewHub()

	dashboardService := dashboard.NewService(store, dataset.NewFileLoader(t.TempDir()), bus, &config.DatasetConfig{})
	uploadService := upload.NewService(store, tokenizer.FallbackCounter{}, bus, &config.UploadConfig{MaxBytes: 1 << 20})
	wsServer := websocket.NewServer(hub, &config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024})

	return NewRouter(
		handler.NewDashboardHandler(dashboardService),
		handler.NewUploadHandler(uploadService, dashboardService),
		handler.NewWebSocketHandler(wsServer),
		mcp.NewServer(dashboardService),
	)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status singleton.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, singleton.ServiceName, status.Service, "单例锁依赖该字段识别本服务")
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{http.MethodGet, "/api/v1/overview", http.StatusOK},
		{http.MethodGet, "/api/v1/overview/history", http.StatusOK},
		{http.MethodGet, "/api/v1/dataset", http.StatusOK},
		{http.MethodGet, "/api/v1/topics/ranked", http.StatusOK},
		{http.MethodGet, "/api/v1/topics/by-severity/LOW", http.StatusOK},
		{http.MethodGet, "/api/v1/topics/1", http.StatusOK},
		{http.MethodGet, "/api/v1/topics/1/conversations", http.StatusOK},
		{http.MethodGet, "/api/v1/topics/1/successful-conversations", http.StatusOK},
		{http.MethodGet, "/api/v1/diagnostics/labels", http.StatusOK},
		{http.MethodGet, "/api/v1/insights/success-topics", http.StatusOK},
		{http.MethodGet, "/api/v1/insights/what-works", http.StatusOK},
		{http.MethodGet, "/api/v1/conversations/top", http.StatusOK},
		{http.MethodGet, "/api/v1/conversations/1", http.StatusOK},
		{http.MethodGet, "/api/v1/upload/history", http.StatusOK},
		{http.MethodGet, "/api/v1/upload/sandbox-cases", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_UploadDecodesLatin1Body(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader("[{\"text\":\"caf\xe9 was great\"}]"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data upload.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Turns, 1)
	assert.Equal(t, "café was great", body.Data.Turns[0].Text)
	assert.Equal(t, 2, body.Data.Record.ConvID)
}
