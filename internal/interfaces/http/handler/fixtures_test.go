package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/application/upload"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	"github.com/retailmind/backend/internal/infrastructure/tokenizer"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func score(v float64) *float64 {
	return &v
}

func fixtureDataset() *dialogue.Dataset {
	return &dialogue.Dataset{
		Source: "fixture",
		Turns: []dialogue.Turn{
			{ConvID: 1, TurnID: 1, Speaker: dialogue.SpeakerUser, Text: "recommend a movie", SatisfactionScore: score(4.5), Issues: []string{}, TopicID: 1, TopicLabel: "Movie Recommendations & Reviews"},
			{ConvID: 1, TurnID: 2, Speaker: dialogue.SpeakerSystem, Text: "Try this film", Issues: []string{}, TopicID: 1},
			{ConvID: 1, TurnID: 3, Speaker: dialogue.SpeakerUser, Text: "wrong movie", SatisfactionScore: score(2.0), LowSatisfaction: true, Issues: []string{"WRONG_ANSWER"}, Severity: dialogue.SeverityHigh, Reason: "irrelevant answer", TopicID: 1},
			{ConvID: 2, TurnID: 1, Speaker: dialogue.SpeakerUser, Text: "order refund please", SatisfactionScore: score(4.8), Issues: []string{}, TopicID: 2, TopicLabel: "Orders & Payments"},
			{ConvID: 2, TurnID: 2, Speaker: dialogue.SpeakerSystem, Text: "refund issued", Issues: []string{}, TopicID: 2},
			{ConvID: 3, TurnID: 1, Speaker: dialogue.SpeakerUser, Text: "where is my order", SatisfactionScore: score(1.5), LowSatisfaction: true, Issues: []string{"UNSUPPORTED_INTENT"}, Severity: dialogue.SeverityMedium, TopicID: 2},
		},
		Topics: []dialogue.Topic{
			{TopicID: 1, TopicLabel: "Movie Recommendations & Reviews", NExamples: 5, LowSatisfactionRate: 0.5},
			{TopicID: 2, TopicLabel: "Orders & Payments", NExamples: 9, LowSatisfactionRate: 0.2},
		},
		SandboxCases: []dialogue.SandboxCase{
			{Name: "Refund", Turns: []map[string]any{{"speaker": "USER", "text": "I want a refund"}}},
		},
	}
}

type testEnv struct {
	store     *dataset.MemoryStore
	dashboard *dashboard.Service
	upload    *upload.Service
}

// newTestEnv 创建看板与上传服务，loaded 为 false 时数据集保持未加载
func newTestEnv(t *testing.T, loaded bool) *testEnv {
	t.Helper()

	store := dataset.NewMemoryStore()
	if loaded {
		store.Replace(fixtureDataset())
	}
	loader := dataset.NewFileLoader(t.TempDir())

	return &testEnv{
		store:     store,
		dashboard: dashboard.NewService(store, loader, nil, &config.DatasetConfig{}),
		upload:    upload.NewService(store, tokenizer.FallbackCounter{}, nil, &config.UploadConfig{MaxBytes: 1024}),
	}
}

// perform 发送请求并解析统一响应
func perform(t *testing.T, router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "响应应该是有效的 JSON: %s", w.Body.String())
	return w, body
}
