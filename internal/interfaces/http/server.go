package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/log"
	"github.com/retailmind/backend/internal/infrastructure/singleton"
	"github.com/retailmind/backend/internal/interfaces/http/handler"
	"github.com/retailmind/backend/internal/interfaces/http/middleware"
	"github.com/retailmind/backend/internal/interfaces/mcp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/retailmind/backend/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	dashboardHandler *handler.DashboardHandler,
	uploadHandler *handler.UploadHandler,
	wsHandler *handler.WebSocketHandler,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	router := NewRouter(dashboardHandler, uploadHandler, wsHandler, mcpServer)

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   log.NewModuleLogger("http", "server"),
	}
}

// NewRouter 注册全部路由
func NewRouter(
	dashboardHandler *handler.DashboardHandler,
	uploadHandler *handler.UploadHandler,
	wsHandler *handler.WebSocketHandler,
	mcpServer *mcp.MCPServer,
) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Metrics(),
	)

	api := router.Group("/api/v1")
	{
		// 概览
		api.GET("/overview", dashboardHandler.Overview)
		api.GET("/overview/history", dashboardHandler.OverviewHistory)
		api.GET("/dataset", dashboardHandler.Dataset)

		// 主题
		topics := api.Group("/topics")
		{
			topics.GET("/ranked", dashboardHandler.RankedTopics)
			topics.GET("/by-severity/:severity", dashboardHandler.TopicsBySeverity)
			topics.GET("/:topic_id", dashboardHandler.TopicDetail)
			topics.GET("/:topic_id/conversations", dashboardHandler.TopicConversations)
			topics.GET("/:topic_id/successful-conversations", dashboardHandler.SuccessfulConversations)
		}

		api.GET("/diagnostics/labels", dashboardHandler.DiagnosticLabels)

		// 洞察
		api.GET("/insights/success-topics", dashboardHandler.SuccessTopics)
		api.GET("/insights/what-works", dashboardHandler.WhatWorks)

		// 会话
		api.GET("/conversations/top", dashboardHandler.TopConversations)
		api.GET("/conversations/:conv_id", dashboardHandler.Conversation)

		// 上传实验室
		uploads := api.Group("/upload")
		{
			uploads.POST("", middleware.EnsureUTF8Body(), uploadHandler.Upload)
			uploads.GET("/history", uploadHandler.History)
			uploads.GET("/sandbox-cases", uploadHandler.SandboxCases)
		}

		// 推送
		if wsHandler != nil {
			api.GET("/ws", wsHandler.Serve)
		}
	}

	// 健康检查，单例锁通过 service 字段识别本服务
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, singleton.HealthStatus{
			Status:  "ok",
			Service: singleton.ServiceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return router
}

// Handler 返回路由，便于测试直接调用
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:              s.httpPort,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
