package wire

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/domain/events"
	"github.com/retailmind/backend/internal/infrastructure/config"
	applog "github.com/retailmind/backend/internal/infrastructure/log"
	"github.com/retailmind/backend/internal/infrastructure/watcher"
	"github.com/retailmind/backend/internal/infrastructure/websocket"
	"github.com/retailmind/backend/internal/interfaces"
)

// initialLoadTimeout 启动时首次加载数据集的超时
const initialLoadTimeout = 2 * time.Minute

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer
	dashboard  *dashboard.Service
	reloader   *dashboard.Reloader
	wsHub      *websocket.Hub
	notifier   *websocket.DatasetNotifier
	datasetCfg *config.DatasetConfig
	logger     *slog.Logger

	// 文件监听相关
	eventBus    events.EventBus
	fileWatcher *watcher.FileWatcher
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	dashboardService *dashboard.Service,
	reloader *dashboard.Reloader,
	wsHub *websocket.Hub,
	notifier *websocket.DatasetNotifier,
	eventBus events.EventBus,
	fileWatcher *watcher.FileWatcher,
	datasetCfg *config.DatasetConfig,
) *App {
	return &App{
		HTTPServer:  httpServer,
		MCPServer:   mcpServer,
		dashboard:   dashboardService,
		reloader:    reloader,
		wsHub:       wsHub,
		notifier:    notifier,
		datasetCfg:  datasetCfg,
		logger:      applog.NewModuleLogger("app", "main"),
		eventBus:    eventBus,
		fileWatcher: fileWatcher,
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting RetailMind backend application")

	// 先启动推送，首次加载的事件也会被转发
	a.wsHub.Start()
	a.notifier.Start()

	// 首次加载失败不阻止启动，接口返回 503 直到数据可用
	ctx, cancel := context.WithTimeout(context.Background(), initialLoadTimeout)
	summary, err := a.dashboard.Reload(ctx)
	cancel()
	if err != nil {
		a.logger.Error("Initial dataset load failed",
			"error", err,
		)
	} else {
		a.logger.Info("Initial dataset loaded",
			"source", summary.Source,
			"turns", summary.Turns,
			"conversations", summary.Conversations,
		)
	}

	// 数据文件变化时自动重新加载
	if a.datasetCfg.Watch && a.fileWatcher != nil {
		a.reloader.Start()
		if err := a.fileWatcher.Start(); err != nil {
			a.logger.Error("Failed to start file watcher",
				"error", err,
			)
		} else {
			a.logger.Info("File watcher started successfully")
		}
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	// MCP 服务器通过 HTTP Handler 提供服务，已在 HTTP 服务器中注册 /mcp/sse 端点
	if err := a.MCPServer.Start(); err != nil {
		return err
	}

	a.logger.Info("RetailMind backend application started successfully")
	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping RetailMind backend application")

	// 停止文件监听器
	if a.fileWatcher != nil {
		a.fileWatcher.Stop()
		a.logger.Info("File watcher stopped")
	}
	a.reloader.Stop()
	a.notifier.Stop()

	// 关闭事件总线
	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	a.wsHub.Stop()

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}
	if err := a.MCPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop MCP server",
			"error", err,
		)
		return err
	}

	a.logger.Info("RetailMind backend application stopped")
	return nil
}
