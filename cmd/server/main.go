// @title RetailMind Analytics API
// @version 1.0
// @description RetailMind 会话分析看板 API 服务
// @host localhost:19970
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/retailmind/backend/internal/infrastructure/config"
	applog "github.com/retailmind/backend/internal/infrastructure/log"
	"github.com/retailmind/backend/internal/infrastructure/singleton"
	"github.com/retailmind/backend/internal/wire"
)

func main() {
	applog.Init(nil)
	logger := applog.NewModuleLogger("main", "server")

	port := config.NewConfig().Server.HTTPPort

	// 同一端口只允许一个实例
	listener, err := singleton.CheckAndLock(port)
	if err != nil {
		logger.Error("Cannot acquire server port",
			"port", port,
			"error", err,
		)
		os.Exit(1)
	}
	if listener == nil {
		logger.Info("Another instance is already serving, exiting",
			"port", port,
		)
		return
	}
	// 只用于探测，真正的监听由 HTTP 服务器完成
	_ = listener.Close()

	app, err := wire.InitializeAll()
	if err != nil {
		logger.Error("Failed to initialize application",
			"error", err,
		)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		logger.Error("Failed to start application",
			"error", err,
		)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	if err := app.Stop(); err != nil {
		logger.Error("Error during shutdown",
			"error", err,
		)
	}
	logger.Info("Stopped")
}
