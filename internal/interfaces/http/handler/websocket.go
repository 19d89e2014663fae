package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retailmind/backend/internal/infrastructure/websocket"
)

// WebSocketHandler 数据集变更推送
type WebSocketHandler struct {
	server *websocket.Server
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(server *websocket.Server) *WebSocketHandler {
	return &WebSocketHandler{server: server}
}

// Serve 升级为 WebSocket 连接
// @Summary 订阅数据集更新
// @Description 数据集重新加载或追加上传会话时推送 dataset.updated 消息
// @Tags 推送
// @Param channel query string false "订阅频道，默认 dataset"
// @Router /ws [get]
func (h *WebSocketHandler) Serve(c *gin.Context) {
	h.server.ServeWS(c.Writer, c.Request, c.Query("channel"))
}
