package mcp

import (
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/infrastructure/log"
)

// 服务器标识
const (
	ServerName    = "retailmind-analytics"
	ServerVersion = "0.1.0"
)

// MCPServer MCP 服务器
type MCPServer struct {
	server    *mcp.Server
	handler   http.Handler
	dashboard *dashboard.Service
	logger    *slog.Logger
}

// NewServer 创建 MCP 服务器
func NewServer(dashboardService *dashboard.Service) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:    server,
		dashboard: dashboardService,
		logger:    log.NewModuleLogger("mcp", "server"),
	}
	mcpServer.registerTools()

	mcpServer.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)
	return mcpServer
}

func (s *MCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rank_topics",
		Description: "Rank failure topics by low-satisfaction rate (descending), ties broken by number of examples. Parameters: limit (int, optional) - maximum topics to return, 0 returns all. Returns: ranked topics with id, label, low_sat_rate and n_examples.",
	}, s.rankTopicsTool)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_severity_stats",
		Description: "Compute failure severity statistics for one topic. Parameters: topic_id (int, required) - topic id, -1 for unclustered turns. Returns: average severity (LOW=1, MEDIUM=2, HIGH=3), severity counts, distribution and dominant severity.",
	}, s.getSeverityStatsTool)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_top_conversations",
		Description: "List the highest-satisfaction conversations across the whole dataset. Parameters: limit (int, optional) - defaults to 10. Returns: conversations with satisfaction min/mean/max, turn counts, success rate and assigned topic (topic_id -1 means the topic was inferred from text).",
	}, s.getTopConversationsTool)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_success_topics",
		Description: "List topics with the best user satisfaction. Parameters: top_n (int, optional) - defaults to 5; detailed (bool, optional) - include turn counts, low-satisfaction rate and topic labels. Returns: success topics ordered by satisfaction.",
	}, s.getSuccessTopicsTool)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_why_it_works",
		Description: "Explain why the best conversations succeed. Parameters: limit (int, optional) - number of top conversations to analyse, defaults to 50. Returns: narrative pattern cards (at most 5) and the underlying metrics (clear intent %, KB alignment %, average turns, low error rate).",
	}, s.getWhyItWorksTool)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "infer_theme",
		Description: "Infer a business theme for a conversation. Parameters: conv_id (int, optional) - conversation in the current dataset; text (string, optional) - free text to classify when conv_id is not given; turn_count (int, optional) - turn count used for the fallback label. Returns: inferred theme.",
	}, s.inferThemeTool)
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Server 底层 MCP 服务器，测试中用于建立内存连接
func (s *MCPServer) Server() *mcp.Server {
	return s.server
}

// Start 启动服务器（HTTP/SSE 模式）
// MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
func (s *MCPServer) Start() error {
	s.logger.Info("MCP server ready", "endpoint", "/mcp/sse")
	return nil
}

// Stop 停止服务器
func (s *MCPServer) Stop() error {
	// HTTP/SSE 模式下，由 HTTP 服务器统一管理生命周期
	return nil
}
