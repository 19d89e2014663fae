package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/interfaces/http/response"
)

// 确保领域类型在 Swagger 注释中被识别
var (
	_ analytics.DiagnosticLabel
	_ analytics.SampleConversation
	_ dialogue.Topic
)

// 查询参数默认值
const (
	defaultTopN              = 5
	defaultSuccessfulLimit   = 5
	defaultTopConversations  = 50
	defaultSeverityLimit     = 5
	defaultConversationsPage = 5
)

// DashboardHandler 看板查询处理器
type DashboardHandler struct {
	service *dashboard.Service
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview 获取概览
// @Summary 获取概览 KPI
// @Description KPI、相对上一条历史的变化、问题分布、成功分布与严重程度分布
// @Tags 概览
// @Produce json
// @Success 200 {object} response.Response{data=dashboard.OverviewDTO}
// @Failure 503 {object} response.ErrorResponse
// @Router /overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, overview)
}

// OverviewHistory 获取指标历史
// @Summary 获取指标历史
// @Tags 概览
// @Produce json
// @Success 200 {object} response.Response{data=[]dashboard.MetricsSnapshot}
// @Router /overview/history [get]
func (h *DashboardHandler) OverviewHistory(c *gin.Context) {
	response.Success(c, h.service.History())
}

// Dataset 获取当前数据集快照摘要
// @Summary 获取数据集摘要
// @Tags 数据集
// @Produce json
// @Success 200 {object} response.Response{data=dialogue.Summary}
// @Failure 503 {object} response.ErrorResponse
// @Router /dataset [get]
func (h *DashboardHandler) Dataset(c *gin.Context) {
	summary, err := h.service.Summary()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, summary)
}

// RankedTopics 获取失败主题排行
// @Summary 失败主题排行
// @Description 按低满意度比例降序、样本数降序排列
// @Tags 主题
// @Produce json
// @Success 200 {object} response.Response{data=[]dialogue.Topic}
// @Failure 503 {object} response.ErrorResponse
// @Router /topics/ranked [get]
func (h *DashboardHandler) RankedTopics(c *gin.Context) {
	topics, err := h.service.RankedTopics()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, topics)
}

// TopicDetail 获取主题详情
// @Summary 主题详情
// @Tags 主题
// @Produce json
// @Param topic_id path int true "主题 ID"
// @Success 200 {object} response.Response{data=dashboard.TopicDetailDTO}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /topics/{topic_id} [get]
func (h *DashboardHandler) TopicDetail(c *gin.Context) {
	topicID, ok := pathInt(c, "topic_id")
	if !ok {
		return
	}

	detail, err := h.service.TopicDetail(topicID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, detail)
}

// TopicConversations 获取主题下的示例会话
// @Summary 主题示例会话（分页）
// @Tags 主题
// @Produce json
// @Param topic_id path int true "主题 ID"
// @Param page query int false "页码，从 1 开始"
// @Param page_size query int false "每页会话数，默认 5"
// @Success 200 {object} response.ResponseWithPage{data=[]analytics.SampleConversation}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /topics/{topic_id}/conversations [get]
func (h *DashboardHandler) TopicConversations(c *gin.Context) {
	topicID, ok := pathInt(c, "topic_id")
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "page_size", defaultConversationsPage)
	if !ok {
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultConversationsPage
	}

	result, err := h.service.TopicConversations(topicID, page-1, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithPage(c, result.Conversations, page, result.PageSize, result.Total)
}

// SuccessfulConversations 获取主题内的高分会话
// @Summary 主题高分会话
// @Tags 主题
// @Produce json
// @Param topic_id path int true "主题 ID"
// @Param limit query int false "返回条数，默认 5"
// @Success 200 {object} response.Response{data=[]analytics.ConversationStats}
// @Failure 400 {object} response.ErrorResponse
// @Router /topics/{topic_id}/successful-conversations [get]
func (h *DashboardHandler) SuccessfulConversations(c *gin.Context) {
	topicID, ok := pathInt(c, "topic_id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultSuccessfulLimit)
	if !ok {
		return
	}

	convs, err := h.service.SuccessfulConversations(topicID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, convs)
}

// TopicsBySeverity 按主导严重程度筛选主题
// @Summary 按严重程度筛选主题
// @Tags 主题
// @Produce json
// @Param severity path string true "HIGH/MEDIUM/LOW/NONE"
// @Param limit query int false "返回条数，默认 5"
// @Success 200 {object} response.Response{data=[]analytics.TopicFailureCount}
// @Failure 400 {object} response.ErrorResponse
// @Router /topics/by-severity/{severity} [get]
func (h *DashboardHandler) TopicsBySeverity(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultSeverityLimit)
	if !ok {
		return
	}

	topics, err := h.service.TopicsBySeverity(c.Param("severity"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, topics)
}

// DiagnosticLabels 获取诊断标签
// @Summary 失败主题诊断标签
// @Tags 诊断
// @Produce json
// @Success 200 {object} response.Response{data=[]analytics.DiagnosticLabel}
// @Failure 503 {object} response.ErrorResponse
// @Router /diagnostics/labels [get]
func (h *DashboardHandler) DiagnosticLabels(c *gin.Context) {
	labels, err := h.service.DiagnosticLabels()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, labels)
}

// SuccessTopics 获取成功主题
// @Summary 成功主题排行
// @Tags 洞察
// @Produce json
// @Param top_n query int false "返回条数，默认 5"
// @Param detailed query bool false "是否返回详细指标"
// @Success 200 {object} response.Response{data=dashboard.SuccessTopicsDTO}
// @Failure 400 {object} response.ErrorResponse
// @Router /insights/success-topics [get]
func (h *DashboardHandler) SuccessTopics(c *gin.Context) {
	topN, ok := queryInt(c, "top_n", defaultTopN)
	if !ok {
		return
	}
	detailed, _ := strconv.ParseBool(c.DefaultQuery("detailed", "false"))

	result, err := h.service.SuccessTopics(topN, detailed)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// WhatWorks 获取 "What works well" 页面数据
// @Summary 成功经验汇总
// @Tags 洞察
// @Produce json
// @Success 200 {object} response.Response{data=dashboard.WhatWorksDTO}
// @Failure 503 {object} response.ErrorResponse
// @Router /insights/what-works [get]
func (h *DashboardHandler) WhatWorks(c *gin.Context) {
	result, err := h.service.WhatWorks()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// TopConversations 获取全表高分会话
// @Summary 高分会话排行
// @Tags 会话
// @Produce json
// @Param limit query int false "返回条数，默认 50"
// @Success 200 {object} response.Response{data=[]analytics.RankedConversation}
// @Failure 400 {object} response.ErrorResponse
// @Router /conversations/top [get]
func (h *DashboardHandler) TopConversations(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultTopConversations)
	if !ok {
		return
	}

	convs, err := h.service.TopConversations(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, convs)
}

// Conversation 获取单个会话
// @Summary 会话详情
// @Tags 会话
// @Produce json
// @Param conv_id path int true "会话 ID"
// @Success 200 {object} response.Response{data=dashboard.ConversationDTO}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{conv_id} [get]
func (h *DashboardHandler) Conversation(c *gin.Context) {
	convID, ok := pathInt(c, "conv_id")
	if !ok {
		return
	}

	conv, err := h.service.Conversation(convID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, conv)
}
