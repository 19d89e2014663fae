package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/application/upload"
	"github.com/retailmind/backend/internal/interfaces/http/response"
)

// defaultUploadName 未提供文件名时的占位名
const defaultUploadName = "upload.jsonl"

// UploadHistoryResponse 上传历史响应
type UploadHistoryResponse struct {
	Records []upload.Record       `json:"records"`
	Summary upload.HistorySummary `json:"summary"`
}

// UploadHandler 上传实验室处理器
type UploadHandler struct {
	uploadService    *upload.Service
	dashboardService *dashboard.Service
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(uploadService *upload.Service, dashboardService *dashboard.Service) *UploadHandler {
	return &UploadHandler{
		uploadService:    uploadService,
		dashboardService: dashboardService,
	}
}

// Upload 上传一段会话
// @Summary 上传会话
// @Description 支持 multipart 字段 file，或直接以请求体发送 JSON 数组 / JSONL
// @Tags 上传
// @Accept json
// @Accept mpfd
// @Produce json
// @Param file formData file false "会话文件（JSON 或 JSONL）"
// @Param filename query string false "原始文件名（请求体上传时使用）"
// @Success 200 {object} response.Response{data=upload.Result}
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	filename, payload, ok := h.readPayload(c)
	if !ok {
		return
	}

	result, err := h.uploadService.Upload(filename, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// readPayload 读取上传内容，最多读取上限加一个字节以便服务层判断超限
func (h *UploadHandler) readPayload(c *gin.Context) (string, []byte, bool) {
	var (
		filename = c.DefaultQuery("filename", defaultUploadName)
		reader   io.Reader
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeInvalidUpload, "missing form file: "+err.Error())
			return "", nil, false
		}
		defer file.Close()
		filename = header.Filename
		reader = file
	} else {
		reader = c.Request.Body
	}

	if limit := h.uploadService.MaxBytes(); limit > 0 {
		reader = io.LimitReader(reader, limit+1)
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidUpload, "failed to read upload: "+err.Error())
		return "", nil, false
	}
	return filename, payload, true
}

// History 获取上传历史
// @Summary 上传历史
// @Tags 上传
// @Produce json
// @Success 200 {object} response.Response{data=UploadHistoryResponse}
// @Router /upload/history [get]
func (h *UploadHandler) History(c *gin.Context) {
	response.Success(c, UploadHistoryResponse{
		Records: h.uploadService.History(),
		Summary: h.uploadService.Summary(),
	})
}

// SandboxCases 获取预置示例
// @Summary 上传实验室预置示例
// @Tags 上传
// @Produce json
// @Success 200 {object} response.Response{data=[]dialogue.SandboxCase}
// @Failure 503 {object} response.ErrorResponse
// @Router /upload/sandbox-cases [get]
func (h *UploadHandler) SandboxCases(c *gin.Context) {
	cases, err := h.dashboardService.SandboxCases()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, cases)
}
