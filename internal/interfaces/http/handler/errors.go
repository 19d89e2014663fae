package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/retailmind/backend/internal/application/upload"
	"github.com/retailmind/backend/internal/domain/dialogue"
	"github.com/retailmind/backend/internal/interfaces/http/response"
)

// writeError 将领域错误映射为 HTTP 状态码与业务错误码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dialogue.ErrDatasetNotLoaded):
		response.Error(c, http.StatusServiceUnavailable, response.CodeNotLoaded, err.Error())
	case errors.Is(err, dialogue.ErrTopicNotFound),
		errors.Is(err, dialogue.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, dialogue.ErrInvalidSeverity):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidSeverity, err.Error())
	case errors.Is(err, dialogue.ErrInvalidUploadPayload):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidUpload, err.Error())
	case errors.Is(err, dialogue.ErrEmptyUpload):
		response.Error(c, http.StatusBadRequest, response.CodeEmptyUpload, err.Error())
	case errors.Is(err, upload.ErrPayloadTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, err.Error())
	}
}

// queryInt 读取整数查询参数，缺省时返回 def
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidParam, "invalid "+name+": "+raw)
		return 0, false
	}
	return v, true
}

// pathInt 读取整数路径参数
func pathInt(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidParam, "invalid "+name+": "+raw)
		return 0, false
	}
	return v, true
}
