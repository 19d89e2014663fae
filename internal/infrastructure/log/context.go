package log

import (
	"context"
	"log/slog"
	"strconv"
)

// contextKey 上下文键类型
type contextKey string

// 上下文键定义
const (
	// RequestContextID HTTP 请求 ID
	RequestContextID contextKey = "request_id"

	// DatasetVersionContextID 处理请求时使用的数据集快照版本
	DatasetVersionContextID contextKey = "dataset_version"

	// ConversationContextID 会话 ID
	ConversationContextID contextKey = "conv_id"

	// UploadContextID 上传记录 ID
	UploadContextID contextKey = "upload_id"
)

// WithRequestID 在上下文中添加请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithDatasetVersion 在上下文中添加数据集版本
func WithDatasetVersion(ctx context.Context, version int64) context.Context {
	return context.WithValue(ctx, DatasetVersionContextID, version)
}

// WithConversationID 在上下文中添加会话 ID
func WithConversationID(ctx context.Context, convID int) context.Context {
	return context.WithValue(ctx, ConversationContextID, convID)
}

// WithUploadID 在上下文中添加上传 ID
func WithUploadID(ctx context.Context, uploadID string) context.Context {
	return context.WithValue(ctx, UploadContextID, uploadID)
}

// RequestIDFromContext 读取请求 ID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestContextID).(string)
	return id
}

// LogCtxFromContext 从上下文中提取日志字段
func LogCtxFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if requestID, ok := ctx.Value(RequestContextID).(string); ok {
		attrs = append(attrs, slog.String(string(RequestContextID), requestID))
	}
	if version, ok := ctx.Value(DatasetVersionContextID).(int64); ok {
		attrs = append(attrs, slog.Int64(string(DatasetVersionContextID), version))
	}
	if convID, ok := ctx.Value(ConversationContextID).(int); ok {
		attrs = append(attrs, slog.String(string(ConversationContextID), strconv.Itoa(convID)))
	}
	if uploadID, ok := ctx.Value(UploadContextID).(string); ok {
		attrs = append(attrs, slog.String(string(UploadContextID), uploadID))
	}

	return attrs
}
