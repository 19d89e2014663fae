package dialogue

import "errors"

// 数据集相关错误
var (
	// ErrDatasetNotLoaded 数据集尚未加载
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	// ErrTopicNotFound 主题不存在
	ErrTopicNotFound = errors.New("topic not found")
	// ErrConversationNotFound 会话不存在
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidSeverity 严重程度不是 HIGH/MEDIUM/LOW/NONE 之一
	ErrInvalidSeverity = errors.New("severity must be one of HIGH, MEDIUM, LOW, NONE")
)

// 上传相关错误
var (
	// ErrInvalidUploadPayload 上传内容既不是 JSON 数组也不是 JSONL
	ErrInvalidUploadPayload = errors.New("unable to parse upload, expected JSON array or JSONL")
	// ErrEmptyUpload 上传内容中没有包含 text 字段的轮次
	ErrEmptyUpload = errors.New("no valid conversation turns found in upload")
)
