package events

import "time"

// DataFileEvent 数据文件变更事件
// 当数据目录下的 dashboard_* 文件发生变更时触发（已防抖）
type DataFileEvent struct {
	// EventType 事件类型（changed/removed）
	EventType EventType
	// FileName 文件名（不含目录）
	FileName string
	// FilePath 文件完整路径
	FilePath string
	// ModTime 文件最后修改时间，删除时为零值
	ModTime time.Time
	// FileSize 文件大小（字节）
	FileSize int64
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *DataFileEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *DataFileEvent) Timestamp() time.Time {
	return e.EventTime
}

// DatasetEvent 数据集快照发布事件
type DatasetEvent struct {
	// EventType 事件类型（reloaded/appended）
	EventType EventType
	// Version 新快照版本号
	Version int64
	// Source 数据来源
	Source string
	// Turns 新快照的轮次总数
	Turns int
	// ConvID 追加的会话 ID，仅 appended 事件有效
	ConvID int
	// UploadID 上传记录 ID，仅 appended 事件有效
	UploadID string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *DatasetEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *DatasetEvent) Timestamp() time.Time {
	return e.EventTime
}
