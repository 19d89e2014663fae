// Package events 定义领域事件类型和接口
// 用于系统内部的事件驱动通信
package events

import "time"

// EventType 事件类型标识
type EventType string

// 数据文件相关事件类型
const (
	// DataFileChanged 数据目录中的文件被创建或修改
	DataFileChanged EventType = "dataset.file.changed"
	// DataFileRemoved 数据目录中的文件被删除
	DataFileRemoved EventType = "dataset.file.removed"
)

// 数据集快照相关事件类型
const (
	// DatasetReloaded 数据集从数据源重新加载并发布
	DatasetReloaded EventType = "dataset.reloaded"
	// DatasetAppended 上传会话追加后发布了新快照
	DatasetAppended EventType = "dataset.appended"
)

// Event 领域事件接口
// 所有事件类型都必须实现此接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}
