package dialogue

// ConversationBuilder 在写锁内根据下一个会话 ID 构造待追加的轮次
type ConversationBuilder func(nextConvID int) []Turn

// DatasetRepository 数据集快照仓储
// 实现必须保证：读取方拿到的快照永远完整，写入串行执行
type DatasetRepository interface {
	// Snapshot 返回当前快照；未加载时返回 ErrDatasetNotLoaded
	Snapshot() (*Dataset, error)

	// AppendConversation 追加一个新会话并发布新版本快照
	AppendConversation(build ConversationBuilder) (*Dataset, error)

	// Replace 用新加载的数据集替换当前快照（版本号延续递增）
	Replace(ds *Dataset) *Dataset
}
