package tokenizer

import "github.com/google/wire"

// ProviderSet 分词基础设施 ProviderSet
var ProviderSet = wire.NewSet(
	NewCounter,
)
