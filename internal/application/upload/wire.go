package upload

import "github.com/google/wire"

// ProviderSet 上传应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
)
