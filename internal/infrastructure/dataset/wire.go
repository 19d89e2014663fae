package dataset

import (
	"github.com/google/wire"
	"github.com/retailmind/backend/internal/domain/dialogue"
)

// ProviderSet 数据集基础设施 ProviderSet
var ProviderSet = wire.NewSet(
	NewMemoryStore,
	wire.Bind(new(dialogue.DatasetRepository), new(*MemoryStore)),
	NewLoader,
)
