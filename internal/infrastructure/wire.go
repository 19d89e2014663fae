package infrastructure

import (
	"github.com/google/wire"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	"github.com/retailmind/backend/internal/infrastructure/tokenizer"
	"github.com/retailmind/backend/internal/infrastructure/watcher"
	"github.com/retailmind/backend/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	dataset.ProviderSet,
	tokenizer.ProviderSet,
	watcher.ProviderSet,
	websocket.ProviderSet,
)
