package websocket

import "github.com/google/wire"

// ProviderSet WebSocket 推送 ProviderSet
var ProviderSet = wire.NewSet(
	NewHub,
	NewServer,
	NewDatasetNotifier,
)
