package dashboard

import "github.com/google/wire"

// ProviderSet 看板应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
	NewReloader,
)
