package application

import (
	"github.com/google/wire"
	"github.com/retailmind/backend/internal/application/dashboard"
	"github.com/retailmind/backend/internal/application/upload"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	dashboard.ProviderSet,
	upload.ProviderSet,
)
