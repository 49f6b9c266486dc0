package preview

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/preview/service"
	"go.uber.org/fx"
)

var Module = fx.Module("preview",
	fx.Provide(service.NewService),
)
