package cuota

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cuota",
	fx.Provide(repository.Provide, service.NewService),
)
