package ajuste

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ajuste",
	fx.Provide(repository.Provide, service.NewService),
)
