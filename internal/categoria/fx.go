package categoria

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/service"
	"go.uber.org/fx"
)

var Module = fx.Module("categoria",
	fx.Provide(repository.Provide, service.NewService),
)
