package exencion

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("exencion",
	fx.Provide(repository.Provide, service.NewService),
)
