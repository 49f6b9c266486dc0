package regla

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/regla/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/regla/service"
	"go.uber.org/fx"
)

var Module = fx.Module("regla",
	fx.Provide(repository.Provide, service.NewEngine),
)
