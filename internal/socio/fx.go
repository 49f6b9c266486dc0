package socio

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/socio/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("socio",
	fx.Provide(repository.Provide),
)
