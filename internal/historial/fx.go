package historial

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/historial/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("historial",
	fx.Provide(repository.Provide),
)
