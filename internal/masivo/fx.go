package masivo

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/masivo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("masivo",
	fx.Provide(service.NewService),
)
