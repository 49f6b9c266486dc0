package rollback

import (
	"github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rollback",
	fx.Provide(
		repository.ProvideBackup,
		service.NewService,
	),
)
