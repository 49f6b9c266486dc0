package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/categoria"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/config"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/cuota"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/exencion"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/historial"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/logger"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/masivo"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/migration"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/observability/metrics"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/preview"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/regla"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/rollback"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/server"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/socio"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		metrics.Module,
		migration.Module,

		socio.Module,
		categoria.Module,
		regla.Module,
		exencion.Module,
		ajuste.Module,
		historial.Module,
		cuota.Module,
		preview.Module,
		masivo.Module,
		rollback.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
