package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	categoriadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	categoriarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/repository"
	categoriaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/service"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/config"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	cuotarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/repository"
	cuotaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/service"
	exencionrepo "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/repository"
	exencionservice "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/service"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	historialrepo "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/migration"
	reglarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/regla/repository"
	reglaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/regla/service"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/domain"
	rollbackrepo "github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/repository"
	sociodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/domain"
	sociorepo "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/twophase"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type rollbackEnv struct {
	db       *gorm.DB
	svc      domain.Service
	cuotaSvc cuotadomain.Service
	node     *snowflake.Node
	cat      categoriadomain.Categoria
}

func setupRollback(t *testing.T) *rollbackEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.RunMigrations(db))

	log := zaptest.NewLogger(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	holder := config.NewStaticPricingConfigHolder(config.PricingConfig{TopeDescuentoPorcentaje: 100, TechoCalculo: 10_000_000})
	histRepo := historialrepo.Provide()
	cuotaRepo := cuotarepo.Provide()

	cuotaSvc := cuotaservice.NewService(cuotaservice.ServiceParam{
		DB: db, Log: log, Clock: clk, GenID: node,
		Repo: cuotaRepo, SocioRepo: sociorepo.Provide(),
		CategoriaSvc: categoriaservice.NewService(categoriaservice.ServiceParam{DB: db, Log: log, Repo: categoriarepo.Provide()}),
		ReglaEngine:  reglaservice.NewEngine(reglaservice.EngineParam{DB: db, Log: log, Repo: reglarepo.Provide(), PricingCfg: holder}),
		ExencionSvc: exencionservice.NewService(exencionservice.ServiceParam{
			DB: db, Log: log, Clock: clk, GenID: node,
			Repo: exencionrepo.Provide(), HistorialRepo: histRepo,
		}),
		HistorialRepo: histRepo, PricingCfg: holder,
	})

	svc := NewService(ServiceParam{
		DB: db, Log: log, Clock: clk, GenID: node,
		CuotaRepo: cuotaRepo, BackupRepo: rollbackrepo.ProvideBackup(),
		HistorialRepo: histRepo,
	})

	cat := categoriadomain.Categoria{
		ID:        node.Generate(),
		Codigo:    "ACTIVO",
		Nombre:    "Socio activo",
		MontoBase: decimal.NewFromInt(1000),
		Activa:    true,
	}
	require.NoError(t, db.Create(&cat).Error)

	return &rollbackEnv{db: db, svc: svc, cuotaSvc: cuotaSvc, node: node, cat: cat}
}

func (e *rollbackEnv) generarCuotas(t *testing.T, n int) []*cuotadomain.Cuota {
	t.Helper()
	cuotas := make([]*cuotadomain.Cuota, 0, n)
	for i := 0; i < n; i++ {
		socio := sociodomain.Socio{
			ID:          e.node.Generate(),
			Nombre:      fmt.Sprintf("Socio%d", i),
			Apellido:    "Prueba",
			FechaAlta:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			CategoriaID: e.cat.ID,
			Activo:      true,
		}
		require.NoError(t, e.db.Create(&socio).Error)

		cuota, err := e.cuotaSvc.Generar(context.Background(), cuotadomain.CalcularRequest{
			SocioID:     socio.ID,
			CategoriaID: e.cat.ID,
			Periodo:     periodo.Periodo{Mes: 3, Anio: 2026},
		}, "admin")
		require.NoError(t, err)
		cuotas = append(cuotas, cuota)
	}
	return cuotas
}

func (e *rollbackEnv) marcarPagada(t *testing.T, id snowflake.ID) {
	t.Helper()
	require.NoError(t, e.db.Model(&cuotadomain.Cuota{}).
		Where("id = ?", id).
		Update("estado", cuotadomain.EstadoPagada).Error)
}

func marzo() periodo.Periodo { return periodo.Periodo{Mes: 3, Anio: 2026} }

func requestRollback(modo twophase.Mode) domain.Request {
	p := marzo()
	return domain.Request{
		Target:   domain.Target{Periodo: &p},
		Modo:     modo,
		Opciones: domain.Opciones{EliminarPendientes: true},
		Actor:    "admin",
	}
}

func TestValidar_SinPagadasEsElegible(t *testing.T) {
	env := setupRollback(t)
	env.generarCuotas(t, 3)

	validacion, err := env.svc.Validar(context.Background(), marzo())
	require.NoError(t, err)
	assert.True(t, validacion.Elegible)
	assert.Equal(t, 3, validacion.Objetivos)
	assert.Empty(t, validacion.Bloqueos)
}

func TestValidar_PagadaBloquea(t *testing.T) {
	env := setupRollback(t)
	cuotas := env.generarCuotas(t, 3)
	env.marcarPagada(t, cuotas[1].ID)

	validacion, err := env.svc.Validar(context.Background(), marzo())
	require.NoError(t, err)
	assert.False(t, validacion.Elegible)
	assert.Contains(t, validacion.Bloqueos, domain.BloqueoCuotaPagada)
}

func TestEjecutar_PreviewNoDestruye(t *testing.T) {
	env := setupRollback(t)
	env.generarCuotas(t, 3)

	reporte, err := env.svc.Ejecutar(context.Background(), requestRollback(twophase.ModePreview))
	require.NoError(t, err)
	assert.Equal(t, 3, reporte.Objetivos)
	assert.Equal(t, 3, reporte.Eliminadas)

	var cantidad int64
	require.NoError(t, env.db.Model(&cuotadomain.Cuota{}).Count(&cantidad).Error)
	assert.EqualValues(t, 3, cantidad)
}

func TestEjecutar_ApplyEliminaConHistorial(t *testing.T) {
	env := setupRollback(t)
	cuotas := env.generarCuotas(t, 3)

	reporte, err := env.svc.Ejecutar(context.Background(), requestRollback(twophase.ModeApply))
	require.NoError(t, err)
	assert.Equal(t, 3, reporte.Eliminadas)
	assert.Zero(t, reporte.Omitidas)

	var cantidad int64
	require.NoError(t, env.db.Model(&cuotadomain.Cuota{}).Count(&cantidad).Error)
	assert.Zero(t, cantidad)
	require.NoError(t, env.db.Model(&cuotadomain.CuotaItem{}).Count(&cantidad).Error)
	assert.Zero(t, cantidad)

	// Exactly one destruction entry per due, on top of its generation entry.
	for _, cuota := range cuotas {
		entradas, err := historialrepo.Provide().ListForObjetivo(context.Background(), env.db, historialdomain.ObjetivoCuota, cuota.ID)
		require.NoError(t, err)
		require.Len(t, entradas, 2)
		assert.Equal(t, historialdomain.AccionCuotaEliminada, entradas[1].Accion)
		assert.Equal(t, "admin", entradas[1].Actor)
	}
}

func TestEjecutar_PagadaSinForceSeOmite(t *testing.T) {
	env := setupRollback(t)
	cuotas := env.generarCuotas(t, 3)
	env.marcarPagada(t, cuotas[0].ID)

	reporte, err := env.svc.Ejecutar(context.Background(), requestRollback(twophase.ModeApply))
	require.NoError(t, err)
	assert.Equal(t, 2, reporte.Eliminadas)
	assert.Equal(t, 1, reporte.Omitidas)

	var almacenada cuotadomain.Cuota
	require.NoError(t, env.db.First(&almacenada, "id = ?", cuotas[0].ID).Error)
	assert.Equal(t, cuotadomain.EstadoPagada, almacenada.Estado)
}

func TestEjecutar_EliminarPagadasExigeForce(t *testing.T) {
	env := setupRollback(t)
	cuotas := env.generarCuotas(t, 1)
	env.marcarPagada(t, cuotas[0].ID)

	req := requestRollback(twophase.ModeApply)
	req.Opciones.EliminarPagadas = true

	_, err := env.svc.Ejecutar(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrRollbackBloqueado)
}

func TestEjecutar_ForceEliminaPagadas(t *testing.T) {
	env := setupRollback(t)
	cuotas := env.generarCuotas(t, 2)
	env.marcarPagada(t, cuotas[0].ID)

	req := requestRollback(twophase.ModeApply)
	req.Opciones.EliminarPagadas = true
	req.Opciones.Force = true

	reporte, err := env.svc.Ejecutar(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, reporte.Eliminadas)

	entradas, err := historialrepo.Provide().ListForObjetivo(context.Background(), env.db, historialdomain.ObjetivoCuota, cuotas[0].ID)
	require.NoError(t, err)
	require.Len(t, entradas, 2)
	assert.Equal(t, historialdomain.AccionCuotaRevertida, entradas[1].Accion)
}

func TestEjecutar_CrearBackupGuardaSnapshot(t *testing.T) {
	env := setupRollback(t)
	env.generarCuotas(t, 2)

	req := requestRollback(twophase.ModeApply)
	req.Opciones.CrearBackup = true

	reporte, err := env.svc.Ejecutar(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, reporte.Respaldos)

	backups, err := rollbackrepo.ProvideBackup().ListByBatch(context.Background(), env.db, reporte.BatchID)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.NotEmpty(t, backups[0].Snapshot)
}

func TestEjecutar_CuotaIndividual(t *testing.T) {
	env := setupRollback(t)
	cuotas := env.generarCuotas(t, 2)

	id := cuotas[0].ID
	reporte, err := env.svc.Ejecutar(context.Background(), domain.Request{
		Target:   domain.Target{CuotaID: &id},
		Modo:     twophase.ModeApply,
		Opciones: domain.Opciones{EliminarPendientes: true},
		Actor:    "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reporte.Eliminadas)

	var cantidad int64
	require.NoError(t, env.db.Model(&cuotadomain.Cuota{}).Count(&cantidad).Error)
	assert.EqualValues(t, 1, cantidad)
}

func TestEjecutar_SinObjetivosEsNoOp(t *testing.T) {
	env := setupRollback(t)

	reporte, err := env.svc.Ejecutar(context.Background(), requestRollback(twophase.ModeApply))
	require.NoError(t, err)
	assert.Zero(t, reporte.Objetivos)
	assert.Zero(t, reporte.Eliminadas)
}

func TestEjecutar_TargetInvalido(t *testing.T) {
	env := setupRollback(t)

	_, err := env.svc.Ejecutar(context.Background(), domain.Request{
		Modo:     twophase.ModeApply,
		Opciones: domain.Opciones{EliminarPendientes: true},
		Actor:    "admin",
	})
	require.ErrorIs(t, err, domain.ErrTargetInvalido)
}
