package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	ajusterepo "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/repository"
	categoriadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	categoriarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/repository"
	categoriaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/service"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/config"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	cuotarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/repository"
	cuotaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/service"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	exencionrepo "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/repository"
	exencionservice "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/service"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	historialrepo "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/migration"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/preview/domain"
	reglarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/regla/repository"
	reglaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/regla/service"
	sociodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/domain"
	sociorepo "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type previewEnv struct {
	db       *gorm.DB
	svc      domain.Service
	cuotaSvc cuotadomain.Service
	node     *snowflake.Node
	socio    sociodomain.Socio
	cat      categoriadomain.Categoria
}

func setupPreview(t *testing.T) *previewEnv {
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
	ajusteRepo := ajusterepo.Provide()

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
		DB: db, Log: log, CuotaSvc: cuotaSvc, CuotaRepo: cuotaRepo, AjusteRepo: ajusteRepo,
	})

	cat := categoriadomain.Categoria{
		ID:                  node.Generate(),
		Codigo:              "ACTIVO",
		Nombre:              "Socio activo",
		MontoBase:           decimal.NewFromInt(1000),
		DescuentoPorcentaje: decimal.NewFromInt(10),
		Activa:              true,
	}
	require.NoError(t, db.Create(&cat).Error)

	socio := sociodomain.Socio{
		ID:          node.Generate(),
		Nombre:      "Hugo",
		Apellido:    "Paredes",
		FechaAlta:   time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC),
		CategoriaID: cat.ID,
		Activo:      true,
	}
	require.NoError(t, db.Create(&socio).Error)

	return &previewEnv{db: db, svc: svc, cuotaSvc: cuotaSvc, node: node, socio: socio, cat: cat}
}

func (e *previewEnv) generarCuota(t *testing.T) *cuotadomain.Cuota {
	t.Helper()
	cuota, err := e.cuotaSvc.Generar(context.Background(), cuotadomain.CalcularRequest{
		SocioID:     e.socio.ID,
		CategoriaID: e.cat.ID,
		Periodo:     periodo.Periodo{Mes: 3, Anio: 2026},
	}, "admin")
	require.NoError(t, err)
	return cuota
}

func TestPrevisualizar_SinObjetivo(t *testing.T) {
	env := setupPreview(t)

	_, err := env.svc.Previsualizar(context.Background(), domain.PreviewRequest{})
	require.ErrorIs(t, err, domain.ErrPreviewSinObjetivo)
}

func TestPrevisualizar_EsIdempotente(t *testing.T) {
	env := setupPreview(t)
	cuota := env.generarCuota(t)

	req := domain.PreviewRequest{CuotaID: &cuota.ID}
	primero, err := env.svc.Previsualizar(context.Background(), req)
	require.NoError(t, err)
	segundo, err := env.svc.Previsualizar(context.Background(), req)
	require.NoError(t, err)

	a, err := json.Marshal(primero)
	require.NoError(t, err)
	b, err := json.Marshal(segundo)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestPrevisualizar_NoModificaLaCuota(t *testing.T) {
	env := setupPreview(t)
	cuota := env.generarCuota(t)

	antes := cuota.UpdatedAt
	_, err := env.svc.Previsualizar(context.Background(), domain.PreviewRequest{CuotaID: &cuota.ID})
	require.NoError(t, err)

	var almacenada cuotadomain.Cuota
	require.NoError(t, env.db.First(&almacenada, "id = ?", cuota.ID).Error)
	assert.Equal(t, antes.UTC(), almacenada.UpdatedAt.UTC())
	assert.True(t, almacenada.Total.Equal(cuota.Total))
}

func TestPrevisualizar_NoTocaExenciones(t *testing.T) {
	env := setupPreview(t)
	cuota := env.generarCuota(t)

	// Approved, window already open, but reconciliation has not run yet.
	exencion := exenciondomain.Exencion{
		ID:          env.node.Generate(),
		SocioID:     env.socio.ID,
		Tipo:        exenciondomain.TipoParcial,
		Motivo:      exenciondomain.MotivoBeca,
		Porcentaje:  decimal.NewFromInt(50),
		FechaInicio: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Estado:      exenciondomain.EstadoAprobada,
	}
	require.NoError(t, env.db.Create(&exencion).Error)

	resultado, err := env.svc.Previsualizar(context.Background(), domain.PreviewRequest{CuotaID: &cuota.ID})
	require.NoError(t, err)
	assert.True(t, resultado.Total.Equal(decimal.NewFromInt(450)), "total %s", resultado.Total)

	// The preview read must not promote the stored row nor write audit
	// entries for it.
	var almacenada exenciondomain.Exencion
	require.NoError(t, env.db.First(&almacenada, "id = ?", exencion.ID).Error)
	assert.Equal(t, exenciondomain.EstadoAprobada, almacenada.Estado)

	entradas, err := historialrepo.Provide().ListForObjetivo(context.Background(), env.db, historialdomain.ObjetivoExencion, exencion.ID)
	require.NoError(t, err)
	assert.Empty(t, entradas)
}

func TestPrevisualizar_Simulacion(t *testing.T) {
	env := setupPreview(t)

	resultado, err := env.svc.Previsualizar(context.Background(), domain.PreviewRequest{
		Simulacion: &cuotadomain.CalcularRequest{
			SocioID:     env.socio.ID,
			CategoriaID: env.cat.ID,
			Periodo:     periodo.Periodo{Mes: 4, Anio: 2026},
		},
	})
	require.NoError(t, err)
	assert.True(t, resultado.Total.Equal(decimal.NewFromInt(900)))
}

func TestComparar_AjusteExtra(t *testing.T) {
	env := setupPreview(t)
	cuota := env.generarCuota(t)

	comparacion, err := env.svc.Comparar(context.Background(), cuota.ID, domain.Propuesta{
		AjustesExtra: []ajustedomain.Ajuste{{
			ID:       env.node.Generate(),
			SocioID:  env.socio.ID,
			Concepto: "Bonificación puntual",
			Monto:    decimal.NewFromInt(-50),
			Motivo:   "gesto comercial",
			Actor:    "tesoreria",
		}},
	})
	require.NoError(t, err)

	assert.True(t, comparacion.DeltaTotal.Equal(decimal.NewFromInt(-50)), "delta %s", comparacion.DeltaTotal)
	require.Len(t, comparacion.Deltas, 1)
	assert.Equal(t, cuotadomain.ItemAjusteManual, comparacion.Deltas[0].Tipo)
	assert.True(t, comparacion.Antes.Total.Equal(decimal.NewFromInt(900)))
	assert.True(t, comparacion.Despues.Total.Equal(decimal.NewFromInt(850)))
	assert.NotEmpty(t, comparacion.Explicacion)
}

func TestComparar_ExencionPropuesta(t *testing.T) {
	env := setupPreview(t)
	cuota := env.generarCuota(t)

	comparacion, err := env.svc.Comparar(context.Background(), cuota.ID, domain.Propuesta{
		ExencionOverride: &exenciondomain.Exencion{
			ID:          env.node.Generate(),
			SocioID:     env.socio.ID,
			Tipo:        exenciondomain.TipoParcial,
			Motivo:      exenciondomain.MotivoEnfermedad,
			Porcentaje:  decimal.NewFromInt(50),
			FechaInicio: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	assert.True(t, comparacion.DeltaTotal.Equal(decimal.NewFromInt(-450)), "delta %s", comparacion.DeltaTotal)
	assert.True(t, comparacion.Despues.Total.Equal(decimal.NewFromInt(450)))

	// The proposal is never persisted.
	var cantidad int64
	require.NoError(t, env.db.Model(&exenciondomain.Exencion{}).Count(&cantidad).Error)
	assert.Zero(t, cantidad)
}

func TestComparar_CuotaInexistente(t *testing.T) {
	env := setupPreview(t)

	_, err := env.svc.Comparar(context.Background(), env.node.Generate(), domain.Propuesta{})
	require.ErrorIs(t, err, cuotadomain.ErrCuotaNoEncontrada)
}
