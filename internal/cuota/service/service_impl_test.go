package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	categoriadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	categoriarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/repository"
	categoriaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/service"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/config"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	cuotarepo "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/repository"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	exencionrepo "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/repository"
	exencionservice "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/service"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	historialrepo "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/repository"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/migration"
	regladomain "github.com/fgonzalez-GIT/sigesda-backend/internal/regla/domain"
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

type pipelineEnv struct {
	db        *gorm.DB
	svc       domain.Service
	node      *snowflake.Node
	clk       *clock.FakeClock
	socio     sociodomain.Socio
	categoria categoriadomain.Categoria
}

func setupPipeline(t *testing.T, pricing config.PricingConfig) *pipelineEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.RunMigrations(db))

	log := zaptest.NewLogger(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	holder := config.NewStaticPricingConfigHolder(pricing)
	histRepo := historialrepo.Provide()

	catSvc := categoriaservice.NewService(categoriaservice.ServiceParam{
		DB: db, Log: log, Repo: categoriarepo.Provide(),
	})
	engine := reglaservice.NewEngine(reglaservice.EngineParam{
		DB: db, Log: log, Repo: reglarepo.Provide(), PricingCfg: holder,
	})
	exSvc := exencionservice.NewService(exencionservice.ServiceParam{
		DB: db, Log: log, Clock: clk, GenID: node,
		Repo: exencionrepo.Provide(), HistorialRepo: histRepo,
	})
	svc := NewService(ServiceParam{
		DB: db, Log: log, Clock: clk, GenID: node,
		Repo: cuotarepo.Provide(), SocioRepo: sociorepo.Provide(),
		CategoriaSvc: catSvc, ReglaEngine: engine, ExencionSvc: exSvc,
		HistorialRepo: histRepo, PricingCfg: holder,
	})

	categoria := categoriadomain.Categoria{
		ID:                  node.Generate(),
		Codigo:              "ACTIVO",
		Nombre:              "Socio activo",
		MontoBase:           decimal.NewFromInt(1000),
		DescuentoPorcentaje: decimal.NewFromInt(10),
		Activa:              true,
	}
	require.NoError(t, db.Create(&categoria).Error)

	nacimiento := time.Date(1980, 5, 2, 0, 0, 0, 0, time.UTC)
	socio := sociodomain.Socio{
		ID:              node.Generate(),
		Nombre:          "Marta",
		Apellido:        "Giménez",
		FechaNacimiento: &nacimiento,
		FechaAlta:       time.Date(2010, 1, 15, 0, 0, 0, 0, time.UTC),
		CategoriaID:     categoria.ID,
		Activo:          true,
	}
	require.NoError(t, db.Create(&socio).Error)

	return &pipelineEnv{db: db, svc: svc, node: node, clk: clk, socio: socio, categoria: categoria}
}

func defaultPricing() config.PricingConfig {
	return config.PricingConfig{TopeDescuentoPorcentaje: 100, TechoCalculo: 10_000_000}
}

func (e *pipelineEnv) request() domain.CalcularRequest {
	return domain.CalcularRequest{
		SocioID:     e.socio.ID,
		CategoriaID: e.categoria.ID,
		Periodo:     periodo.Periodo{Mes: 3, Anio: 2026},
	}
}

func (e *pipelineEnv) crearExencionVigente(t *testing.T, tipo string, porcentaje int64) exenciondomain.Exencion {
	t.Helper()
	exencion := exenciondomain.Exencion{
		ID:          e.node.Generate(),
		SocioID:     e.socio.ID,
		Tipo:        tipo,
		Motivo:      exenciondomain.MotivoDificultadEconomica,
		Porcentaje:  decimal.NewFromInt(porcentaje),
		FechaInicio: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Estado:      exenciondomain.EstadoVigente,
	}
	require.NoError(t, e.db.Create(&exencion).Error)
	return exencion
}

func TestCalcular_BaseConDescuentoCategoria(t *testing.T) {
	env := setupPipeline(t, defaultPricing())

	resultado, err := env.svc.Calcular(context.Background(), env.request())
	require.NoError(t, err)

	assert.True(t, resultado.Total.Equal(decimal.NewFromInt(900)), "total %s", resultado.Total)
	require.Len(t, resultado.Items, 2)
	assert.Equal(t, domain.ItemBase, resultado.Items[0].Tipo)
	assert.True(t, resultado.Items[0].Monto.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, domain.ItemDescuentoCategoria, resultado.Items[1].Tipo)
	assert.True(t, resultado.Items[1].Monto.Equal(decimal.NewFromInt(-100)))
	assert.True(t, domain.SumaItems(resultado.Items).Equal(resultado.Total))
	assert.Empty(t, resultado.Advertencias)
}

func TestCalcular_Deterministico(t *testing.T) {
	env := setupPipeline(t, defaultPricing())

	primero, err := env.svc.Calcular(context.Background(), env.request())
	require.NoError(t, err)
	segundo, err := env.svc.Calcular(context.Background(), env.request())
	require.NoError(t, err)

	require.Len(t, segundo.Items, len(primero.Items))
	for i := range primero.Items {
		assert.Equal(t, primero.Items[i].Tipo, segundo.Items[i].Tipo)
		assert.Equal(t, primero.Items[i].Concepto, segundo.Items[i].Concepto)
		assert.True(t, primero.Items[i].Monto.Equal(segundo.Items[i].Monto))
	}
	assert.True(t, primero.Total.Equal(segundo.Total))
}

func TestCalcular_ExencionParcial(t *testing.T) {
	env := setupPipeline(t, defaultPricing())
	env.crearExencionVigente(t, exenciondomain.TipoParcial, 50)

	resultado, err := env.svc.Calcular(context.Background(), env.request())
	require.NoError(t, err)

	// 1000 - 100 category discount = 900, then 50% exemption of the running
	// total = 450.
	assert.True(t, resultado.Total.Equal(decimal.NewFromInt(450)), "total %s", resultado.Total)
	exencionItem := resultado.Items[len(resultado.Items)-1]
	assert.Equal(t, domain.ItemExencion, exencionItem.Tipo)
	assert.True(t, exencionItem.Monto.Equal(decimal.NewFromInt(-450)))
	assert.True(t, domain.SumaItems(resultado.Items).Equal(resultado.Total))
}

func TestCalcular_ExencionTotal(t *testing.T) {
	env := setupPipeline(t, defaultPricing())
	env.crearExencionVigente(t, exenciondomain.TipoTotal, 100)

	resultado, err := env.svc.Calcular(context.Background(), env.request())
	require.NoError(t, err)

	assert.True(t, resultado.Total.IsZero(), "total %s", resultado.Total)
	assert.True(t, domain.SumaItems(resultado.Items).Equal(resultado.Total))
}

func TestCalcular_MultiplesExencionesVigentes(t *testing.T) {
	env := setupPipeline(t, defaultPricing())
	env.crearExencionVigente(t, exenciondomain.TipoParcial, 30)
	ganadora := env.crearExencionVigente(t, exenciondomain.TipoParcial, 60)

	resultado, err := env.svc.Calcular(context.Background(), env.request())
	require.NoError(t, err)

	// The highest percentage wins: 900 * 60% = 540 off.
	assert.True(t, resultado.Total.Equal(decimal.NewFromInt(360)), "total %s", resultado.Total)
	assert.Contains(t, resultado.Advertencias, exencionservice.AdvertenciaMultiplesVigentes)

	exencionItem := resultado.Items[len(resultado.Items)-1]
	assert.Equal(t, ganadora.ID.String(), exencionItem.Metadata["exencion_id"])
}

func TestCalcular_AjusteManualVerbatim(t *testing.T) {
	env := setupPipeline(t, defaultPricing())

	req := env.request()
	req.Ajustes = []ajustedomain.Ajuste{{
		ID:       env.node.Generate(),
		SocioID:  env.socio.ID,
		Concepto: "Recargo por mora",
		Monto:    decimal.NewFromInt(100),
		Motivo:   "pago fuera de término",
		Actor:    "tesoreria",
	}}

	resultado, err := env.svc.Calcular(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resultado.Total.Equal(decimal.NewFromInt(1000)), "total %s", resultado.Total)
	assert.Equal(t, domain.ItemAjusteManual, resultado.Items[2].Tipo)
}

func TestCalcular_PisoCero(t *testing.T) {
	env := setupPipeline(t, defaultPricing())

	req := env.request()
	req.Ajustes = []ajustedomain.Ajuste{{
		ID:       env.node.Generate(),
		SocioID:  env.socio.ID,
		Concepto: "Crédito extraordinario",
		Monto:    decimal.NewFromInt(-2000),
		Motivo:   "compensación",
		Actor:    "tesoreria",
	}}

	resultado, err := env.svc.Calcular(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resultado.Total.IsZero(), "total %s", resultado.Total)
	ultimo := resultado.Items[len(resultado.Items)-1]
	assert.Equal(t, domain.ItemAjusteMinimo, ultimo.Tipo)
	// 900 - 2000 = -1100, so the floor item adds 1100 back.
	assert.True(t, ultimo.Monto.Equal(decimal.NewFromInt(1100)))
	assert.True(t, domain.SumaItems(resultado.Items).Equal(resultado.Total))
}

func TestCalcular_Overflow(t *testing.T) {
	env := setupPipeline(t, config.PricingConfig{TopeDescuentoPorcentaje: 100, TechoCalculo: 500})

	_, err := env.svc.Calcular(context.Background(), env.request())
	require.ErrorIs(t, err, domain.ErrOverflowCalculo)
}

func TestCalcular_ReglaPorcentajeSobreBase(t *testing.T) {
	env := setupPipeline(t, defaultPricing())

	regla := regladomain.ReglaDescuento{
		ID:         env.node.Generate(),
		Codigo:     "ANTIGUEDAD_10",
		Nombre:     "Descuento por antigüedad",
		Prioridad:  10,
		Activa:     true,
		TipoEfecto: regladomain.EfectoPorcentaje,
		Valor:      decimal.NewFromInt(20),
	}
	require.NoError(t, env.db.Create(&regla).Error)

	resultado, err := env.svc.Calcular(context.Background(), env.request())
	require.NoError(t, err)

	// The rule discounts 20% of the ORIGINAL base (200), not of the running
	// total: 1000 - 100 - 200 = 700.
	assert.True(t, resultado.Total.Equal(decimal.NewFromInt(700)), "total %s", resultado.Total)
	assert.Equal(t, domain.ItemDescuentoRegla, resultado.Items[2].Tipo)
	assert.True(t, resultado.Items[2].Monto.Equal(decimal.NewFromInt(-200)))
}

func TestCalcular_SocioInexistente(t *testing.T) {
	env := setupPipeline(t, defaultPricing())

	req := env.request()
	req.SocioID = env.node.Generate()

	_, err := env.svc.Calcular(context.Background(), req)
	require.ErrorIs(t, err, sociodomain.ErrSocioNoEncontrado)
}

func TestGenerar_PersisteCuotaConHistorial(t *testing.T) {
	env := setupPipeline(t, defaultPricing())

	cuota, err := env.svc.Generar(context.Background(), env.request(), "admin")
	require.NoError(t, err)
	require.NotNil(t, cuota)
	assert.Equal(t, domain.EstadoPendiente, cuota.Estado)

	almacenada, err := env.svc.GetByID(context.Background(), cuota.ID)
	require.NoError(t, err)
	assert.True(t, almacenada.Total.Equal(decimal.NewFromInt(900)))
	require.Len(t, almacenada.Items, 2)

	entradas, err := historialrepo.Provide().ListForObjetivo(context.Background(), env.db, historialdomain.ObjetivoCuota, cuota.ID)
	require.NoError(t, err)
	require.Len(t, entradas, 1)
	assert.Equal(t, historialdomain.AccionCuotaGenerada, entradas[0].Accion)
	assert.Equal(t, "admin", entradas[0].Actor)
}
