package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	categoriadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/config"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	observabilitymetrics "github.com/fgonzalez-GIT/sigesda-backend/internal/observability/metrics"
	regladomain "github.com/fgonzalez-GIT/sigesda-backend/internal/regla/domain"
	sociodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Repo          domain.Repository
	SocioRepo     sociodomain.Repository
	CategoriaSvc  categoriadomain.Service
	ReglaEngine   regladomain.Engine
	ExencionSvc   exenciondomain.Service
	HistorialRepo historialdomain.Repository
	PricingCfg    *config.PricingConfigHolder
	Metrics       *observabilitymetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	repo          domain.Repository
	socioRepo     sociodomain.Repository
	categoriaSvc  categoriadomain.Service
	reglaEngine   regladomain.Engine
	exencionSvc   exenciondomain.Service
	historialRepo historialdomain.Repository
	pricingCfg    *config.PricingConfigHolder
	metrics       *observabilitymetrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("cuota.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		repo:          p.Repo,
		socioRepo:     p.SocioRepo,
		categoriaSvc:  p.CategoriaSvc,
		reglaEngine:   p.ReglaEngine,
		exencionSvc:   p.ExencionSvc,
		historialRepo: p.HistorialRepo,
		pricingCfg:    p.PricingCfg,
		metrics:       p.Metrics,
	}
}

var cien = decimal.NewFromInt(100)

// Calcular runs the computation pipeline. The step order is the core
// business rule and must not change:
//
//	1. base rate      2. category discount   3. automatic rules
//	4. manual adjustments                    5. vigente exemption
//	6. zero floor     7. assemble and verify sum(items) == total
//
// It reads reference data but never writes.
func (s *Service) Calcular(ctx context.Context, req domain.CalcularRequest) (domain.Resultado, error) {
	resultado, err := s.calcular(ctx, req)
	if err != nil {
		s.metrics.IncComputoCuota("error")
		return domain.Resultado{}, err
	}
	s.metrics.IncComputoCuota("ok")
	return resultado, nil
}

func (s *Service) calcular(ctx context.Context, req domain.CalcularRequest) (domain.Resultado, error) {
	if err := req.Validate(); err != nil {
		return domain.Resultado{}, err
	}

	socio, err := s.socioRepo.FindByID(ctx, s.db, req.SocioID)
	if err != nil {
		return domain.Resultado{}, err
	}

	// Step 1: base rate.
	tarifa, err := s.categoriaSvc.ResolverTarifa(ctx, req.CategoriaID, req.Periodo)
	if err != nil {
		return domain.Resultado{}, err
	}

	var (
		items        []domain.CuotaItem
		advertencias []string
		orden        int
	)
	agregar := func(item domain.CuotaItem) {
		item.Orden = orden
		orden++
		items = append(items, item)
	}

	base := tarifa.MontoBase.Round(2)
	agregar(domain.CuotaItem{
		Tipo:     domain.ItemBase,
		Concepto: fmt.Sprintf("Cuota %s categoría %s", req.Periodo, tarifa.Codigo),
		Monto:    base,
	})
	total := base

	// Step 2: baseline category discount, a percentage of BASE.
	descuentoCategoria := decimal.Zero
	if tarifa.DescuentoPorcentaje.Sign() > 0 {
		descuentoCategoria = base.Mul(tarifa.DescuentoPorcentaje).Div(cien).Round(2)
		pct := tarifa.DescuentoPorcentaje
		agregar(domain.CuotaItem{
			Tipo:       domain.ItemDescuentoCategoria,
			Concepto:   fmt.Sprintf("Descuento categoría %s", tarifa.Codigo),
			Monto:      descuentoCategoria.Neg(),
			Porcentaje: &pct,
		})
		total = total.Sub(descuentoCategoria)
	}

	// Step 3: automatic rules, each against the original base, clamped to
	// the combined ceiling.
	evaluacion, err := s.reglaEngine.Evaluar(ctx, regladomain.Contexto{
		Socio:              *socio,
		CategoriaCodigo:    tarifa.Codigo,
		Periodo:            req.Periodo,
		MontoBase:          base,
		DescuentoCategoria: descuentoCategoria,
		Ahora:              s.clock.Now(),
	})
	if err != nil {
		return domain.Resultado{}, err
	}
	advertencias = append(advertencias, evaluacion.Advertencias...)
	for _, descuento := range evaluacion.Descuentos {
		item := domain.CuotaItem{
			Tipo:     domain.ItemDescuentoRegla,
			Concepto: descuento.Regla.Nombre,
			Monto:    descuento.Monto.Neg(),
			Metadata: datatypes.JSONMap{
				"regla_id":     descuento.Regla.ID.String(),
				"regla_codigo": descuento.Regla.Codigo,
			},
		}
		if descuento.Regla.TipoEfecto == regladomain.EfectoPorcentaje {
			valor := descuento.Regla.Valor
			item.Porcentaje = &valor
		}
		agregar(item)
		total = total.Sub(descuento.Monto)
	}

	// Step 4: manual adjustments, verbatim and never clamped.
	for _, ajuste := range req.Ajustes {
		monto := ajuste.Monto.Round(2)
		agregar(domain.CuotaItem{
			Tipo:     domain.ItemAjusteManual,
			Concepto: ajuste.Concepto,
			Monto:    monto,
			Metadata: datatypes.JSONMap{
				"ajuste_id": ajuste.ID.String(),
				"actor":     ajuste.Actor,
			},
		})
		total = total.Add(monto)
	}

	// Step 5: the single vigente exemption for the member and period.
	var exencion *exenciondomain.Exencion
	if req.ExencionOverride != nil {
		if err := req.ExencionOverride.Validate(); err != nil {
			return domain.Resultado{}, err
		}
		exencion = req.ExencionOverride
	} else {
		vigente, advertenciasExencion, err := s.exencionSvc.VigenteParaPeriodo(ctx, req.SocioID, req.Periodo)
		if err != nil {
			return domain.Resultado{}, err
		}
		advertencias = append(advertencias, advertenciasExencion...)
		exencion = vigente
	}
	if exencion != nil {
		var montoExencion decimal.Decimal
		if exencion.Tipo == exenciondomain.TipoTotal {
			montoExencion = total
		} else {
			montoExencion = total.Mul(exencion.Porcentaje).Div(cien).Round(2)
		}
		pct := exencion.Porcentaje
		agregar(domain.CuotaItem{
			Tipo:       domain.ItemExencion,
			Concepto:   fmt.Sprintf("Exención %s (%s)", exencion.Tipo, exencion.Motivo),
			Monto:      montoExencion.Neg(),
			Porcentaje: &pct,
			Metadata: datatypes.JSONMap{
				"exencion_id": exencion.ID.String(),
				"motivo":      exencion.Motivo,
			},
		})
		total = total.Sub(montoExencion)
	}

	// Step 6: a due can never be negative. The remainder is zeroed out with
	// an informational item rather than silently dropped.
	if total.Sign() < 0 {
		agregar(domain.CuotaItem{
			Tipo:     domain.ItemAjusteMinimo,
			Concepto: "Ajuste a importe mínimo",
			Monto:    total.Neg(),
		})
		total = decimal.Zero
	}

	if total.GreaterThan(s.pricingCfg.Current().Techo()) {
		return domain.Resultado{}, domain.ErrOverflowCalculo
	}

	// Step 7: the itemization must account for the total exactly.
	if !domain.SumaItems(items).Equal(total) {
		s.log.Error("suma de items no coincide con el total",
			zap.String("socio_id", req.SocioID.String()),
			zap.String("periodo", req.Periodo.String()),
			zap.String("total", total.String()),
			zap.String("suma", domain.SumaItems(items).String()),
		)
		return domain.Resultado{}, domain.ErrIntegridadCuota
	}

	return domain.Resultado{
		SocioID:         req.SocioID,
		CategoriaID:     tarifa.CategoriaID,
		CategoriaCodigo: tarifa.Codigo,
		Periodo:         req.Periodo,
		Items:           items,
		Total:           total,
		Advertencias:    advertencias,
	}, nil
}

// Generar materializes a computation as a new persisted due with its audit
// entry, inside one transaction.
func (s *Service) Generar(ctx context.Context, req domain.CalcularRequest, actor string) (*domain.Cuota, error) {
	resultado, err := s.Calcular(ctx, req)
	if err != nil {
		return nil, err
	}

	cuota := s.Materializar(resultado, domain.EstadoPendiente)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.SaveWithItems(ctx, tx, cuota); err != nil {
			return err
		}
		return s.historialRepo.Insert(ctx, tx, &historialdomain.Entrada{
			ID:           s.genID.Generate(),
			TipoObjetivo: historialdomain.ObjetivoCuota,
			ObjetivoID:   cuota.ID,
			Accion:       historialdomain.AccionCuotaGenerada,
			Actor:        actor,
			Metadata: datatypes.JSONMap{
				"periodo": resultado.Periodo.String(),
				"total":   resultado.Total.String(),
			},
			CreatedAt: s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("cuota generada",
		zap.String("cuota_id", cuota.ID.String()),
		zap.String("socio_id", cuota.SocioID.String()),
		zap.String("total", cuota.Total.String()),
	)
	return cuota, nil
}

// Materializar turns a computation result into a persistable due, assigning
// IDs to the due and its items.
func (s *Service) Materializar(resultado domain.Resultado, estado string) *domain.Cuota {
	now := s.clock.Now()
	cuota := &domain.Cuota{
		ID:              s.genID.Generate(),
		SocioID:         resultado.SocioID,
		PeriodoMes:      resultado.Periodo.Mes,
		PeriodoAnio:     resultado.Periodo.Anio,
		CategoriaID:     resultado.CategoriaID,
		CategoriaCodigo: resultado.CategoriaCodigo,
		Estado:          estado,
		Total:           resultado.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range resultado.Items {
		item.ID = s.genID.Generate()
		item.CuotaID = cuota.ID
		item.CreatedAt = now
		cuota.Items = append(cuota.Items, item)
	}
	return cuota
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Cuota, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, filtro domain.Filtro) ([]domain.Cuota, error) {
	return s.repo.List(ctx, s.db, filtro)
}

// RequestParaCuota rebuilds the computation request of an existing due from
// its stored inputs, used by preview and mass recomputation.
func RequestParaCuota(cuota *domain.Cuota, ajustes []ajustedomain.Ajuste) domain.CalcularRequest {
	return domain.CalcularRequest{
		SocioID:     cuota.SocioID,
		CategoriaID: cuota.CategoriaID,
		Periodo:     cuota.Periodo(),
		Ajustes:     ajustes,
	}
}
