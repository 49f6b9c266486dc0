package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	cuotaservice "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/service"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/masivo/domain"
	observabilitymetrics "github.com/fgonzalez-GIT/sigesda-backend/internal/observability/metrics"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/twophase"
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
	CuotaSvc      cuotadomain.Service
	CuotaRepo     cuotadomain.Repository
	AjusteRepo    ajustedomain.Repository
	HistorialRepo historialdomain.Repository
	Metrics       *observabilitymetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	cuotaSvc      cuotadomain.Service
	cuotaRepo     cuotadomain.Repository
	ajusteRepo    ajustedomain.Repository
	historialRepo historialdomain.Repository
	metrics       *observabilitymetrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("masivo.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		cuotaSvc:      p.CuotaSvc,
		cuotaRepo:     p.CuotaRepo,
		ajusteRepo:    p.AjusteRepo,
		historialRepo: p.HistorialRepo,
		metrics:       p.Metrics,
	}
}

// plan carries, per committable row, everything the commit step needs so it
// never recomputes.
type plan struct {
	reporte domain.Reporte
	filas   []filaPreparada
}

type filaPreparada struct {
	cuota     *cuotadomain.Cuota
	resultado cuotadomain.Resultado
	ajuste    ajustedomain.Ajuste
}

// Ejecutar runs the mass pricing operation. A single row's failure is
// collected, never aborting the scan; APPLY persists the success set inside
// one transaction and reports failed rows separately.
func (s *Service) Ejecutar(ctx context.Context, req domain.Request) (domain.Reporte, error) {
	if _, err := twophase.ParseMode(string(req.Modo)); err != nil {
		return domain.Reporte{}, err
	}
	if err := req.Cambio.Validate(); err != nil {
		return domain.Reporte{}, err
	}
	if req.Actor == "" {
		return domain.Reporte{}, domain.ErrActorRequerido
	}

	resultado, err := twophase.Execute(ctx, s.db, req.Modo,
		func(tx *gorm.DB) (plan, error) { return s.simular(ctx, tx, req) },
		func(tx *gorm.DB, p plan) error { return s.confirmar(ctx, tx, req, p) },
	)
	if err != nil {
		return domain.Reporte{}, err
	}

	s.metrics.ObserveLoteMasivo(resultado.reporte.Objetivos)
	s.log.Info("operacion masiva ejecutada",
		zap.String("modo", string(req.Modo)),
		zap.Int("objetivos", resultado.reporte.Objetivos),
		zap.Int("exitosas", resultado.reporte.Exitosas),
		zap.Int("omitidas", resultado.reporte.Omitidas),
		zap.String("delta_total", resultado.reporte.DeltaTotal.String()),
	)
	return resultado.reporte, nil
}

func (s *Service) simular(ctx context.Context, tx *gorm.DB, req domain.Request) (plan, error) {
	objetivos, err := s.cuotaRepo.List(ctx, tx, req.Filtro)
	if err != nil {
		return plan{}, err
	}

	p := plan{reporte: domain.Reporte{Modo: req.Modo, Objetivos: len(objetivos), DeltaTotal: decimal.Zero}}
	for i := range objetivos {
		cuota := objetivos[i]
		fila := s.prepararFila(ctx, tx, &cuota, req)
		p.reporte.Filas = append(p.reporte.Filas, fila.fila)

		if fila.fila.Error != "" {
			p.reporte.Omitidas++
			s.metrics.IncFilaMasivo("omitida")
			continue
		}
		p.reporte.Exitosas++
		p.reporte.DeltaTotal = p.reporte.DeltaTotal.Add(fila.fila.Delta)
		p.filas = append(p.filas, fila.preparada)
		s.metrics.IncFilaMasivo("aplicada")
	}
	return p, nil
}

type filaSimulada struct {
	fila      domain.Fila
	preparada filaPreparada
}

func (s *Service) prepararFila(ctx context.Context, tx *gorm.DB, cuota *cuotadomain.Cuota, req domain.Request) filaSimulada {
	fila := domain.Fila{
		CuotaID:    cuota.ID,
		SocioID:    cuota.SocioID,
		Estado:     cuota.Estado,
		TotalAntes: cuota.Total,
	}

	// A paid due is never modified by a mass operation, regardless of mode.
	if cuota.Estado == cuotadomain.EstadoPagada {
		fila.Error = cuotadomain.ErrCuotaPagadaInmutable.Error()
		fila.TotalDespues = cuota.Total
		fila.Delta = decimal.Zero
		return filaSimulada{fila: fila}
	}

	ajustes, err := s.ajusteRepo.ListForCuota(ctx, tx, cuota.ID)
	if err != nil {
		fila.Error = err.Error()
		return filaSimulada{fila: fila}
	}

	calcReq := cuotaservice.RequestParaCuota(cuota, ajustes)
	antes, err := s.cuotaSvc.Calcular(ctx, calcReq)
	if err != nil {
		fila.Error = errorCodigo(err)
		return filaSimulada{fila: fila}
	}

	ajuste := s.construirAjuste(cuota, antes.Total, req)
	calcReq.Ajustes = append(calcReq.Ajustes, ajuste)

	despues, err := s.cuotaSvc.Calcular(ctx, calcReq)
	if err != nil {
		fila.Error = errorCodigo(err)
		return filaSimulada{fila: fila}
	}

	fila.TotalAntes = antes.Total
	fila.TotalDespues = despues.Total
	fila.Delta = despues.Total.Sub(antes.Total)
	fila.Advertencias = despues.Advertencias

	return filaSimulada{
		fila: fila,
		preparada: filaPreparada{
			cuota:     cuota,
			resultado: despues,
			ajuste:    ajuste,
		},
	}
}

// construirAjuste materializes the batch change as one manual adjustment.
// A percentage change is taken over the row's recomputed current total.
func (s *Service) construirAjuste(cuota *cuotadomain.Cuota, totalActual decimal.Decimal, req domain.Request) ajustedomain.Ajuste {
	var monto decimal.Decimal
	if req.Cambio.DescuentoPorcentaje != nil {
		monto = totalActual.Mul(*req.Cambio.DescuentoPorcentaje).Div(decimal.NewFromInt(100)).Round(2).Neg()
	} else {
		monto = req.Cambio.MontoFijo.Round(2).Neg()
	}
	cuotaID := cuota.ID
	return ajustedomain.Ajuste{
		ID:        s.genID.Generate(),
		SocioID:   cuota.SocioID,
		CuotaID:   &cuotaID,
		Concepto:  req.Cambio.Concepto,
		Monto:     monto,
		Motivo:    req.Cambio.Motivo,
		Actor:     req.Actor,
		CreatedAt: s.clock.Now(),
	}
}

// confirmar persists every prepared row. Any store error here is hard: the
// whole batch transaction rolls back.
func (s *Service) confirmar(ctx context.Context, tx *gorm.DB, req domain.Request, p plan) error {
	now := s.clock.Now()
	for _, preparada := range p.filas {
		if err := s.ajusteRepo.Insert(ctx, tx, &preparada.ajuste); err != nil {
			return err
		}

		cuota := preparada.cuota
		cuota.Total = preparada.resultado.Total
		cuota.Items = nil
		for _, item := range preparada.resultado.Items {
			item.ID = s.genID.Generate()
			item.CuotaID = cuota.ID
			item.CreatedAt = now
			cuota.Items = append(cuota.Items, item)
		}
		cuota.UpdatedAt = now
		if err := s.cuotaRepo.SaveWithItems(ctx, tx, cuota); err != nil {
			return err
		}

		if err := s.historialRepo.Insert(ctx, tx, &historialdomain.Entrada{
			ID:           s.genID.Generate(),
			TipoObjetivo: historialdomain.ObjetivoCuota,
			ObjetivoID:   cuota.ID,
			Accion:       historialdomain.AccionCuotaRecalculada,
			Actor:        req.Actor,
			Motivo:       req.Cambio.Motivo,
			AjusteID:     &preparada.ajuste.ID,
			Metadata: datatypes.JSONMap{
				"concepto":    req.Cambio.Concepto,
				"total_nuevo": cuota.Total.String(),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}

// errorCodigo surfaces the sentinel code for known domain failures and the
// raw message otherwise.
func errorCodigo(err error) string {
	for _, sentinel := range []error{
		cuotadomain.ErrCategoriaInvalida,
		cuotadomain.ErrOverflowCalculo,
		cuotadomain.ErrIntegridadCuota,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
