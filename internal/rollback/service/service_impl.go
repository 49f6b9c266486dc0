package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	observabilitymetrics "github.com/fgonzalez-GIT/sigesda-backend/internal/observability/metrics"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/twophase"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
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
	CuotaRepo     cuotadomain.Repository
	BackupRepo    domain.BackupRepository
	HistorialRepo historialdomain.Repository
	Metrics       *observabilitymetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	cuotaRepo     cuotadomain.Repository
	backupRepo    domain.BackupRepository
	historialRepo historialdomain.Repository
	metrics       *observabilitymetrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("rollback.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		cuotaRepo:     p.CuotaRepo,
		backupRepo:    p.BackupRepo,
		historialRepo: p.HistorialRepo,
		metrics:       p.Metrics,
	}
}

// Validar checks whether a period can be rolled back without force. Any
// paid due in the period blocks it.
func (s *Service) Validar(ctx context.Context, p periodo.Periodo) (domain.Validacion, error) {
	if err := p.Validate(); err != nil {
		return domain.Validacion{}, err
	}

	cuotas, err := s.cuotaRepo.List(ctx, s.db, cuotadomain.Filtro{
		PeriodoMes:  &p.Mes,
		PeriodoAnio: &p.Anio,
	})
	if err != nil {
		return domain.Validacion{}, err
	}

	validacion := domain.Validacion{Elegible: true, Objetivos: len(cuotas)}
	for _, cuota := range cuotas {
		if cuota.Estado == cuotadomain.EstadoPagada {
			validacion.Elegible = false
			validacion.Bloqueos = append(validacion.Bloqueos, domain.BloqueoCuotaPagada)
			break
		}
	}
	return validacion, nil
}

// Ejecutar reverses the targeted dues. PREVIEW reports exactly what APPLY
// would destroy; APPLY runs inside one transaction and writes one history
// entry per destructive action. An empty target set is a no-op result.
func (s *Service) Ejecutar(ctx context.Context, req domain.Request) (domain.Reporte, error) {
	if _, err := twophase.ParseMode(string(req.Modo)); err != nil {
		return domain.Reporte{}, err
	}
	if err := req.Target.Validate(); err != nil {
		return domain.Reporte{}, err
	}
	// Deleting paid rows is only reachable through the explicit force flag.
	if req.Opciones.EliminarPagadas && !req.Opciones.Force {
		return domain.Reporte{}, domain.ErrRollbackBloqueado
	}

	batchID := s.genID.Generate()
	reporte, err := twophase.Execute(ctx, s.db, req.Modo,
		func(tx *gorm.DB) (domain.Reporte, error) { return s.simular(ctx, tx, req, batchID) },
		func(tx *gorm.DB, plan domain.Reporte) error { return s.confirmar(ctx, tx, req, plan) },
	)
	if err != nil {
		return domain.Reporte{}, err
	}

	s.log.Info("rollback ejecutado",
		zap.String("modo", string(req.Modo)),
		zap.String("batch_id", batchID.String()),
		zap.Int("objetivos", reporte.Objetivos),
		zap.Int("eliminadas", reporte.Eliminadas),
		zap.Int("omitidas", reporte.Omitidas),
	)
	return reporte, nil
}

func (s *Service) simular(ctx context.Context, tx *gorm.DB, req domain.Request, batchID snowflake.ID) (domain.Reporte, error) {
	cuotas, err := s.objetivos(ctx, tx, req.Target)
	if err != nil {
		return domain.Reporte{}, err
	}

	reporte := domain.Reporte{Modo: req.Modo, BatchID: batchID, Objetivos: len(cuotas)}
	for _, cuota := range cuotas {
		accion := domain.Accion{
			CuotaID: cuota.ID,
			SocioID: cuota.SocioID,
			Estado:  cuota.Estado,
			Total:   cuota.Total,
		}

		switch {
		case cuota.Estado == cuotadomain.EstadoPagada && req.Opciones.EliminarPagadas && req.Opciones.Force:
			accion.Forzada = true
			reporte.Eliminadas++
		case cuota.Estado == cuotadomain.EstadoPagada:
			accion.Omitida = domain.OmitidaPagadaSinForce
			reporte.Omitidas++
		case req.Opciones.EliminarPendientes:
			reporte.Eliminadas++
		default:
			accion.Omitida = domain.OmitidaPendienteConservada
			reporte.Omitidas++
		}
		reporte.Acciones = append(reporte.Acciones, accion)
	}
	if req.Opciones.CrearBackup {
		reporte.Respaldos = reporte.Eliminadas
	}
	return reporte, nil
}

func (s *Service) confirmar(ctx context.Context, tx *gorm.DB, req domain.Request, plan domain.Reporte) error {
	now := s.clock.Now()
	for _, accion := range plan.Acciones {
		if accion.Omitida != "" {
			s.metrics.IncRollbackAccion("omitida")
			continue
		}

		cuota, err := s.cuotaRepo.FindByID(ctx, tx, accion.CuotaID)
		if err != nil {
			return err
		}

		if req.Opciones.CrearBackup {
			snapshot, err := json.Marshal(cuota)
			if err != nil {
				return err
			}
			if err := s.backupRepo.Insert(ctx, tx, &domain.CuotaBackup{
				ID:        s.genID.Generate(),
				BatchID:   plan.BatchID,
				CuotaID:   cuota.ID,
				Snapshot:  snapshot,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		if err := s.cuotaRepo.DeleteWithItems(ctx, tx, cuota.ID); err != nil {
			return err
		}

		historialAccion := historialdomain.AccionCuotaEliminada
		if accion.Forzada {
			historialAccion = historialdomain.AccionCuotaRevertida
		}
		if err := s.historialRepo.Insert(ctx, tx, &historialdomain.Entrada{
			ID:           s.genID.Generate(),
			TipoObjetivo: historialdomain.ObjetivoCuota,
			ObjetivoID:   cuota.ID,
			Accion:       historialAccion,
			Actor:        req.Actor,
			Metadata: datatypes.JSONMap{
				"batch_id": plan.BatchID.String(),
				"periodo":  cuota.Periodo().String(),
				"total":    cuota.Total.String(),
				"forzada":  accion.Forzada,
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}
		s.metrics.IncRollbackAccion("eliminada")
	}
	return nil
}

func (s *Service) objetivos(ctx context.Context, tx *gorm.DB, target domain.Target) ([]cuotadomain.Cuota, error) {
	if target.CuotaID != nil {
		cuota, err := s.cuotaRepo.FindByID(ctx, tx, *target.CuotaID)
		if err != nil {
			return nil, err
		}
		return []cuotadomain.Cuota{*cuota}, nil
	}
	return s.cuotaRepo.List(ctx, tx, cuotadomain.Filtro{
		PeriodoMes:  &target.Periodo.Mes,
		PeriodoAnio: &target.Periodo.Anio,
	})
}
