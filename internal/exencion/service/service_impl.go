package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdvertenciaMultiplesVigentes is reported when more than one VIGENTE
// exemption covers the same member and period.
const AdvertenciaMultiplesVigentes = "multiples_exenciones_vigentes"

// actorSistema labels history entries produced by reconciliation rather than
// an operator action.
const actorSistema = "sistema"

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Repo          domain.Repository
	HistorialRepo historialdomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	repo          domain.Repository
	historialRepo historialdomain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("exencion.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		repo:          p.Repo,
		historialRepo: p.HistorialRepo,
	}
}

// Crear validates the exemption and persists it in PENDIENTE_APROBACION.
// Validation failures reject the request before anything is written.
func (s *Service) Crear(ctx context.Context, exencion domain.Exencion, actor string) (*domain.Exencion, error) {
	if err := exencion.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	exencion.ID = s.genID.Generate()
	exencion.Estado = domain.EstadoPendienteAprobacion
	exencion.Porcentaje = exencion.Porcentaje.Round(2)
	exencion.CreatedAt = now
	exencion.UpdatedAt = now

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &exencion); err != nil {
			return err
		}
		return s.registrarHistorial(ctx, tx, &exencion, historialdomain.AccionExencionCreada, actor, exencion.Justificacion)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("exencion creada",
		zap.String("exencion_id", exencion.ID.String()),
		zap.String("socio_id", exencion.SocioID.String()),
		zap.String("tipo", exencion.Tipo),
	)
	return &exencion, nil
}

// Aprobar moves PENDIENTE_APROBACION to APROBADA. When the validity window
// has already opened, the stored state is promoted straight to VIGENTE so
// pricing within the same request observes it.
func (s *Service) Aprobar(ctx context.Context, id snowflake.ID, aprobador string) (*domain.Exencion, error) {
	if strings.TrimSpace(aprobador) == "" {
		return nil, domain.ErrAprobadorRequerido
	}

	var aprobada *domain.Exencion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exencion, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if exencion.Estado != domain.EstadoPendienteAprobacion {
			return domain.ErrTransicionInvalida
		}

		now := s.clock.Now()
		exencion.Estado = domain.EstadoAprobada
		exencion.ResueltaPor = &aprobador
		exencion.ResueltaAt = &now
		exencion.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, exencion); err != nil {
			return err
		}
		if err := s.registrarHistorial(ctx, tx, exencion, historialdomain.AccionExencionAprobada, aprobador, ""); err != nil {
			return err
		}

		if !exencion.FechaInicio.After(now) {
			if err := s.promover(ctx, tx, exencion, now); err != nil {
				return err
			}
		}
		aprobada = exencion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return aprobada, nil
}

// Rechazar is terminal: a rejected exemption never re-enters the pipeline.
func (s *Service) Rechazar(ctx context.Context, id snowflake.ID, actor, motivo string) (*domain.Exencion, error) {
	if strings.TrimSpace(motivo) == "" {
		return nil, domain.ErrMotivoResolucionFaltante
	}
	return s.resolver(ctx, id, actor, motivo, domain.EstadoPendienteAprobacion, domain.EstadoRechazada, historialdomain.AccionExencionRechazada)
}

// Revocar cancels a VIGENTE exemption.
func (s *Service) Revocar(ctx context.Context, id snowflake.ID, actor, motivo string) (*domain.Exencion, error) {
	if strings.TrimSpace(motivo) == "" {
		return nil, domain.ErrMotivoResolucionFaltante
	}
	return s.resolver(ctx, id, actor, motivo, domain.EstadoVigente, domain.EstadoRevocada, historialdomain.AccionExencionRevocada)
}

func (s *Service) resolver(ctx context.Context, id snowflake.ID, actor, motivo, desde, hasta, accion string) (*domain.Exencion, error) {
	var resuelta *domain.Exencion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exencion, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if exencion.Estado != desde {
			return domain.ErrTransicionInvalida
		}

		now := s.clock.Now()
		exencion.Estado = hasta
		exencion.ResueltaPor = &actor
		exencion.ResueltaAt = &now
		exencion.MotivoResolucion = &motivo
		exencion.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, exencion); err != nil {
			return err
		}
		if err := s.registrarHistorial(ctx, tx, exencion, accion, actor, motivo); err != nil {
			return err
		}
		resuelta = exencion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resuelta, nil
}

// Reconciliar refreshes stored states against the clock.
func (s *Service) Reconciliar(ctx context.Context) (int, error) {
	now := s.clock.Now()
	transiciones := 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidatas, err := s.repo.ListByEstado(ctx, tx, domain.EstadoAprobada, domain.EstadoVigente)
		if err != nil {
			return err
		}

		for i := range candidatas {
			exencion := &candidatas[i]
			switch exencion.Estado {
			case domain.EstadoAprobada:
				if exencion.FechaInicio.After(now) {
					continue
				}
				if err := s.promover(ctx, tx, exencion, now); err != nil {
					return err
				}
				transiciones++
				// A window already closed at promotion time expires in the
				// same pass.
				if exencion.FechaFin != nil && now.After(*exencion.FechaFin) {
					if err := s.vencer(ctx, tx, exencion, now); err != nil {
						return err
					}
					transiciones++
				}
			case domain.EstadoVigente:
				if exencion.FechaFin == nil || !now.After(*exencion.FechaFin) {
					continue
				}
				if err := s.vencer(ctx, tx, exencion, now); err != nil {
					return err
				}
				transiciones++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if transiciones > 0 {
		s.log.Info("exenciones reconciliadas", zap.Int("transiciones", transiciones))
	}
	return transiciones, nil
}

// VigenteParaPeriodo resolves the single exemption pricing applies for the
// member and period. Pure read: effective visibility is computed against the
// clock, so a stale APROBADA row is never missed and nothing is written.
// Stored states catch up through the explicit Reconciliar operation.
func (s *Service) VigenteParaPeriodo(ctx context.Context, socioID snowflake.ID, p periodo.Periodo) (*domain.Exencion, []string, error) {
	candidatas, err := s.repo.ListCandidatasVigencia(ctx, s.db, socioID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	var cubren []domain.Exencion
	for _, exencion := range candidatas {
		if exencion.EsVigenteEfectiva(now) && exencion.CubrePeriodo(p) {
			cubren = append(cubren, exencion)
		}
	}
	if len(cubren) == 0 {
		return nil, nil, nil
	}

	ganadora := cubren[0]
	for _, candidata := range cubren[1:] {
		if candidata.Porcentaje.GreaterThan(ganadora.Porcentaje) {
			ganadora = candidata
		}
	}

	var advertencias []string
	if len(cubren) > 1 {
		advertencias = append(advertencias, AdvertenciaMultiplesVigentes)
		s.log.Warn("multiples exenciones vigentes para el periodo",
			zap.String("socio_id", socioID.String()),
			zap.String("periodo", p.String()),
			zap.Int("cantidad", len(cubren)),
		)
	}
	return &ganadora, advertencias, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Exencion, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) ListBySocio(ctx context.Context, socioID snowflake.ID) ([]domain.Exencion, error) {
	return s.repo.ListBySocio(ctx, s.db, socioID)
}

func (s *Service) promover(ctx context.Context, tx *gorm.DB, exencion *domain.Exencion, now time.Time) error {
	exencion.Estado = domain.EstadoVigente
	exencion.UpdatedAt = now
	if err := s.repo.Update(ctx, tx, exencion); err != nil {
		return err
	}
	return s.registrarHistorial(ctx, tx, exencion, historialdomain.AccionExencionVigente, actorSistema, "")
}

func (s *Service) vencer(ctx context.Context, tx *gorm.DB, exencion *domain.Exencion, now time.Time) error {
	exencion.Estado = domain.EstadoVencida
	exencion.UpdatedAt = now
	if err := s.repo.Update(ctx, tx, exencion); err != nil {
		return err
	}
	return s.registrarHistorial(ctx, tx, exencion, historialdomain.AccionExencionVencida, actorSistema, "")
}

func (s *Service) registrarHistorial(ctx context.Context, tx *gorm.DB, exencion *domain.Exencion, accion, actor, motivo string) error {
	return s.historialRepo.Insert(ctx, tx, &historialdomain.Entrada{
		ID:           s.genID.Generate(),
		TipoObjetivo: historialdomain.ObjetivoExencion,
		ObjetivoID:   exencion.ID,
		Accion:       accion,
		Actor:        actor,
		Motivo:       motivo,
		ExencionID:   &exencion.ID,
		Metadata: datatypes.JSONMap{
			"estado":     exencion.Estado,
			"tipo":       exencion.Tipo,
			"porcentaje": exencion.Porcentaje.String(),
		},
		CreatedAt: s.clock.Now(),
	})
}
