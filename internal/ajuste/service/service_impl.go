package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/clock"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
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
		log:           p.Log.Named("ajuste.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		repo:          p.Repo,
		historialRepo: p.HistorialRepo,
	}
}

// Registrar validates the adjustment and appends it to the ledger together
// with its audit entry, inside one transaction.
func (s *Service) Registrar(ctx context.Context, ajuste domain.Ajuste) (*domain.Ajuste, error) {
	if err := ajuste.Validate(); err != nil {
		return nil, err
	}

	ajuste.ID = s.genID.Generate()
	ajuste.Monto = ajuste.Monto.Round(2)
	ajuste.CreatedAt = s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &ajuste); err != nil {
			return err
		}

		entrada := &historialdomain.Entrada{
			ID:           s.genID.Generate(),
			TipoObjetivo: historialdomain.ObjetivoCuota,
			Accion:       historialdomain.AccionAjusteRegistrado,
			Actor:        ajuste.Actor,
			Motivo:       ajuste.Motivo,
			AjusteID:     &ajuste.ID,
			Metadata: datatypes.JSONMap{
				"concepto": ajuste.Concepto,
				"monto":    ajuste.Monto.String(),
			},
			CreatedAt: ajuste.CreatedAt,
		}
		if ajuste.CuotaID != nil {
			entrada.ObjetivoID = *ajuste.CuotaID
		}
		return s.historialRepo.Insert(ctx, tx, entrada)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ajuste registrado",
		zap.String("ajuste_id", ajuste.ID.String()),
		zap.String("socio_id", ajuste.SocioID.String()),
		zap.String("monto", ajuste.Monto.String()),
	)
	return &ajuste, nil
}

func (s *Service) ListForCuota(ctx context.Context, cuotaID snowflake.ID) ([]domain.Ajuste, error) {
	return s.repo.ListForCuota(ctx, s.db, cuotaID)
}
