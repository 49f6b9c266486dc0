package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("categoria.service"),
		repo: p.Repo,
	}
}

// ResolverTarifa resolves the base rate and baseline discount for an active
// category. The period is validated even though the current rate table is not
// period-versioned, so callers always pass a well-formed period.
func (s *Service) ResolverTarifa(ctx context.Context, categoriaID snowflake.ID, p periodo.Periodo) (domain.TarifaResuelta, error) {
	if err := p.Validate(); err != nil {
		return domain.TarifaResuelta{}, err
	}

	categoria, err := s.repo.FindActivaByID(ctx, s.db, categoriaID)
	if err != nil {
		return domain.TarifaResuelta{}, err
	}

	return domain.TarifaResuelta{
		CategoriaID:         categoria.ID,
		Codigo:              categoria.Codigo,
		MontoBase:           categoria.MontoBase,
		DescuentoPorcentaje: categoria.DescuentoPorcentaje,
	}, nil
}
