package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, exencion *domain.Exencion) error {
	return db.WithContext(ctx).Create(exencion).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Exencion, error) {
	var exencion domain.Exencion
	err := db.WithContext(ctx).First(&exencion, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrExencionNoEncontrada
		}
		return nil, err
	}
	return &exencion, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, exencion *domain.Exencion) error {
	return db.WithContext(ctx).Save(exencion).Error
}

func (r *repo) ListBySocio(ctx context.Context, db *gorm.DB, socioID snowflake.ID) ([]domain.Exencion, error) {
	var exenciones []domain.Exencion
	err := db.WithContext(ctx).
		Where("socio_id = ?", socioID).
		Order("fecha_inicio asc, id asc").
		Find(&exenciones).Error
	if err != nil {
		return nil, err
	}
	return exenciones, nil
}

func (r *repo) ListByEstado(ctx context.Context, db *gorm.DB, estados ...string) ([]domain.Exencion, error) {
	var exenciones []domain.Exencion
	err := db.WithContext(ctx).
		Where("estado IN ?", estados).
		Order("id asc").
		Find(&exenciones).Error
	if err != nil {
		return nil, err
	}
	return exenciones, nil
}

func (r *repo) ListCandidatasVigencia(ctx context.Context, db *gorm.DB, socioID snowflake.ID) ([]domain.Exencion, error) {
	var exenciones []domain.Exencion
	err := db.WithContext(ctx).
		Where("socio_id = ? AND estado IN ?", socioID, []string{domain.EstadoAprobada, domain.EstadoVigente}).
		Order("id asc").
		Find(&exenciones).Error
	if err != nil {
		return nil, err
	}
	return exenciones, nil
}
