package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ajuste *domain.Ajuste) error {
	if ajuste == nil {
		return nil
	}
	return db.WithContext(ctx).Create(ajuste).Error
}

func (r *repo) ListForCuota(ctx context.Context, db *gorm.DB, cuotaID snowflake.ID) ([]domain.Ajuste, error) {
	var ajustes []domain.Ajuste
	err := db.WithContext(ctx).
		Where("cuota_id = ?", cuotaID).
		Order("created_at asc, id asc").
		Find(&ajustes).Error
	if err != nil {
		return nil, err
	}
	return ajustes, nil
}

func (r *repo) ListForSocio(ctx context.Context, db *gorm.DB, socioID snowflake.ID) ([]domain.Ajuste, error) {
	var ajustes []domain.Ajuste
	err := db.WithContext(ctx).
		Where("socio_id = ?", socioID).
		Order("created_at asc, id asc").
		Find(&ajustes).Error
	if err != nil {
		return nil, err
	}
	return ajustes, nil
}
