package repository

import (
	"context"

	"github.com/fgonzalez-GIT/sigesda-backend/internal/regla/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListActivas(ctx context.Context, db *gorm.DB) ([]domain.ReglaDescuento, error) {
	var reglas []domain.ReglaDescuento
	err := db.WithContext(ctx).
		Where("activa = ?", true).
		Order("prioridad asc, id asc").
		Find(&reglas).Error
	if err != nil {
		return nil, err
	}
	return reglas, nil
}
