package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entrada *domain.Entrada) error {
	if entrada == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entrada).Error
}

func (r *repo) ListForObjetivo(ctx context.Context, db *gorm.DB, tipoObjetivo string, objetivoID snowflake.ID) ([]domain.Entrada, error) {
	var entradas []domain.Entrada
	err := db.WithContext(ctx).
		Where("tipo_objetivo = ? AND objetivo_id = ?", tipoObjetivo, objetivoID).
		Order("created_at asc, id asc").
		Find(&entradas).Error
	if err != nil {
		return nil, err
	}
	return entradas, nil
}
