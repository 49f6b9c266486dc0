package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Categoria, error) {
	var categoria domain.Categoria
	err := db.WithContext(ctx).First(&categoria, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoriaNoEncontrada
		}
		return nil, err
	}
	return &categoria, nil
}

func (r *repo) FindActivaByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Categoria, error) {
	var categoria domain.Categoria
	err := db.WithContext(ctx).First(&categoria, "id = ? AND activa = ?", id, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoriaNoEncontrada
		}
		return nil, err
	}
	return &categoria, nil
}
