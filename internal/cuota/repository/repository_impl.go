package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Cuota, error) {
	var cuota domain.Cuota
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("orden asc") }).
		First(&cuota, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCuotaNoEncontrada
		}
		return nil, err
	}
	return &cuota, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filtro domain.Filtro) ([]domain.Cuota, error) {
	stmt := db.WithContext(ctx).Model(&domain.Cuota{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("orden asc") })

	if filtro.PeriodoMes != nil {
		stmt = stmt.Where("periodo_mes = ?", *filtro.PeriodoMes)
	}
	if filtro.PeriodoAnio != nil {
		stmt = stmt.Where("periodo_anio = ?", *filtro.PeriodoAnio)
	}
	if filtro.SocioID != nil {
		stmt = stmt.Where("socio_id = ?", *filtro.SocioID)
	}
	if filtro.CategoriaID != nil {
		stmt = stmt.Where("categoria_id = ?", *filtro.CategoriaID)
	}
	if filtro.Estado != nil {
		stmt = stmt.Where("estado = ?", *filtro.Estado)
	}
	if filtro.ConceptoContiene != "" {
		stmt = stmt.Where(
			"id IN (SELECT cuota_id FROM cuota_items WHERE concepto LIKE ?)",
			"%"+filtro.ConceptoContiene+"%",
		)
	}

	var cuotas []domain.Cuota
	if err := stmt.Order("periodo_anio asc, periodo_mes asc, id asc").Find(&cuotas).Error; err != nil {
		return nil, err
	}
	return cuotas, nil
}

func (r *repo) SaveWithItems(ctx context.Context, db *gorm.DB, cuota *domain.Cuota) error {
	if err := db.WithContext(ctx).
		Where("cuota_id = ?", cuota.ID).
		Delete(&domain.CuotaItem{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Save(cuota).Error
}

func (r *repo) DeleteWithItems(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("cuota_id = ?", id).
		Delete(&domain.CuotaItem{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(&domain.Cuota{}, "id = ?", id).Error
}

func (r *repo) UpdateEstado(ctx context.Context, db *gorm.DB, id snowflake.ID, estado string) error {
	return db.WithContext(ctx).Model(&domain.Cuota{}).
		Where("id = ?", id).
		Update("estado", estado).Error
}
