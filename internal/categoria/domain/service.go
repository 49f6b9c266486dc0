package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"gorm.io/gorm"
)

var ErrCategoriaNoEncontrada = errors.New("categoria_no_encontrada")

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Categoria, error)
	FindActivaByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Categoria, error)
}

// Service resolves the category base rate for a billing period. It has no
// side effects.
type Service interface {
	ResolverTarifa(ctx context.Context, categoriaID snowflake.ID, p periodo.Periodo) (TarifaResuelta, error)
}
