package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the store contract for dues. Callers pass the handle (plain
// connection or open transaction) explicitly; the repository keeps no state.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Cuota, error)
	List(ctx context.Context, db *gorm.DB, filtro Filtro) ([]Cuota, error)
	// SaveWithItems persists the due and replaces its item list atomically.
	SaveWithItems(ctx context.Context, db *gorm.DB, cuota *Cuota) error
	// DeleteWithItems removes the due and its items.
	DeleteWithItems(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	UpdateEstado(ctx context.Context, db *gorm.DB, id snowflake.ID, estado string) error
}
