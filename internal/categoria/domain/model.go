// Package domain contains the membership category model and the rate
// resolution contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Categoria is a membership tier defining the base monthly rate and its
// baseline discount.
type Categoria struct {
	ID                  snowflake.ID    `gorm:"primaryKey"`
	Codigo              string          `gorm:"type:text;not null;uniqueIndex"`
	Nombre              string          `gorm:"type:text;not null"`
	MontoBase           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DescuentoPorcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Activa              bool            `gorm:"not null;default:true"`
	CreatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Categoria) TableName() string { return "categorias" }

// TarifaResuelta is the rate resolver output for a category and period.
type TarifaResuelta struct {
	CategoriaID         snowflake.ID    `json:"categoria_id"`
	Codigo              string          `json:"codigo"`
	MontoBase           decimal.Decimal `json:"monto_base"`
	DescuentoPorcentaje decimal.Decimal `json:"descuento_porcentaje"`
}
