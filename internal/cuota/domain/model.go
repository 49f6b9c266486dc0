// Package domain contains the due (cuota) model, its itemization, the store
// contract and the computation pipeline contract.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Due states.
const (
	EstadoPendiente = "PENDIENTE"
	EstadoPagada    = "PAGADA"
	EstadoVencida   = "VENCIDA"
	EstadoAnulada   = "ANULADA"
)

// Item kinds. The pipeline switches exhaustively over these.
const (
	ItemBase               = "BASE"
	ItemDescuentoCategoria = "DESCUENTO_CATEGORIA"
	ItemDescuentoRegla     = "DESCUENTO_REGLA"
	ItemAjusteManual       = "AJUSTE_MANUAL"
	ItemExencion           = "EXENCION"
	ItemAjusteMinimo       = "AJUSTE_MINIMO"
)

var (
	ErrCuotaNoEncontrada    = errors.New("cuota_no_encontrada")
	ErrCategoriaInvalida    = errors.New("categoria_invalida")
	ErrOverflowCalculo      = errors.New("calculo_overflow")
	ErrIntegridadCuota      = errors.New("cuota_integridad_invalida")
	ErrCuotaPagadaInmutable = errors.New("cuota_pagada_inmutable")
)

// Cuota is a billing-period due owed by a member. Category fields are a
// snapshot taken at computation time. A PAGADA due is immutable except
// through rollback with an explicit force flag.
type Cuota struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	SocioID         snowflake.ID    `gorm:"not null;index:idx_cuotas_socio_periodo,priority:1"`
	PeriodoMes      int             `gorm:"not null;index:idx_cuotas_periodo,priority:2"`
	PeriodoAnio     int             `gorm:"not null;index:idx_cuotas_periodo,priority:1;index:idx_cuotas_socio_periodo,priority:2"`
	CategoriaID     snowflake.ID    `gorm:"not null;index"`
	CategoriaCodigo string          `gorm:"type:text;not null"`
	Estado          string          `gorm:"type:text;not null;index"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Items           []CuotaItem     `gorm:"foreignKey:CuotaID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Cuota) TableName() string { return "cuotas" }

func (c Cuota) Periodo() periodo.Periodo {
	return periodo.Periodo{Mes: c.PeriodoMes, Anio: c.PeriodoAnio}
}

// CuotaItem is one line of a due. Discounts and exemptions carry negative
// amounts; BASE and the zero-floor correction are positive.
type CuotaItem struct {
	ID         snowflake.ID     `gorm:"primaryKey"`
	CuotaID    snowflake.ID     `gorm:"not null;index"`
	Orden      int              `gorm:"not null"`
	Tipo       string           `gorm:"type:text;not null"`
	Concepto   string           `gorm:"type:text;not null"`
	Monto      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Porcentaje *decimal.Decimal `gorm:"type:decimal(5,2)"`
	Metadata   datatypes.JSONMap `gorm:"type:json"`
	CreatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CuotaItem) TableName() string { return "cuota_items" }

// SumaItems adds every item amount.
func SumaItems(items []CuotaItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Monto)
	}
	return total
}

// Filtro selects dues for listing, mass operations and rollback.
type Filtro struct {
	PeriodoMes       *int          `json:"periodo_mes,omitempty"`
	PeriodoAnio      *int          `json:"periodo_anio,omitempty"`
	SocioID          *snowflake.ID `json:"socio_id,omitempty"`
	CategoriaID      *snowflake.ID `json:"categoria_id,omitempty"`
	Estado           *string       `json:"estado,omitempty"`
	ConceptoContiene string        `json:"concepto_contiene,omitempty"`
}
