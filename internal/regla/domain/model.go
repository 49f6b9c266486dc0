// Package domain contains the automatic discount rules consulted by the
// dues computation pipeline. Rules are reference data maintained elsewhere;
// this core only reads and evaluates them.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	sociodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"gorm.io/gorm"
)

// Effect kinds.
const (
	EfectoPorcentaje = "PORCENTAJE"
	EfectoMontoFijo  = "MONTO_FIJO"
)

// ReglaDescuento is a predicate/effect pair. All non-nil predicate fields
// must match for the rule to apply.
type ReglaDescuento struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Codigo    string       `gorm:"type:text;not null;uniqueIndex"`
	Nombre    string       `gorm:"type:text;not null"`
	Prioridad int          `gorm:"not null;default:100"`
	Activa    bool         `gorm:"not null;default:true"`

	EdadMinima            *int
	EdadMaxima            *int
	AntiguedadMinimaAnios *int
	RequiereGrupoFamiliar bool    `gorm:"not null;default:false"`
	CategoriaCodigo       *string `gorm:"type:text"`
	MesDesde              *int
	MesHasta              *int

	TipoEfecto string          `gorm:"type:text;not null"`
	Valor      decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReglaDescuento) TableName() string { return "reglas_descuento" }

// Matches evaluates the rule predicate against the computation context.
func (r ReglaDescuento) Matches(c Contexto) bool {
	if r.EdadMinima != nil || r.EdadMaxima != nil {
		edad := c.Socio.Edad(c.Ahora)
		if edad < 0 {
			return false
		}
		if r.EdadMinima != nil && edad < *r.EdadMinima {
			return false
		}
		if r.EdadMaxima != nil && edad > *r.EdadMaxima {
			return false
		}
	}
	if r.AntiguedadMinimaAnios != nil && c.Socio.AntiguedadAnios(c.Ahora) < *r.AntiguedadMinimaAnios {
		return false
	}
	if r.RequiereGrupoFamiliar && c.Socio.GrupoFamiliarID == nil {
		return false
	}
	if r.CategoriaCodigo != nil && *r.CategoriaCodigo != c.CategoriaCodigo {
		return false
	}
	if r.MesDesde != nil && c.Periodo.Mes < *r.MesDesde {
		return false
	}
	if r.MesHasta != nil && c.Periodo.Mes > *r.MesHasta {
		return false
	}
	return true
}

// Contexto is the computation context rules are evaluated against.
type Contexto struct {
	Socio           sociodomain.Socio
	CategoriaCodigo string
	Periodo         periodo.Periodo
	// MontoBase is the original base amount. Rule effects are computed
	// against it, never against the running total.
	MontoBase decimal.Decimal
	// DescuentoCategoria is the (positive) baseline category discount already
	// applied, needed for the combined ceiling clamp.
	DescuentoCategoria decimal.Decimal
	Ahora              time.Time
}

// Descuento is one applied rule with its computed (positive) amount.
type Descuento struct {
	Regla ReglaDescuento
	Monto decimal.Decimal
}

// Resultado is the engine output: matched rule discounts in deterministic
// order plus any ceiling-clamp warning.
type Resultado struct {
	Descuentos   []Descuento
	Advertencias []string
}

type Repository interface {
	ListActivas(ctx context.Context, db *gorm.DB) ([]ReglaDescuento, error)
}

type Engine interface {
	Evaluar(ctx context.Context, c Contexto) (Resultado, error)
}
