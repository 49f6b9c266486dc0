// Package domain contains the append-only manual adjustment ledger.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrMontoCero       = errors.New("ajuste_monto_cero")
	ErrMotivoRequerido = errors.New("ajuste_motivo_requerido")
	ErrActorRequerido  = errors.New("ajuste_actor_requerido")
)

// Ajuste is a manual, audited monetary delta applied to a member's due.
// Records are append-only; corrections are new records with the opposite sign.
type Ajuste struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	SocioID   snowflake.ID    `gorm:"not null;index"`
	CuotaID   *snowflake.ID   `gorm:"index"`
	Concepto  string          `gorm:"type:text;not null"`
	Monto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Motivo    string          `gorm:"type:text;not null"`
	Actor     string          `gorm:"type:text;not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Ajuste) TableName() string { return "ajustes" }

func (a Ajuste) Validate() error {
	if a.Monto.IsZero() {
		return ErrMontoCero
	}
	if a.Motivo == "" {
		return ErrMotivoRequerido
	}
	if a.Actor == "" {
		return ErrActorRequerido
	}
	return nil
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, ajuste *Ajuste) error
	ListForCuota(ctx context.Context, db *gorm.DB, cuotaID snowflake.ID) ([]Ajuste, error)
	ListForSocio(ctx context.Context, db *gorm.DB, socioID snowflake.ID) ([]Ajuste, error)
}

// Service validates and records manual adjustments with their audit entry.
type Service interface {
	Registrar(ctx context.Context, ajuste Ajuste) (*Ajuste, error)
	ListForCuota(ctx context.Context, cuotaID snowflake.ID) ([]Ajuste, error)
}
