// Package domain contains the immutable audit trail for dues and exemptions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Target types recorded in the history.
const (
	ObjetivoCuota    = "CUOTA"
	ObjetivoExencion = "EXENCION"
)

// Actions recorded in the history.
const (
	AccionCuotaGenerada     = "cuota_generada"
	AccionCuotaRecalculada  = "cuota_recalculada"
	AccionCuotaEliminada    = "cuota_eliminada"
	AccionCuotaRevertida    = "cuota_revertida"
	AccionAjusteRegistrado  = "ajuste_registrado"
	AccionExencionCreada    = "exencion_creada"
	AccionExencionAprobada  = "exencion_aprobada"
	AccionExencionRechazada = "exencion_rechazada"
	AccionExencionRevocada  = "exencion_revocada"
	AccionExencionVigente   = "exencion_vigente"
	AccionExencionVencida   = "exencion_vencida"
)

// Entrada is one append-only audit record. Never updated or deleted.
type Entrada struct {
	ID           snowflake.ID      `gorm:"primaryKey"`
	TipoObjetivo string            `gorm:"type:text;not null;index:idx_historial_objetivo,priority:1"`
	ObjetivoID   snowflake.ID      `gorm:"not null;index:idx_historial_objetivo,priority:2"`
	Accion       string            `gorm:"type:text;not null;index"`
	Actor        string            `gorm:"type:text;not null"`
	Motivo       string            `gorm:"type:text"`
	AjusteID     *snowflake.ID     `gorm:"index"`
	ExencionID   *snowflake.ID     `gorm:"index"`
	Metadata     datatypes.JSONMap `gorm:"type:json"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Entrada) TableName() string { return "historial" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entrada *Entrada) error
	ListForObjetivo(ctx context.Context, db *gorm.DB, tipoObjetivo string, objetivoID snowflake.ID) ([]Entrada, error)
}
