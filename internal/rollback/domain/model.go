// Package domain contains the rollback contracts: reversal of a generation
// batch or a single due, guarded by payment-state safety.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/twophase"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRollbackBloqueado = errors.New("rollback_bloqueado")
	ErrTargetInvalido    = errors.New("rollback_target_invalido")
)

// Blocker codes returned by Validar.
const (
	BloqueoCuotaPagada = "paid_cuota_present"
)

// Skip reasons per row.
const (
	OmitidaPagadaSinForce      = "cuota_pagada_sin_force"
	OmitidaPendienteConservada = "pendiente_conservada"
)

// Target selects either a whole generation period or a single due.
type Target struct {
	Periodo *periodo.Periodo `json:"periodo,omitempty"`
	CuotaID *snowflake.ID    `json:"cuota_id,omitempty"`
}

func (t Target) Validate() error {
	if (t.Periodo == nil) == (t.CuotaID == nil) {
		return ErrTargetInvalido
	}
	if t.Periodo != nil {
		return t.Periodo.Validate()
	}
	return nil
}

// Opciones tune what the rollback destroys. Deleting paid rows additionally
// requires the explicit force flag.
type Opciones struct {
	EliminarPendientes bool `json:"eliminar_pendientes"`
	EliminarPagadas    bool `json:"eliminar_pagadas"`
	Force              bool `json:"force"`
	CrearBackup        bool `json:"crear_backup"`
}

type Request struct {
	Target   Target        `json:"target"`
	Modo     twophase.Mode `json:"modo"`
	Opciones Opciones      `json:"opciones"`
	Actor    string        `json:"actor"`
}

// Validacion is the eligibility check for a period rollback.
type Validacion struct {
	Elegible  bool     `json:"elegible"`
	Bloqueos  []string `json:"bloqueos,omitempty"`
	Objetivos int      `json:"objetivos"`
}

// Accion is one destructive (or skipped) row of the rollback report.
type Accion struct {
	CuotaID snowflake.ID    `json:"cuota_id"`
	SocioID snowflake.ID    `json:"socio_id"`
	Estado  string          `json:"estado"`
	Total   decimal.Decimal `json:"total"`
	Forzada bool            `json:"forzada,omitempty"`
	Omitida string          `json:"omitida,omitempty"`
}

// Reporte is the rollback outcome. An empty target set is a no-op result,
// not an error.
type Reporte struct {
	Modo       twophase.Mode `json:"modo"`
	BatchID    snowflake.ID  `json:"batch_id"`
	Objetivos  int           `json:"objetivos"`
	Eliminadas int           `json:"eliminadas"`
	Omitidas   int           `json:"omitidas"`
	Respaldos  int           `json:"respaldos"`
	Acciones   []Accion      `json:"acciones"`
}

// CuotaBackup snapshots a due (with items) before destruction.
type CuotaBackup struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	BatchID   snowflake.ID   `gorm:"not null;index"`
	CuotaID   snowflake.ID   `gorm:"not null;index"`
	Snapshot  datatypes.JSON `gorm:"type:json;not null"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CuotaBackup) TableName() string { return "cuota_backups" }

type BackupRepository interface {
	Insert(ctx context.Context, db *gorm.DB, backup *CuotaBackup) error
	ListByBatch(ctx context.Context, db *gorm.DB, batchID snowflake.ID) ([]CuotaBackup, error)
}

type Service interface {
	Validar(ctx context.Context, p periodo.Periodo) (Validacion, error)
	Ejecutar(ctx context.Context, req Request) (Reporte, error)
}
