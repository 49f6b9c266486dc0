// Package domain contains the preview and diff contracts. Everything here is
// side-effect-free by contract: repeated calls with identical inputs yield
// identical results.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	"github.com/shopspring/decimal"
)

var ErrPreviewSinObjetivo = errors.New("preview_sin_objetivo")

// PreviewRequest targets either an existing due (stored inputs are loaded,
// the row itself is never touched) or a fully simulated input set.
type PreviewRequest struct {
	CuotaID    *snowflake.ID                `json:"cuota_id,omitempty"`
	Simulacion *cuotadomain.CalcularRequest `json:"simulacion,omitempty"`
}

func (r PreviewRequest) Validate() error {
	if r.CuotaID == nil && r.Simulacion == nil {
		return ErrPreviewSinObjetivo
	}
	return nil
}

// Propuesta layers proposed changes over a due's current inputs for a diff.
type Propuesta struct {
	// AjustesExtra are additional manual adjustments to layer in.
	AjustesExtra []ajustedomain.Ajuste `json:"ajustes_extra,omitempty"`
	// ExencionOverride replaces the exemption lookup result.
	ExencionOverride *exenciondomain.Exencion `json:"exencion_override,omitempty"`
}

// DeltaItem is one line of the structural diff.
type DeltaItem struct {
	Tipo     string          `json:"tipo"`
	Concepto string          `json:"concepto"`
	Antes    decimal.Decimal `json:"antes"`
	Despues  decimal.Decimal `json:"despues"`
	Delta    decimal.Decimal `json:"delta"`
}

// Comparacion is the before/after diff of a due under proposed changes.
type Comparacion struct {
	Antes       cuotadomain.Resultado `json:"antes"`
	Despues     cuotadomain.Resultado `json:"despues"`
	Deltas      []DeltaItem           `json:"deltas"`
	DeltaTotal  decimal.Decimal       `json:"delta_total"`
	Explicacion []string              `json:"explicacion"`
}

type Service interface {
	Previsualizar(ctx context.Context, req PreviewRequest) (cuotadomain.Resultado, error)
	Comparar(ctx context.Context, cuotaID snowflake.ID, propuesta Propuesta) (Comparacion, error)
}
