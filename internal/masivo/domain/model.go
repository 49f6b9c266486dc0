// Package domain contains the mass pricing operation contracts.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/twophase"
	"github.com/shopspring/decimal"
)

var (
	ErrCambioInvalido = errors.New("cambio_invalido")
	ErrActorRequerido = errors.New("operacion_actor_requerido")
)

// Cambio is the pricing change applied to every targeted due, materialized
// as one manual adjustment per row. Exactly one of the two effects must be
// set; a positive value means a discount.
type Cambio struct {
	DescuentoPorcentaje *decimal.Decimal `json:"descuento_porcentaje,omitempty"`
	MontoFijo           *decimal.Decimal `json:"monto_fijo,omitempty"`
	Concepto            string           `json:"concepto"`
	Motivo              string           `json:"motivo"`
}

func (c Cambio) Validate() error {
	if (c.DescuentoPorcentaje == nil) == (c.MontoFijo == nil) {
		return ErrCambioInvalido
	}
	if c.DescuentoPorcentaje != nil {
		if c.DescuentoPorcentaje.Sign() <= 0 || c.DescuentoPorcentaje.GreaterThan(decimal.NewFromInt(100)) {
			return ErrCambioInvalido
		}
	}
	if c.MontoFijo != nil && c.MontoFijo.IsZero() {
		return ErrCambioInvalido
	}
	if c.Concepto == "" || c.Motivo == "" {
		return ErrCambioInvalido
	}
	return nil
}

// Request selects the mode explicitly; it is never inferred.
type Request struct {
	Modo   twophase.Mode     `json:"modo"`
	Filtro cuotadomain.Filtro `json:"filtro"`
	Cambio Cambio            `json:"cambio"`
	Actor  string            `json:"actor"`
}

// Fila is the per-row outcome. Rows that failed carry the error code and are
// excluded from the commit, never aborting their siblings.
type Fila struct {
	CuotaID      snowflake.ID    `json:"cuota_id"`
	SocioID      snowflake.ID    `json:"socio_id"`
	Estado       string          `json:"estado"`
	TotalAntes   decimal.Decimal `json:"total_antes"`
	TotalDespues decimal.Decimal `json:"total_despues"`
	Delta        decimal.Decimal `json:"delta"`
	Advertencias []string        `json:"advertencias,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// Reporte is the aggregated impact. It always carries the full error and
// warning detail, in both modes.
type Reporte struct {
	Modo       twophase.Mode   `json:"modo"`
	Objetivos  int             `json:"objetivos"`
	Exitosas   int             `json:"exitosas"`
	Omitidas   int             `json:"omitidas"`
	DeltaTotal decimal.Decimal `json:"delta_total"`
	Filas      []Fila          `json:"filas"`
}

type Service interface {
	Ejecutar(ctx context.Context, req Request) (Reporte, error)
}
