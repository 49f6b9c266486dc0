package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/shopspring/decimal"
)

// CalcularRequest is the strongly typed, validated input of the computation
// pipeline. It is built once from the loosely typed outer request and never
// mutated afterwards.
type CalcularRequest struct {
	SocioID     snowflake.ID    `json:"socio_id"`
	CategoriaID snowflake.ID    `json:"categoria_id"`
	Periodo     periodo.Periodo `json:"periodo"`
	// Ajustes are the manual adjustments applied verbatim in step 4.
	Ajustes []ajustedomain.Ajuste `json:"ajustes,omitempty"`
	// ExencionOverride, when set, replaces the vigente-exemption lookup.
	// Used by the diff service to simulate proposed exemptions; it must
	// satisfy the same construction invariants as a stored exemption.
	ExencionOverride *exenciondomain.Exencion `json:"exencion_override,omitempty"`
}

func (r CalcularRequest) Validate() error {
	if r.SocioID == 0 || r.CategoriaID == 0 {
		return ErrCategoriaInvalida
	}
	return r.Periodo.Validate()
}

// Resultado is the itemized output of one computation. Items carry no IDs;
// they are assigned only if the result is persisted.
type Resultado struct {
	SocioID         snowflake.ID    `json:"socio_id"`
	CategoriaID     snowflake.ID    `json:"categoria_id"`
	CategoriaCodigo string          `json:"categoria_codigo"`
	Periodo         periodo.Periodo `json:"periodo"`
	Items           []CuotaItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Advertencias    []string        `json:"advertencias,omitempty"`
}

// Service is the deterministic computation pipeline. Calcular never writes;
// Generar materializes and persists the result as a new due.
type Service interface {
	Calcular(ctx context.Context, req CalcularRequest) (Resultado, error)
	Generar(ctx context.Context, req CalcularRequest, actor string) (*Cuota, error)
	// Materializar turns a computation result into a persistable due,
	// assigning fresh IDs. It does not write.
	Materializar(resultado Resultado, estado string) *Cuota
	GetByID(ctx context.Context, id snowflake.ID) (*Cuota, error)
	List(ctx context.Context, filtro Filtro) ([]Cuota, error)
}
