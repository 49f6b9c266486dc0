// Package domain contains the exemption model and its approval/validity
// state machine contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/pkg/periodo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Exemption kinds.
const (
	TipoTotal   = "TOTAL"
	TipoParcial = "PARCIAL"
)

// Fixed motive codes.
const (
	MotivoDificultadEconomica = "DIFICULTAD_ECONOMICA"
	MotivoEnfermedad          = "ENFERMEDAD"
	MotivoBeca                = "BECA"
	MotivoGrupoFamiliar       = "GRUPO_FAMILIAR"
	MotivoOtro                = "OTRO"
)

// States. Stored and refreshed by the explicit Reconciliar operation; pricing
// reads compute effective visibility against the clock so they never write.
const (
	EstadoPendienteAprobacion = "PENDIENTE_APROBACION"
	EstadoAprobada            = "APROBADA"
	EstadoVigente             = "VIGENTE"
	EstadoVencida             = "VENCIDA"
	EstadoRechazada           = "RECHAZADA"
	EstadoRevocada            = "REVOCADA"
)

var (
	ErrExencionNoEncontrada     = errors.New("exencion_no_encontrada")
	ErrTipoInvalido             = errors.New("exencion_tipo_invalido")
	ErrMotivoInvalido           = errors.New("exencion_motivo_invalido")
	ErrPorcentajeInvalido       = errors.New("exencion_porcentaje_invalido")
	ErrTotalRequiereCien        = errors.New("exencion_total_requiere_porcentaje_100")
	ErrRangoFechasInvalido      = errors.New("exencion_rango_fechas_invalido")
	ErrTransicionInvalida       = errors.New("exencion_transicion_invalida")
	ErrMotivoResolucionFaltante = errors.New("exencion_motivo_resolucion_requerido")
	ErrAprobadorRequerido       = errors.New("exencion_aprobador_requerido")
)

var motivosValidos = map[string]struct{}{
	MotivoDificultadEconomica: {},
	MotivoEnfermedad:          {},
	MotivoBeca:                {},
	MotivoGrupoFamiliar:       {},
	MotivoOtro:                {},
}

// Exencion is a time-bounded, approval-gated waiver of a member's dues. It is
// owned by the member and applied at computation time to every due whose
// period falls inside the validity window while the state is VIGENTE.
type Exencion struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	SocioID       snowflake.ID    `gorm:"not null;index"`
	Tipo          string          `gorm:"type:text;not null"`
	Motivo        string          `gorm:"type:text;not null"`
	Porcentaje    decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	FechaInicio   time.Time       `gorm:"not null"`
	FechaFin      *time.Time
	Estado        string `gorm:"type:text;not null;index"`
	Justificacion string `gorm:"type:text"`

	ResueltaPor      *string `gorm:"type:text"`
	ResueltaAt       *time.Time
	MotivoResolucion *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Exencion) TableName() string { return "exenciones" }

// Validate enforces the construction-time invariants.
func (e Exencion) Validate() error {
	switch e.Tipo {
	case TipoTotal:
		if !e.Porcentaje.Equal(decimal.NewFromInt(100)) {
			return ErrTotalRequiereCien
		}
	case TipoParcial:
		if e.Porcentaje.Sign() <= 0 || e.Porcentaje.GreaterThan(decimal.NewFromInt(100)) {
			return ErrPorcentajeInvalido
		}
	default:
		return ErrTipoInvalido
	}
	if _, ok := motivosValidos[e.Motivo]; !ok {
		return ErrMotivoInvalido
	}
	if e.FechaFin != nil && e.FechaFin.Before(e.FechaInicio) {
		return ErrRangoFechasInvalido
	}
	return nil
}

// EsVigenteEfectiva reports whether the exemption is in force at the given
// instant, regardless of whether reconciliation has persisted the transition
// yet. An APROBADA row whose window has opened counts; any row whose window
// has closed does not.
func (e Exencion) EsVigenteEfectiva(now time.Time) bool {
	switch e.Estado {
	case EstadoVigente:
	case EstadoAprobada:
		if e.FechaInicio.After(now) {
			return false
		}
	default:
		return false
	}
	if e.FechaFin != nil && now.After(*e.FechaFin) {
		return false
	}
	return true
}

// CubrePeriodo reports whether the validity window overlaps the period.
func (e Exencion) CubrePeriodo(p periodo.Periodo) bool {
	if e.FechaInicio.After(p.Fin()) {
		return false
	}
	if e.FechaFin != nil && e.FechaFin.Before(p.Inicio()) {
		return false
	}
	return true
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, exencion *Exencion) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Exencion, error)
	Update(ctx context.Context, db *gorm.DB, exencion *Exencion) error
	ListBySocio(ctx context.Context, db *gorm.DB, socioID snowflake.ID) ([]Exencion, error)
	ListByEstado(ctx context.Context, db *gorm.DB, estados ...string) ([]Exencion, error)
	ListCandidatasVigencia(ctx context.Context, db *gorm.DB, socioID snowflake.ID) ([]Exencion, error)
}

// Service owns the exemption state machine. Only VIGENTE exemptions are
// visible to pricing.
type Service interface {
	Crear(ctx context.Context, exencion Exencion, actor string) (*Exencion, error)
	Aprobar(ctx context.Context, id snowflake.ID, aprobador string) (*Exencion, error)
	Rechazar(ctx context.Context, id snowflake.ID, actor, motivo string) (*Exencion, error)
	Revocar(ctx context.Context, id snowflake.ID, actor, motivo string) (*Exencion, error)
	// Reconciliar refreshes stored states against the clock: APROBADA becomes
	// VIGENTE once fechaInicio is reached, VIGENTE becomes VENCIDA once past
	// fechaFin. Returns the number of transitions applied.
	Reconciliar(ctx context.Context) (int, error)
	// VigenteParaPeriodo resolves the exemption pricing must apply for the
	// member and period. It is a pure read: visibility is computed against
	// the clock without persisting any transition, so computation and preview
	// never write. When several exemptions are in force at once, the highest
	// percentage wins and a warning is reported.
	VigenteParaPeriodo(ctx context.Context, socioID snowflake.ID, p periodo.Periodo) (*Exencion, []string, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Exencion, error)
	ListBySocio(ctx context.Context, socioID snowflake.ID) ([]Exencion, error)
}
