// Package domain contains the member model consumed by the pricing pipeline.
// Member CRUD lives outside this core; only the attributes feeding rule
// predicates are modelled here.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrSocioNoEncontrado = errors.New("socio_no_encontrado")

// Socio is the billed party.
type Socio struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Nombre          string       `gorm:"type:text;not null"`
	Apellido        string       `gorm:"type:text;not null"`
	FechaNacimiento *time.Time
	FechaAlta       time.Time     `gorm:"not null"`
	GrupoFamiliarID *snowflake.ID `gorm:"index"`
	CategoriaID     snowflake.ID  `gorm:"not null;index"`
	Activo          bool          `gorm:"not null;default:true"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Socio) TableName() string { return "socios" }

// Edad returns the member's age in whole years at the given instant, or -1
// when the birth date is unknown.
func (s Socio) Edad(en time.Time) int {
	if s.FechaNacimiento == nil {
		return -1
	}
	nacimiento := s.FechaNacimiento.UTC()
	anios := en.Year() - nacimiento.Year()
	if en.YearDay() < nacimiento.YearDay() {
		anios--
	}
	return anios
}

// AntiguedadAnios returns whole years of membership at the given instant.
func (s Socio) AntiguedadAnios(en time.Time) int {
	alta := s.FechaAlta.UTC()
	anios := en.Year() - alta.Year()
	if en.YearDay() < alta.YearDay() {
		anios--
	}
	if anios < 0 {
		return 0
	}
	return anios
}
