// Package periodo provides the billing period (month/year) value type shared
// by the pricing components.
package periodo

import (
	"errors"
	"fmt"
	"time"
)

var ErrPeriodoInvalido = errors.New("periodo_invalido")

// Periodo identifies a monthly billing period.
type Periodo struct {
	Mes  int `json:"mes"`
	Anio int `json:"anio"`
}

func New(mes, anio int) (Periodo, error) {
	p := Periodo{Mes: mes, Anio: anio}
	if err := p.Validate(); err != nil {
		return Periodo{}, err
	}
	return p, nil
}

func (p Periodo) Validate() error {
	if p.Mes < 1 || p.Mes > 12 {
		return ErrPeriodoInvalido
	}
	if p.Anio < 2000 || p.Anio > 2100 {
		return ErrPeriodoInvalido
	}
	return nil
}

func (p Periodo) String() string {
	return fmt.Sprintf("%02d/%04d", p.Mes, p.Anio)
}

// Inicio returns the first instant of the period in UTC.
func (p Periodo) Inicio() time.Time {
	return time.Date(p.Anio, time.Month(p.Mes), 1, 0, 0, 0, 0, time.UTC)
}

// Fin returns the last instant of the period in UTC.
func (p Periodo) Fin() time.Time {
	return p.Inicio().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Contiene reports whether t falls inside the period.
func (p Periodo) Contiene(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Inicio()) && !t.After(p.Fin())
}

// Anterior returns the previous monthly period.
func (p Periodo) Anterior() Periodo {
	if p.Mes == 1 {
		return Periodo{Mes: 12, Anio: p.Anio - 1}
	}
	return Periodo{Mes: p.Mes - 1, Anio: p.Anio}
}
