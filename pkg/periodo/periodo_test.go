package periodo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	casos := []struct {
		mes, anio int
		valido    bool
	}{
		{1, 2026, true},
		{12, 2026, true},
		{0, 2026, false},
		{13, 2026, false},
		{6, 1999, false},
		{6, 2101, false},
	}
	for _, c := range casos {
		err := (Periodo{Mes: c.mes, Anio: c.anio}).Validate()
		if c.valido {
			assert.NoError(t, err, "%d/%d", c.mes, c.anio)
		} else {
			assert.ErrorIs(t, err, ErrPeriodoInvalido, "%d/%d", c.mes, c.anio)
		}
	}
}

func TestNew(t *testing.T) {
	p, err := New(3, 2026)
	require.NoError(t, err)
	assert.Equal(t, "03/2026", p.String())

	_, err = New(0, 2026)
	require.ErrorIs(t, err, ErrPeriodoInvalido)
}

func TestContiene(t *testing.T) {
	p := Periodo{Mes: 3, Anio: 2026}

	assert.True(t, p.Contiene(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contiene(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contiene(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contiene(time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)))
}

func TestAnterior(t *testing.T) {
	assert.Equal(t, Periodo{Mes: 2, Anio: 2026}, Periodo{Mes: 3, Anio: 2026}.Anterior())
	assert.Equal(t, Periodo{Mes: 12, Anio: 2025}, Periodo{Mes: 1, Anio: 2026}.Anterior())
}
