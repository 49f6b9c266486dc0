package twophase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fila struct {
	ID    int64 `gorm:"primaryKey"`
	Valor string
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&fila{}))
	return db
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("PREVIEW")
	require.NoError(t, err)
	assert.Equal(t, ModePreview, m)

	m, err = ParseMode("APPLY")
	require.NoError(t, err)
	assert.Equal(t, ModeApply, m)

	_, err = ParseMode("apply")
	require.ErrorIs(t, err, ErrModoInvalido)
	_, err = ParseMode("")
	require.ErrorIs(t, err, ErrModoInvalido)
}

func TestExecute_PreviewNuncaLlamaCommit(t *testing.T) {
	db := setupDB(t)

	commits := 0
	plan, err := Execute(context.Background(), db, ModePreview,
		func(tx *gorm.DB) (int, error) { return 7, nil },
		func(tx *gorm.DB, plan int) error { commits++; return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, 7, plan)
	assert.Zero(t, commits)
}

func TestExecute_ApplyConfirmaEnTransaccion(t *testing.T) {
	db := setupDB(t)

	plan, err := Execute(context.Background(), db, ModeApply,
		func(tx *gorm.DB) (int64, error) { return 1, nil },
		func(tx *gorm.DB, plan int64) error {
			return tx.Create(&fila{ID: plan, Valor: "ok"}).Error
		},
	)
	require.NoError(t, err)
	assert.EqualValues(t, 1, plan)

	var cantidad int64
	require.NoError(t, db.Model(&fila{}).Count(&cantidad).Error)
	assert.EqualValues(t, 1, cantidad)
}

func TestExecute_ErrorDeCommitRevierteTodo(t *testing.T) {
	db := setupDB(t)
	fallo := errors.New("commit roto")

	_, err := Execute(context.Background(), db, ModeApply,
		func(tx *gorm.DB) (int64, error) { return 1, nil },
		func(tx *gorm.DB, plan int64) error {
			if err := tx.Create(&fila{ID: plan, Valor: "parcial"}).Error; err != nil {
				return err
			}
			return fallo
		},
	)
	require.ErrorIs(t, err, fallo)

	var cantidad int64
	require.NoError(t, db.Model(&fila{}).Count(&cantidad).Error)
	assert.Zero(t, cantidad)
}

func TestExecute_ModoDesconocido(t *testing.T) {
	db := setupDB(t)

	_, err := Execute(context.Background(), db, Mode("COMMIT"),
		func(tx *gorm.DB) (int, error) { return 0, nil },
		func(tx *gorm.DB, plan int) error { return nil },
	)
	require.ErrorIs(t, err, ErrModoInvalido)
}
