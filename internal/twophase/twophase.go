// Package twophase unifies the PREVIEW/APPLY convention shared by mass
// operations and rollback. The simulation producing the plan is the same
// code path in both modes, so a preview can never diverge from what an apply
// would commit.
package twophase

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Mode string

const (
	ModePreview Mode = "PREVIEW"
	ModeApply   Mode = "APPLY"
)

var ErrModoInvalido = errors.New("modo_invalido")

// ParseMode rejects anything but the two explicit modes; a mode is never
// inferred.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePreview, ModeApply:
		return Mode(s), nil
	default:
		return "", ErrModoInvalido
	}
}

// Execute runs simulate and, in APPLY mode, commit inside one transaction.
// In PREVIEW mode simulate runs against the plain handle and nothing is
// written. A commit error rolls back the whole batch.
func Execute[R any](ctx context.Context, db *gorm.DB, mode Mode, simulate func(tx *gorm.DB) (R, error), commit func(tx *gorm.DB, plan R) error) (R, error) {
	var zero R

	switch mode {
	case ModePreview:
		return simulate(db)
	case ModeApply:
		var plan R
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			plan, err = simulate(tx)
			if err != nil {
				return err
			}
			return commit(tx, plan)
		})
		if err != nil {
			return zero, err
		}
		return plan, nil
	default:
		return zero, ErrModoInvalido
	}
}
