package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/domain"
	"gorm.io/gorm"
)

type backupRepo struct{}

func ProvideBackup() domain.BackupRepository {
	return &backupRepo{}
}

func (r *backupRepo) Insert(ctx context.Context, db *gorm.DB, backup *domain.CuotaBackup) error {
	return db.WithContext(ctx).Create(backup).Error
}

func (r *backupRepo) ListByBatch(ctx context.Context, db *gorm.DB, batchID snowflake.ID) ([]domain.CuotaBackup, error) {
	var backups []domain.CuotaBackup
	err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("id asc").
		Find(&backups).Error
	if err != nil {
		return nil, err
	}
	return backups, nil
}
