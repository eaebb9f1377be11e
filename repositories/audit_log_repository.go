package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormAuditLogRepository struct {
	db *gorm.DB
}

func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

func (r *GormAuditLogRepository) Insert(_ context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(entry).Error
}

func (r *GormAuditLogRepository) List(_ context.Context, tx *gorm.DB, tableName string, page, size int) ([]models.AuditLog, int64, error) {
	db := useTx(r.db, tx).Model(&models.AuditLog{})
	if tableName != "" {
		db = db.Where("table_name = ?", tableName)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	err := db.Order("timestamp DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&entries).Error
	return entries, total, err
}
