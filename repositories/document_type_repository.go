package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormDocumentTypeRepository struct {
	db *gorm.DB
}

func NewGormDocumentTypeRepository(db *gorm.DB) *GormDocumentTypeRepository {
	return &GormDocumentTypeRepository{db: db}
}

func (r *GormDocumentTypeRepository) GetByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.DocumentType, error) {
	var dt models.DocumentType
	err := useTx(r.db, tx).Preload("CustomFields").Where("id = ?", id).First(&dt).Error
	return dt, err
}

func (r *GormDocumentTypeRepository) ListByOwner(_ context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.DocumentType, error) {
	var dts []models.DocumentType
	err := useTx(r.db, tx).Preload("CustomFields").
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("name ASC").Find(&dts).Error
	return dts, err
}

func (r *GormDocumentTypeRepository) Create(_ context.Context, tx *gorm.DB, dt *models.DocumentType) error {
	if dt.ID == uuid.Nil {
		dt.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(dt).Error
}

func (r *GormDocumentTypeRepository) Update(_ context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.DocumentType{}).Where("id = ?", id).Updates(updates).Error
}

func (r *GormDocumentTypeRepository) SetFields(_ context.Context, tx *gorm.DB, id uuid.UUID, fieldIDs []uuid.UUID) error {
	fields := make([]models.CustomField, len(fieldIDs))
	for i, fid := range fieldIDs {
		fields[i] = models.CustomField{ID: fid}
	}
	return useTx(r.db, tx).Model(&models.DocumentType{ID: id}).
		Association("CustomFields").Replace(fields)
}

func (r *GormDocumentTypeRepository) Delete(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := useTx(r.db, tx)
	if err := db.Exec(`DELETE FROM document_types_custom_fields WHERE document_type_id = ?`, id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.DocumentType{}).Error
}

func (r *GormDocumentTypeRepository) CountDocuments(_ context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	var count int64
	err := useTx(r.db, tx).Model(&models.Document{}).
		Where("document_type_id = ?", id).Count(&count).Error
	return count, err
}
