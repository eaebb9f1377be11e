package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormCustomFieldRepository struct {
	db *gorm.DB
}

func NewGormCustomFieldRepository(db *gorm.DB) *GormCustomFieldRepository {
	return &GormCustomFieldRepository{db: db}
}

func (r *GormCustomFieldRepository) GetByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.CustomField, error) {
	var cf models.CustomField
	err := useTx(r.db, tx).Where("id = ?", id).First(&cf).Error
	return cf, err
}

func (r *GormCustomFieldRepository) ListByOwner(_ context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.CustomField, error) {
	var cfs []models.CustomField
	err := useTx(r.db, tx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("name ASC").Find(&cfs).Error
	return cfs, err
}

func (r *GormCustomFieldRepository) FieldsForType(_ context.Context, tx *gorm.DB, typeID uuid.UUID) ([]models.CustomField, error) {
	var cfs []models.CustomField
	err := useTx(r.db, tx).
		Joins("JOIN document_types_custom_fields dtcf ON dtcf.custom_field_id = custom_fields.id").
		Where("dtcf.document_type_id = ?", typeID).
		Order("custom_fields.name ASC").
		Find(&cfs).Error
	return cfs, err
}

func (r *GormCustomFieldRepository) Create(_ context.Context, tx *gorm.DB, cf *models.CustomField) error {
	if cf.ID == uuid.Nil {
		cf.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(cf).Error
}

func (r *GormCustomFieldRepository) Update(_ context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.CustomField{}).Where("id = ?", id).Updates(updates).Error
}

func (r *GormCustomFieldRepository) Delete(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := useTx(r.db, tx)
	if err := db.Exec(`DELETE FROM document_types_custom_fields WHERE custom_field_id = ?`, id).Error; err != nil {
		return err
	}
	if err := db.Exec(`DELETE FROM custom_field_values WHERE field_id = ?`, id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.CustomField{}).Error
}

func (r *GormCustomFieldRepository) ValuesForDocument(_ context.Context, tx *gorm.DB, docID uuid.UUID) ([]models.CustomFieldValue, error) {
	var values []models.CustomFieldValue
	err := useTx(r.db, tx).Where("document_id = ?", docID).Find(&values).Error
	return values, err
}

func (r *GormCustomFieldRepository) ValuesForDocuments(_ context.Context, tx *gorm.DB, docIDs []uuid.UUID) ([]models.CustomFieldValue, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}
	var values []models.CustomFieldValue
	err := useTx(r.db, tx).Where("document_id IN ?", docIDs).Find(&values).Error
	return values, err
}

// UpsertValue updates the existing (document, field) row or inserts one.
func (r *GormCustomFieldRepository) UpsertValue(_ context.Context, tx *gorm.DB, value *models.CustomFieldValue) error {
	db := useTx(r.db, tx)

	var existing models.CustomFieldValue
	err := db.Where("document_id = ? AND field_id = ?", value.DocumentID, value.FieldID).
		First(&existing).Error
	if err == nil {
		value.ID = existing.ID
		value.CreatedAt = existing.CreatedAt
		return db.Save(value).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	if value.ID == uuid.Nil {
		value.ID = uuid.New()
	}
	return db.Create(value).Error
}

func (r *GormCustomFieldRepository) DeleteValuesForDocument(_ context.Context, tx *gorm.DB, docID uuid.UUID) error {
	return useTx(r.db, tx).Where("document_id = ?", docID).Delete(&models.CustomFieldValue{}).Error
}
