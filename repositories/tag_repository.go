package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormTagRepository struct {
	db *gorm.DB
}

func NewGormTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{db: db}
}

func (r *GormTagRepository) GetByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.Tag, error) {
	var tag models.Tag
	err := useTx(r.db, tx).Where("id = ?", id).First(&tag).Error
	return tag, err
}

func (r *GormTagRepository) ListByOwner(_ context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := useTx(r.db, tx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("name ASC").Find(&tags).Error
	return tags, err
}

// GetOrCreateByNames resolves names in the caller's owner scope, creating
// any that do not exist yet.
func (r *GormTagRepository) GetOrCreateByNames(_ context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID, names []string) ([]models.Tag, error) {
	db := useTx(r.db, tx)

	var existing []models.Tag
	if err := db.
		Where("owner_type = ? AND owner_id = ? AND name IN ?", ownerType, ownerID, names).
		Find(&existing).Error; err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t.Name] = true
	}

	out := existing
	for _, name := range names {
		if known[name] {
			continue
		}
		known[name] = true
		tag := models.Tag{
			ID:        uuid.New(),
			Name:      name,
			OwnerType: ownerType,
			OwnerID:   ownerID,
		}
		if err := db.Create(&tag).Error; err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}

func (r *GormTagRepository) Create(_ context.Context, tx *gorm.DB, tag *models.Tag) error {
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(tag).Error
}

func (r *GormTagRepository) Update(_ context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.Tag{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes the tag and its node associations; nodes stay untouched.
func (r *GormTagRepository) Delete(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := useTx(r.db, tx)
	if err := db.Exec(`DELETE FROM nodes_tags WHERE tag_id = ?`, id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Tag{}).Error
}
