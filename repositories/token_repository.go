package repositories

import (
	"context"
	"time"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormTokenRepository struct {
	db *gorm.DB
}

func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) Create(_ context.Context, tx *gorm.DB, token *models.APIToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(token).Error
}

func (r *GormTokenRepository) GetByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.APIToken, error) {
	var token models.APIToken
	err := useTx(r.db, tx).Where("id = ?", id).First(&token).Error
	return token, err
}

func (r *GormTokenRepository) GetByHash(_ context.Context, tx *gorm.DB, hash string) (models.APIToken, error) {
	var token models.APIToken
	err := useTx(r.db, tx).Where("token_hash = ?", hash).First(&token).Error
	return token, err
}

func (r *GormTokenRepository) ListByUser(_ context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.APIToken, error) {
	var tokens []models.APIToken
	err := useTx(r.db, tx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}

func (r *GormTokenRepository) Delete(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	return useTx(r.db, tx).Where("id = ?", id).Delete(&models.APIToken{}).Error
}

func (r *GormTokenRepository) TouchLastUsed(_ context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return useTx(r.db, tx).Model(&models.APIToken{}).
		Where("id = ?", id).Update("last_used_at", at).Error
}
