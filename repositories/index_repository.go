package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormIndexRepository struct {
	db *gorm.DB
}

func NewGormIndexRepository(db *gorm.DB) *GormIndexRepository {
	return &GormIndexRepository{db: db}
}

// RebuildAll truncates the index and repopulates it from the canonical
// tables in one transaction.
func (r *GormIndexRepository) RebuildAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`TRUNCATE document_search_index`).Error; err != nil {
			return err
		}
		return tx.Exec(`
			SELECT dsi_refresh(d.node_id)
			FROM documents d
			JOIN nodes n ON n.id = d.node_id
			WHERE n.deleted_at IS NULL`).Error
	})
}

func (r *GormIndexRepository) Reindex(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		SELECT dsi_refresh(d.node_id)
		FROM documents d WHERE d.node_id IN ?`, ids).Error
}

func (r *GormIndexRepository) FindUnindexed(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT d.node_id FROM documents d
		JOIN nodes n ON n.id = d.node_id AND n.deleted_at IS NULL
		LEFT JOIN document_search_index dsi ON dsi.document_id = d.node_id
		WHERE dsi.document_id IS NULL`).Scan(&ids).Error
	return ids, err
}

func (r *GormIndexRepository) Stats(ctx context.Context) (models.IndexStats, error) {
	var stats models.IndexStats
	db := r.db.WithContext(ctx)

	err := db.Raw(`
		SELECT count(1) FROM documents d
		JOIN nodes n ON n.id = d.node_id AND n.deleted_at IS NULL`).
		Scan(&stats.TotalDocuments).Error
	if err != nil {
		return stats, err
	}
	if err := db.Raw(`SELECT count(1) FROM document_search_index`).Scan(&stats.Indexed).Error; err != nil {
		return stats, err
	}
	stats.Missing = stats.TotalDocuments - stats.Indexed
	if stats.Missing < 0 {
		stats.Missing = 0
	}
	err = db.Raw(`SELECT pg_total_relation_size('document_search_index')`).
		Scan(&stats.IndexSizeBytes).Error
	return stats, err
}

func (r *GormIndexRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec(`TRUNCATE document_search_index`).Error
}
