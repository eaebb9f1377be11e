package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormSharedNodeRepository struct {
	db *gorm.DB
}

func NewGormSharedNodeRepository(db *gorm.DB) *GormSharedNodeRepository {
	return &GormSharedNodeRepository{db: db}
}

// CreateGrants is idempotent: duplicate (node, principal, role) rows are
// skipped.
func (r *GormSharedNodeRepository) CreateGrants(_ context.Context, tx *gorm.DB, grants []models.SharedNode) (int64, error) {
	if len(grants) == 0 {
		return 0, nil
	}
	for i := range grants {
		if grants[i].ID == uuid.Nil {
			grants[i].ID = uuid.New()
		}
	}
	res := useTx(r.db, tx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grants)
	return res.RowsAffected, res.Error
}

func (r *GormSharedNodeRepository) ListByNode(_ context.Context, tx *gorm.DB, nodeID uuid.UUID) ([]models.SharedNode, error) {
	var grants []models.SharedNode
	err := useTx(r.db, tx).Where("node_id = ?", nodeID).Find(&grants).Error
	return grants, err
}

func (r *GormSharedNodeRepository) Delete(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	return useTx(r.db, tx).Where("id = ?", id).Delete(&models.SharedNode{}).Error
}

const hasGrantSQL = `
SELECT count(1) FROM shared_nodes sn
JOIN roles_permissions rp ON rp.role_id = sn.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE sn.node_id IN ? AND p.codename = ? AND (sn.user_id = ? OR sn.group_id IN ?)`

func (r *GormSharedNodeRepository) HasGrant(_ context.Context, tx *gorm.DB, nodeIDs []uuid.UUID, userID uuid.UUID, groupIDs []uuid.UUID, codename string) (bool, error) {
	if len(nodeIDs) == 0 {
		return false, nil
	}
	if len(groupIDs) == 0 {
		// IN over an empty list is invalid SQL; use an impossible id.
		groupIDs = []uuid.UUID{uuid.Nil}
	}
	var count int64
	err := useTx(r.db, tx).Raw(hasGrantSQL, nodeIDs, codename, userID, groupIDs).Scan(&count).Error
	return count > 0, err
}

func (r *GormSharedNodeRepository) GrantedNodeIDs(_ context.Context, tx *gorm.DB, userID uuid.UUID, groupIDs []uuid.UUID) ([]uuid.UUID, error) {
	db := useTx(r.db, tx).Model(&models.SharedNode{})
	if len(groupIDs) > 0 {
		db = db.Where("user_id = ? OR group_id IN ?", userID, groupIDs)
	} else {
		db = db.Where("user_id = ?", userID)
	}
	var ids []uuid.UUID
	err := db.Distinct().Pluck("node_id", &ids).Error
	return ids, err
}
