package repositories

import (
	"context"
	"time"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormNodeRepository struct {
	db *gorm.DB
}

func NewGormNodeRepository(db *gorm.DB) *GormNodeRepository {
	return &GormNodeRepository{db: db}
}

func (r *GormNodeRepository) Create(_ context.Context, tx *gorm.DB, node *models.Node) error {
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(node).Error
}

func (r *GormNodeRepository) GetByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.Node, error) {
	var node models.Node
	err := useTx(r.db, tx).Where("id = ?", id).First(&node).Error
	return node, err
}

func (r *GormNodeRepository) GetForUpdate(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.Node, error) {
	var node models.Node
	err := useTx(r.db, tx).
		Clauses(forUpdateClause()).
		Where("id = ?", id).First(&node).Error
	return node, err
}

func (r *GormNodeRepository) UpdateTitle(_ context.Context, tx *gorm.DB, id uuid.UUID, title string, updatedBy *uuid.UUID) error {
	return useTx(r.db, tx).Model(&models.Node{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "updated_by": updatedBy}).Error
}

func (r *GormNodeRepository) SetParent(_ context.Context, tx *gorm.DB, ids []uuid.UUID, parentID uuid.UUID, updatedBy *uuid.UUID) (int64, error) {
	res := useTx(r.db, tx).Model(&models.Node{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{"parent_id": parentID, "updated_by": updatedBy})
	return res.RowsAffected, res.Error
}

func (r *GormNodeRepository) CountSiblingFolders(_ context.Context, tx *gorm.DB, parentID uuid.UUID, title string, excludeID uuid.UUID) (int64, error) {
	db := useTx(r.db, tx).Model(&models.Node{}).
		Where("parent_id = ? AND ctype = ? AND title = ?", parentID, models.CTypeFolder, title)
	if excludeID != uuid.Nil {
		db = db.Where("id <> ?", excludeID)
	}
	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *GormNodeRepository) ListByParent(_ context.Context, tx *gorm.DB, parentID uuid.UUID, page, size int, orderBy, filter string) ([]models.Node, int64, error) {
	db := useTx(r.db, tx).Model(&models.Node{}).Where("parent_id = ?", parentID)
	if filter != "" {
		db = db.Where("title ILIKE ?", "%"+filter+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var nodes []models.Node
	err := db.Order(orderBy).
		Limit(size).Offset((page - 1) * size).
		Find(&nodes).Error
	return nodes, total, err
}

const ancestorsCTE = `
WITH RECURSIVE chain AS (
    SELECT id, title, ctype, parent_id, 0 AS depth
    FROM nodes WHERE id = ? AND deleted_at IS NULL
    UNION ALL
    SELECT n.id, n.title, n.ctype, n.parent_id, c.depth + 1
    FROM nodes n JOIN chain c ON n.id = c.parent_id
    WHERE n.deleted_at IS NULL
)
SELECT id, title, ctype, parent_id AS parent FROM chain ORDER BY depth DESC`

// Ancestors returns the chain root-first; the node itself is last when
// includeSelf is set.
func (r *GormNodeRepository) Ancestors(_ context.Context, tx *gorm.DB, id uuid.UUID, includeSelf bool) ([]models.NodeLite, error) {
	var chain []models.NodeLite
	if err := useTx(r.db, tx).Raw(ancestorsCTE, id).Scan(&chain).Error; err != nil {
		return nil, err
	}
	if !includeSelf && len(chain) > 0 {
		chain = chain[:len(chain)-1]
	}
	return chain, nil
}

const descendantsCTE = `
WITH RECURSIVE subtree AS (
    SELECT id, 0 AS depth FROM nodes WHERE id IN ?
    UNION ALL
    SELECT n.id, s.depth + 1 FROM nodes n JOIN subtree s ON n.parent_id = s.id
)
SELECT id FROM subtree %s ORDER BY depth`

func (r *GormNodeRepository) Descendants(_ context.Context, tx *gorm.DB, ids []uuid.UUID, includeSelf bool) ([]uuid.UUID, error) {
	filter := ""
	if !includeSelf {
		filter = "WHERE depth > 0"
	}
	var out []uuid.UUID
	err := useTx(r.db, tx).Raw(sprintfQuery(descendantsCTE, filter), ids).Scan(&out).Error
	return out, err
}

const softDeleteSubtreeSQL = `
WITH RECURSIVE subtree AS (
    SELECT id FROM nodes WHERE id IN ?
    UNION ALL
    SELECT n.id FROM nodes n JOIN subtree s ON n.parent_id = s.id
)
UPDATE nodes SET deleted_at = now(), deleted_by = ?
WHERE id IN (SELECT id FROM subtree) AND deleted_at IS NULL`

func (r *GormNodeRepository) SoftDeleteSubtree(_ context.Context, tx *gorm.DB, rootIDs []uuid.UUID, deletedBy *uuid.UUID) (int64, error) {
	res := useTx(r.db, tx).Exec(softDeleteSubtreeSQL, rootIDs, deletedBy)
	return res.RowsAffected, res.Error
}

func (r *GormNodeRepository) PurgeDeletedBefore(_ context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := useTx(r.db, tx)

	var ids []uuid.UUID
	if err := db.Model(&models.Node{}).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := db.Exec(`DELETE FROM pages WHERE document_version_id IN
		(SELECT id FROM document_versions WHERE document_id IN ?)`, ids).Error; err != nil {
		return 0, err
	}
	if err := db.Exec(`DELETE FROM document_versions WHERE document_id IN ?`, ids).Error; err != nil {
		return 0, err
	}
	if err := db.Exec(`DELETE FROM custom_field_values WHERE document_id IN ?`, ids).Error; err != nil {
		return 0, err
	}
	if err := db.Exec(`DELETE FROM documents WHERE node_id IN ?`, ids).Error; err != nil {
		return 0, err
	}
	if err := db.Exec(`DELETE FROM nodes_tags WHERE node_id IN ?`, ids).Error; err != nil {
		return 0, err
	}
	if err := db.Exec(`DELETE FROM shared_nodes WHERE node_id IN ?`, ids).Error; err != nil {
		return 0, err
	}
	if err := db.Exec(`DELETE FROM ownerships WHERE resource_type = 'node' AND resource_id IN ?`, ids).Error; err != nil {
		return 0, err
	}

	res := db.Unscoped().Where("id IN ?", ids).Delete(&models.Node{})
	return res.RowsAffected, res.Error
}

func (r *GormNodeRepository) GetTags(_ context.Context, tx *gorm.DB, nodeID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := useTx(r.db, tx).Model(&models.Node{ID: nodeID}).
		Order("tags.name ASC").
		Association("Tags").Find(&tags)
	return tags, err
}

func (r *GormNodeRepository) ReplaceTags(_ context.Context, tx *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error {
	return useTx(r.db, tx).Model(&models.Node{ID: nodeID}).
		Association("Tags").Replace(toTagRefs(tags))
}

func (r *GormNodeRepository) AppendTags(_ context.Context, tx *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error {
	return useTx(r.db, tx).Model(&models.Node{ID: nodeID}).
		Association("Tags").Append(toTagRefs(tags))
}

func (r *GormNodeRepository) RemoveTags(_ context.Context, tx *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error {
	return useTx(r.db, tx).Model(&models.Node{ID: nodeID}).
		Association("Tags").Delete(toTagRefs(tags))
}

const ownerOfSQL = `
WITH RECURSIVE chain AS (
    SELECT id, parent_id, 0 AS depth FROM nodes WHERE id = ?
    UNION ALL
    SELECT n.id, n.parent_id, c.depth + 1 FROM nodes n JOIN chain c ON n.id = c.parent_id
)
SELECT ow.* FROM ownerships ow
JOIN chain ch ON ow.resource_id = ch.id AND ow.resource_type = 'node'
ORDER BY ch.depth LIMIT 1`

// OwnerOf resolves the ownership row on the nearest ancestor carrying one.
func (r *GormNodeRepository) OwnerOf(_ context.Context, tx *gorm.DB, nodeID uuid.UUID) (models.Ownership, error) {
	var own models.Ownership
	err := useTx(r.db, tx).Raw(ownerOfSQL, nodeID).Scan(&own).Error
	if err == nil && own.ID == uuid.Nil {
		return own, gorm.ErrRecordNotFound
	}
	return own, err
}

func (r *GormNodeRepository) SetOwnership(_ context.Context, tx *gorm.DB, nodeID uuid.UUID, ownerType string, ownerID uuid.UUID) error {
	db := useTx(r.db, tx)
	res := db.Model(&models.Ownership{}).
		Where("resource_type = 'node' AND resource_id = ?", nodeID).
		Updates(map[string]interface{}{"owner_type": ownerType, "owner_id": ownerID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return db.Create(&models.Ownership{
		ID:           uuid.New(),
		ResourceType: "node",
		ResourceID:   nodeID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
	}).Error
}

func (r *GormNodeRepository) DeleteOwnership(_ context.Context, tx *gorm.DB, nodeID uuid.UUID) error {
	return useTx(r.db, tx).
		Where("resource_type = 'node' AND resource_id = ?", nodeID).
		Delete(&models.Ownership{}).Error
}

func (r *GormNodeRepository) SpecialFolderOf(_ context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID, folderType string) (uuid.UUID, error) {
	var sf models.SpecialFolder
	err := useTx(r.db, tx).
		Where("owner_type = ? AND owner_id = ? AND folder_type = ?", ownerType, ownerID, folderType).
		First(&sf).Error
	return sf.FolderID, err
}

func (r *GormNodeRepository) CreateSpecialFolder(_ context.Context, tx *gorm.DB, sf *models.SpecialFolder) error {
	if sf.ID == uuid.Nil {
		sf.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(sf).Error
}

func (r *GormNodeRepository) SpecialFolderKind(_ context.Context, tx *gorm.DB, folderID uuid.UUID) (string, error) {
	var sf models.SpecialFolder
	err := useTx(r.db, tx).Where("folder_id = ?", folderID).First(&sf).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return sf.FolderType, nil
}

func toTagRefs(tags []models.Tag) []models.Tag {
	refs := make([]models.Tag, len(tags))
	for i, t := range tags {
		refs[i] = models.Tag{ID: t.ID}
	}
	return refs
}
