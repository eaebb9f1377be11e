package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) CreateDocument(_ context.Context, tx *gorm.DB, doc *models.Document) error {
	return useTx(r.db, tx).Create(doc).Error
}

func (r *GormDocumentRepository) GetDocument(_ context.Context, tx *gorm.DB, nodeID uuid.UUID) (models.Document, error) {
	var doc models.Document
	err := useTx(r.db, tx).Where("node_id = ?", nodeID).First(&doc).Error
	return doc, err
}

func (r *GormDocumentRepository) UpdateDocument(_ context.Context, tx *gorm.DB, nodeID uuid.UUID, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.Document{}).
		Where("node_id = ?", nodeID).Updates(updates).Error
}

// LastVersion with forUpdate locks the row so concurrent version bumps on
// the same document serialize.
func (r *GormDocumentRepository) LastVersion(_ context.Context, tx *gorm.DB, docID uuid.UUID, forUpdate bool) (models.DocumentVersion, error) {
	db := useTx(r.db, tx)
	if forUpdate {
		db = db.Clauses(forUpdateClause())
	}
	var ver models.DocumentVersion
	err := db.Where("document_id = ?", docID).
		Order("number DESC").First(&ver).Error
	return ver, err
}

func (r *GormDocumentRepository) GetVersion(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.DocumentVersion, error) {
	var ver models.DocumentVersion
	err := useTx(r.db, tx).Where("id = ?", id).First(&ver).Error
	return ver, err
}

func (r *GormDocumentRepository) CreateVersion(_ context.Context, tx *gorm.DB, ver *models.DocumentVersion) error {
	if ver.ID == uuid.Nil {
		ver.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(ver).Error
}

func (r *GormDocumentRepository) UpdateVersion(_ context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.DocumentVersion{}).
		Where("id = ?", id).Updates(updates).Error
}

func (r *GormDocumentRepository) Versions(_ context.Context, tx *gorm.DB, docID uuid.UUID) ([]models.DocumentVersion, error) {
	var vers []models.DocumentVersion
	err := useTx(r.db, tx).Where("document_id = ?", docID).
		Order("number ASC").Find(&vers).Error
	return vers, err
}

func (r *GormDocumentRepository) CreatePages(_ context.Context, tx *gorm.DB, pages []models.Page) error {
	if len(pages) == 0 {
		return nil
	}
	for i := range pages {
		if pages[i].ID == uuid.Nil {
			pages[i].ID = uuid.New()
		}
	}
	return useTx(r.db, tx).Create(&pages).Error
}

func (r *GormDocumentRepository) PagesOfVersion(_ context.Context, tx *gorm.DB, versionID uuid.UUID) ([]models.Page, error) {
	var pages []models.Page
	err := useTx(r.db, tx).Where("document_version_id = ?", versionID).
		Order("number ASC").Find(&pages).Error
	return pages, err
}

func (r *GormDocumentRepository) PagesByIDs(_ context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Page, error) {
	var pages []models.Page
	err := useTx(r.db, tx).Where("id IN ?", ids).
		Order("number ASC").Find(&pages).Error
	return pages, err
}

func (r *GormDocumentRepository) FirstPage(_ context.Context, tx *gorm.DB, versionID uuid.UUID) (models.Page, error) {
	var page models.Page
	err := useTx(r.db, tx).Where("document_version_id = ? AND number = 1", versionID).
		First(&page).Error
	return page, err
}
