package services

import (
	"context"
	"errors"
	"strings"

	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Content types the upload path accepts. Non-PDF inputs get a derived
// PDF version produced by the external converter.
var supportedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
}

type DocumentService interface {
	CreateDocument(ctx context.Context, actor Actor, parentID uuid.UUID, title, lang string, ocr bool) (models.Node, models.Document, error)
	GetDocument(ctx context.Context, actor Actor, nodeID uuid.UUID) (models.Node, models.Document, error)
	Upload(ctx context.Context, actor Actor, docID uuid.UUID, content []byte, fileName string, contentType string) (models.DocumentVersion, error)

	VersionBump(ctx context.Context, docID uuid.UUID, pageCount int) (models.DocumentVersion, error)
	VersionBumpFromPages(ctx context.Context, tx *gorm.DB, srcPages []models.Page, dstDocID uuid.UUID) (models.DocumentVersion, error)

	LastVersion(ctx context.Context, actor Actor, docID uuid.UUID) (models.DocumentVersion, error)
	GetVersion(ctx context.Context, actor Actor, versionID uuid.UUID) (models.DocumentVersion, error)
	LastVersionPages(ctx context.Context, actor Actor, docID uuid.UUID) ([]models.Page, error)
	Versions(ctx context.Context, actor Actor, docID uuid.UUID) ([]models.DocumentVersion, error)

	SetDocumentType(ctx context.Context, actor Actor, docID uuid.UUID, typeID *uuid.UUID) error
	UpdateDocCFV(ctx context.Context, actor Actor, docID uuid.UUID, values map[string]interface{}) ([]models.CustomFieldValue, error)
	GetDocCFV(ctx context.Context, actor Actor, docID uuid.UUID) ([]models.CustomFieldValue, error)
}

type documentService struct {
	txManager    TxManager
	nodes        repositories.NodeRepository
	documents    repositories.DocumentRepository
	customFields repositories.CustomFieldRepository
	shared       repositories.SharedNodeRepository
	auditLog     repositories.AuditLogRepository
	blobs        BlobStore
	dispatcher   CollabDispatcher
	maxFileSize  int64
}

func NewDocumentService(
	txManager TxManager,
	nodes repositories.NodeRepository,
	documents repositories.DocumentRepository,
	customFields repositories.CustomFieldRepository,
	shared repositories.SharedNodeRepository,
	auditLog repositories.AuditLogRepository,
	blobs BlobStore,
	dispatcher CollabDispatcher,
	maxFileSizeMB int64,
) DocumentService {
	return &documentService{
		txManager:    txManager,
		nodes:        nodes,
		documents:    documents,
		customFields: customFields,
		shared:       shared,
		auditLog:     auditLog,
		blobs:        blobs,
		dispatcher:   dispatcher,
		maxFileSize:  maxFileSizeMB * 1024 * 1024,
	}
}

func (s *documentService) requirePerm(ctx context.Context, actor Actor, nodeID uuid.UUID, codename string) error {
	return requireNodePerm(ctx, s.nodes, s.shared, actor, nodeID, codename)
}

func (s *documentService) writeAudit(ctx context.Context, tx *gorm.DB, table string, recordID uuid.UUID, op string) error {
	return s.auditLog.Insert(ctx, tx, &models.AuditLog{
		Table:     table,
		RecordID:  recordID,
		Operation: op,
		Timestamp: nowUTC(),
		UserID:    auditActor(ctx),
		Username:  auditUsername(ctx),
	})
}

// CreateDocument creates the node, the document extension row and the
// initial empty version (number=1, size=0, page_count=0).
func (s *documentService) CreateDocument(ctx context.Context, actor Actor, parentID uuid.UUID, title, lang string, ocr bool) (models.Node, models.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return models.Node{}, models.Document{}, errValidation("document title must be between 1 and 200 characters")
	}

	parent, err := s.nodes.GetByID(ctx, nil, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Node{}, models.Document{}, errNotFound("parent folder")
		}
		return models.Node{}, models.Document{}, errInternal("failed to load parent folder", err)
	}
	if parent.CType != models.CTypeFolder {
		return models.Node{}, models.Document{}, errValidation("parent node is not a folder")
	}
	if err := s.requirePerm(ctx, actor, parentID, "node.create"); err != nil {
		return models.Node{}, models.Document{}, err
	}
	if lang == "" {
		lang = parent.Lang
	}

	actorID := actor.User.ID
	node := models.Node{
		ID:        uuid.New(),
		Title:     title,
		CType:     models.CTypeDocument,
		Lang:      lang,
		ParentID:  &parentID,
		CreatedBy: &actorID,
		UpdatedBy: &actorID,
	}
	doc := models.Document{
		NodeID:    node.ID,
		OCR:       ocr,
		OCRStatus: models.OCRStatusUnknown,
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.nodes.Create(ctx, tx, &node); err != nil {
			return errInternal("failed to create document node", err)
		}
		if err := s.documents.CreateDocument(ctx, tx, &doc); err != nil {
			return errInternal("failed to create document", err)
		}
		ver := models.DocumentVersion{
			ID:         uuid.New(),
			DocumentID: node.ID,
			Number:     1,
			Lang:       lang,
		}
		if err := s.documents.CreateVersion(ctx, tx, &ver); err != nil {
			return errInternal("failed to create initial version", err)
		}
		return s.writeAudit(ctx, tx, "nodes", node.ID, models.AuditOpInsert)
	})
	if err != nil {
		return models.Node{}, models.Document{}, err
	}
	return node, doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, actor Actor, nodeID uuid.UUID) (models.Node, models.Document, error) {
	node, err := s.nodes.GetByID(ctx, nil, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Node{}, models.Document{}, errNotFound("document")
		}
		return models.Node{}, models.Document{}, errInternal("failed to load document node", err)
	}
	if err := s.requirePerm(ctx, actor, nodeID, "node.view"); err != nil {
		return models.Node{}, models.Document{}, err
	}
	doc, err := s.documents.GetDocument(ctx, nil, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Node{}, models.Document{}, errNotFound("document")
		}
		return models.Node{}, models.Document{}, errInternal("failed to load document", err)
	}
	return node, doc, nil
}

// Upload attaches content to the current version when it is still empty,
// otherwise bumps a new version. Version assignment runs under a row
// lock on the latest version so concurrent uploads serialize.
func (s *documentService) Upload(ctx context.Context, actor Actor, docID uuid.UUID, content []byte, fileName, contentType string) (models.DocumentVersion, error) {
	if !supportedContentTypes[contentType] {
		return models.DocumentVersion{}, errFileTypeNotSupported(contentType)
	}
	if s.maxFileSize > 0 && int64(len(content)) > s.maxFileSize {
		return models.DocumentVersion{}, errValidation("file exceeds the maximum upload size")
	}
	if _, _, err := s.GetDocument(ctx, actor, docID); err != nil {
		return models.DocumentVersion{}, err
	}
	if err := s.requirePerm(ctx, actor, docID, "document.upload"); err != nil {
		return models.DocumentVersion{}, err
	}

	var target models.DocumentVersion
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		last, err := s.documents.LastVersion(ctx, tx, docID, true)
		if err != nil {
			return errInternal("failed to load last version", err)
		}

		if last.Size == 0 && last.FileName == nil {
			if err := s.documents.UpdateVersion(ctx, tx, last.ID, map[string]interface{}{
				"file_name": fileName,
				"size":      int64(len(content)),
			}); err != nil {
				return errInternal("failed to attach upload", err)
			}
			last.FileName = &fileName
			last.Size = int64(len(content))
			target = last
		} else {
			target = models.DocumentVersion{
				ID:         uuid.New(),
				DocumentID: docID,
				Number:     last.Number + 1,
				FileName:   &fileName,
				Lang:       last.Lang,
				Size:       int64(len(content)),
			}
			if err := s.documents.CreateVersion(ctx, tx, &target); err != nil {
				return errInternal("failed to create new version", err)
			}
		}

		if err := s.documents.UpdateDocument(ctx, tx, docID, map[string]interface{}{
			"preview_status": models.PreviewStatusPending,
			"preview_error":  nil,
		}); err != nil {
			return errInternal("failed to mark preview pending", err)
		}
		return s.writeAudit(ctx, tx, "document_versions", target.ID, models.AuditOpInsert)
	})
	if err != nil {
		return models.DocumentVersion{}, err
	}

	if _, err := s.blobs.Put(target.ID, fileName, content); err != nil {
		return models.DocumentVersion{}, errInternal("failed to store upload", err)
	}

	if contentType != "application/pdf" {
		// The converter materializes the derived PDF as the next
		// version out of band.
		if err := s.dispatcher.EnqueuePDFConversion(ctx, docID, target.ID); err != nil {
			return models.DocumentVersion{}, errInternal("failed to enqueue pdf conversion", err)
		}
	}
	if err := s.dispatcher.EnqueuePreview(ctx, docID); err != nil {
		return models.DocumentVersion{}, errInternal("failed to enqueue preview", err)
	}
	if err := s.dispatcher.EnqueueOCR(ctx, docID, target.Lang); err != nil {
		return models.DocumentVersion{}, errInternal("failed to enqueue ocr", err)
	}
	return target, nil
}

// VersionBump creates the next version with pageCount fresh pages
// numbered 1..N.
func (s *documentService) VersionBump(ctx context.Context, docID uuid.UUID, pageCount int) (models.DocumentVersion, error) {
	var ver models.DocumentVersion
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		last, err := s.documents.LastVersion(ctx, tx, docID, true)
		if err != nil {
			return errInternal("failed to load last version", err)
		}
		ver = models.DocumentVersion{
			ID:         uuid.New(),
			DocumentID: docID,
			Number:     last.Number + 1,
			Lang:       last.Lang,
			PageCount:  pageCount,
		}
		if err := s.documents.CreateVersion(ctx, tx, &ver); err != nil {
			return errInternal("failed to create version", err)
		}
		pages := make([]models.Page, pageCount)
		for i := 0; i < pageCount; i++ {
			pages[i] = models.Page{
				ID:                uuid.New(),
				DocumentVersionID: ver.ID,
				Number:            i + 1,
			}
		}
		if err := s.documents.CreatePages(ctx, tx, pages); err != nil {
			return errInternal("failed to create pages", err)
		}
		return s.writeAudit(ctx, tx, "document_versions", ver.ID, models.AuditOpInsert)
	})
	return ver, err
}

// VersionBumpFromPages materializes srcPages (possibly from another
// document) as the destination's next version, carrying per-page text
// and setting the version text to the whitespace-joined concatenation.
func (s *documentService) VersionBumpFromPages(ctx context.Context, tx *gorm.DB, srcPages []models.Page, dstDocID uuid.UUID) (models.DocumentVersion, error) {
	last, err := s.documents.LastVersion(ctx, tx, dstDocID, true)
	if err != nil {
		return models.DocumentVersion{}, errInternal("failed to load last version", err)
	}

	ver := models.DocumentVersion{
		ID:         uuid.New(),
		DocumentID: dstDocID,
		Number:     last.Number + 1,
		FileName:   last.FileName,
		Lang:       last.Lang,
		PageCount:  len(srcPages),
	}

	pages := make([]models.Page, len(srcPages))
	var texts []string
	for i, src := range srcPages {
		pages[i] = models.Page{
			ID:                uuid.New(),
			DocumentVersionID: ver.ID,
			Number:            i + 1,
			Rotation:          src.Rotation,
			Text:              src.Text,
		}
		if src.Text != nil && *src.Text != "" {
			texts = append(texts, *src.Text)
		}
	}
	if len(texts) > 0 {
		joined := strings.Join(texts, " ")
		ver.Text = &joined
	}

	if err := s.documents.CreateVersion(ctx, tx, &ver); err != nil {
		return models.DocumentVersion{}, errInternal("failed to create version", err)
	}
	if err := s.documents.CreatePages(ctx, tx, pages); err != nil {
		return models.DocumentVersion{}, errInternal("failed to create pages", err)
	}
	return ver, nil
}

func (s *documentService) LastVersion(ctx context.Context, actor Actor, docID uuid.UUID) (models.DocumentVersion, error) {
	if err := s.requirePerm(ctx, actor, docID, "node.view"); err != nil {
		return models.DocumentVersion{}, err
	}
	ver, err := s.documents.LastVersion(ctx, nil, docID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DocumentVersion{}, errNotFound("document version")
		}
		return models.DocumentVersion{}, errInternal("failed to load version", err)
	}
	return ver, nil
}

func (s *documentService) GetVersion(ctx context.Context, actor Actor, versionID uuid.UUID) (models.DocumentVersion, error) {
	ver, err := s.documents.GetVersion(ctx, nil, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DocumentVersion{}, errNotFound("document version")
		}
		return models.DocumentVersion{}, errInternal("failed to load version", err)
	}
	if err := s.requirePerm(ctx, actor, ver.DocumentID, "node.view"); err != nil {
		return models.DocumentVersion{}, err
	}
	return ver, nil
}

func (s *documentService) LastVersionPages(ctx context.Context, actor Actor, docID uuid.UUID) ([]models.Page, error) {
	ver, err := s.LastVersion(ctx, actor, docID)
	if err != nil {
		return nil, err
	}
	pages, err := s.documents.PagesOfVersion(ctx, nil, ver.ID)
	if err != nil {
		return nil, errInternal("failed to load pages", err)
	}
	return pages, nil
}

func (s *documentService) Versions(ctx context.Context, actor Actor, docID uuid.UUID) ([]models.DocumentVersion, error) {
	if err := s.requirePerm(ctx, actor, docID, "node.view"); err != nil {
		return nil, err
	}
	vers, err := s.documents.Versions(ctx, nil, docID)
	if err != nil {
		return nil, errInternal("failed to load versions", err)
	}
	return vers, nil
}

// SetDocumentType clears the document's custom-field values; they only
// make sense against the active type's field set.
func (s *documentService) SetDocumentType(ctx context.Context, actor Actor, docID uuid.UUID, typeID *uuid.UUID) error {
	if _, _, err := s.GetDocument(ctx, actor, docID); err != nil {
		return err
	}
	if err := s.requirePerm(ctx, actor, docID, "node.update"); err != nil {
		return err
	}
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.documents.UpdateDocument(ctx, tx, docID, map[string]interface{}{
			"document_type_id": typeID,
		}); err != nil {
			return errInternal("failed to set document type", err)
		}
		if err := s.customFields.DeleteValuesForDocument(ctx, tx, docID); err != nil {
			return errInternal("failed to clear custom field values", err)
		}
		return s.writeAudit(ctx, tx, "documents", docID, models.AuditOpUpdate)
	})
}

// UpdateDocCFV upserts one value row per named field of the document's
// type, coerced through the field's type handler.
func (s *documentService) UpdateDocCFV(ctx context.Context, actor Actor, docID uuid.UUID, values map[string]interface{}) ([]models.CustomFieldValue, error) {
	_, doc, err := s.GetDocument(ctx, actor, docID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePerm(ctx, actor, docID, "node.update"); err != nil {
		return nil, err
	}
	if doc.DocumentTypeID == nil {
		return nil, errValidation("document has no document type")
	}

	fields, err := s.customFields.FieldsForType(ctx, nil, *doc.DocumentTypeID)
	if err != nil {
		return nil, errInternal("failed to load custom fields", err)
	}
	byName := make(map[string]models.CustomField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		for name, raw := range values {
			field, ok := byName[name]
			if !ok {
				return errValidation("unknown custom field name: " + name)
			}
			handler, err := HandlerFor(field.TypeHandler)
			if err != nil {
				return errValidation(err.Error())
			}
			cfg, err := handler.ParseConfig(field.Config)
			if err != nil {
				return errValidation(err.Error())
			}
			row, err := handler.Coerce(raw, cfg)
			if err != nil {
				return errValidation(err.Error())
			}
			row.DocumentID = docID
			row.FieldID = field.ID
			if err := s.customFields.UpsertValue(ctx, tx, &row); err != nil {
				return errInternal("failed to store custom field value", err)
			}
			if err := s.writeAudit(ctx, tx, "custom_field_values", row.ID, models.AuditOpUpdate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetDocCFV(ctx, actor, docID)
}

func (s *documentService) GetDocCFV(ctx context.Context, actor Actor, docID uuid.UUID) ([]models.CustomFieldValue, error) {
	if err := s.requirePerm(ctx, actor, docID, "node.view"); err != nil {
		return nil, err
	}
	values, err := s.customFields.ValuesForDocument(ctx, nil, docID)
	if err != nil {
		return nil, errInternal("failed to load custom field values", err)
	}
	return values, nil
}
