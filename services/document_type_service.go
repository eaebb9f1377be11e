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

type DocumentTypeInput struct {
	Name           string      `json:"name"`
	PathTemplate   string      `json:"path_template"`
	CustomFieldIDs []uuid.UUID `json:"custom_field_ids"`
}

type DocumentTypeService interface {
	ListDocumentTypes(ctx context.Context, actor Actor) ([]models.DocumentType, error)
	GetDocumentType(ctx context.Context, actor Actor, id uuid.UUID) (models.DocumentType, error)
	CreateDocumentType(ctx context.Context, actor Actor, in DocumentTypeInput) (models.DocumentType, error)
	UpdateDocumentType(ctx context.Context, actor Actor, id uuid.UUID, in DocumentTypeInput) (models.DocumentType, error)
	DeleteDocumentType(ctx context.Context, actor Actor, id uuid.UUID) error
}

type documentTypeService struct {
	txManager     TxManager
	documentTypes repositories.DocumentTypeRepository
	customFields  repositories.CustomFieldRepository
	auditLog      repositories.AuditLogRepository
}

func NewDocumentTypeService(
	txManager TxManager,
	documentTypes repositories.DocumentTypeRepository,
	customFields repositories.CustomFieldRepository,
	auditLog repositories.AuditLogRepository,
) DocumentTypeService {
	return &documentTypeService{
		txManager:     txManager,
		documentTypes: documentTypes,
		customFields:  customFields,
		auditLog:      auditLog,
	}
}

func (s *documentTypeService) ListDocumentTypes(ctx context.Context, actor Actor) ([]models.DocumentType, error) {
	types, err := s.documentTypes.ListByOwner(ctx, nil, models.OwnerTypeUser, actor.User.ID)
	if err != nil {
		return nil, errInternal("failed to list document types", err)
	}
	return types, nil
}

func (s *documentTypeService) getOwned(ctx context.Context, actor Actor, id uuid.UUID) (models.DocumentType, error) {
	dt, err := s.documentTypes.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DocumentType{}, errNotFound("document type")
		}
		return models.DocumentType{}, errInternal("failed to load document type", err)
	}
	if !actor.User.IsSuperuser && !(dt.OwnerType == models.OwnerTypeUser && dt.OwnerID == actor.User.ID) &&
		!(dt.OwnerType == models.OwnerTypeGroup && actor.IsMemberOf(dt.OwnerID)) {
		return models.DocumentType{}, errForbidden("document type belongs to another owner")
	}
	return dt, nil
}

func (s *documentTypeService) GetDocumentType(ctx context.Context, actor Actor, id uuid.UUID) (models.DocumentType, error) {
	return s.getOwned(ctx, actor, id)
}

// checkFieldIDs verifies every referenced custom field exists and is
// visible to the actor.
func (s *documentTypeService) checkFieldIDs(ctx context.Context, actor Actor, ids []uuid.UUID) error {
	for _, fid := range ids {
		field, err := s.customFields.GetByID(ctx, nil, fid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errValidation("unknown custom field id: " + fid.String())
			}
			return errInternal("failed to load custom field", err)
		}
		if !actor.User.IsSuperuser && !(field.OwnerType == models.OwnerTypeUser && field.OwnerID == actor.User.ID) &&
			!(field.OwnerType == models.OwnerTypeGroup && actor.IsMemberOf(field.OwnerID)) {
			return errForbidden("custom field belongs to another owner")
		}
	}
	return nil
}

func (s *documentTypeService) CreateDocumentType(ctx context.Context, actor Actor, in DocumentTypeInput) (models.DocumentType, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.DocumentType{}, errValidation("document type name must not be empty")
	}
	if err := s.checkFieldIDs(ctx, actor, in.CustomFieldIDs); err != nil {
		return models.DocumentType{}, err
	}
	actorID := actor.User.ID
	dt := models.DocumentType{
		ID:        uuid.New(),
		Name:      in.Name,
		OwnerType: models.OwnerTypeUser,
		OwnerID:   actorID,
		CreatedBy: &actorID,
		UpdatedBy: &actorID,
	}
	if in.PathTemplate != "" {
		dt.PathTemplate = &in.PathTemplate
	}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.documentTypes.Create(ctx, tx, &dt); err != nil {
			return errInternal("failed to create document type", err)
		}
		if err := s.documentTypes.SetFields(ctx, tx, dt.ID, in.CustomFieldIDs); err != nil {
			return errInternal("failed to attach custom fields", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "document_types",
			RecordID:  dt.ID,
			Operation: models.AuditOpInsert,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.DocumentType{}, err
	}
	return s.getOwned(ctx, actor, dt.ID)
}

func (s *documentTypeService) UpdateDocumentType(ctx context.Context, actor Actor, id uuid.UUID, in DocumentTypeInput) (models.DocumentType, error) {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return models.DocumentType{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.DocumentType{}, errValidation("document type name must not be empty")
	}
	if err := s.checkFieldIDs(ctx, actor, in.CustomFieldIDs); err != nil {
		return models.DocumentType{}, err
	}
	actorID := actor.User.ID
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.documentTypes.Update(ctx, tx, id, map[string]interface{}{
			"name":          in.Name,
			"path_template": in.PathTemplate,
			"updated_by":    actorID,
		}); err != nil {
			return errInternal("failed to update document type", err)
		}
		if err := s.documentTypes.SetFields(ctx, tx, id, in.CustomFieldIDs); err != nil {
			return errInternal("failed to attach custom fields", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "document_types",
			RecordID:  id,
			Operation: models.AuditOpUpdate,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.DocumentType{}, err
	}
	return s.getOwned(ctx, actor, id)
}

// DeleteDocumentType refuses while documents still reference the type.
func (s *documentTypeService) DeleteDocumentType(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return err
	}
	count, err := s.documentTypes.CountDocuments(ctx, nil, id)
	if err != nil {
		return errInternal("failed to count documents", err)
	}
	if count > 0 {
		return errDependenciesExist("document type is still referenced by documents")
	}
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.documentTypes.Delete(ctx, tx, id); err != nil {
			return errInternal("failed to delete document type", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "document_types",
			RecordID:  id,
			Operation: models.AuditOpDelete,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
}
