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

type CustomFieldInput struct {
	Name        string  `json:"name"`
	TypeHandler string  `json:"type_handler"`
	Config      *string `json:"config"`
}

type CustomFieldService interface {
	ListCustomFields(ctx context.Context, actor Actor) ([]models.CustomField, error)
	GetCustomField(ctx context.Context, actor Actor, id uuid.UUID) (models.CustomField, error)
	CreateCustomField(ctx context.Context, actor Actor, in CustomFieldInput) (models.CustomField, error)
	UpdateCustomField(ctx context.Context, actor Actor, id uuid.UUID, in CustomFieldInput) (models.CustomField, error)
	DeleteCustomField(ctx context.Context, actor Actor, id uuid.UUID) error
}

type customFieldService struct {
	txManager    TxManager
	customFields repositories.CustomFieldRepository
	auditLog     repositories.AuditLogRepository
}

func NewCustomFieldService(txManager TxManager, customFields repositories.CustomFieldRepository, auditLog repositories.AuditLogRepository) CustomFieldService {
	return &customFieldService{txManager: txManager, customFields: customFields, auditLog: auditLog}
}

// validateCFInput checks the handler is registered and the config parses
// for it. A select field with no options is rejected here, not at first
// use.
func validateCFInput(in *CustomFieldInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errValidation("custom field name must not be empty")
	}
	handler, err := HandlerFor(in.TypeHandler)
	if err != nil {
		return errValidation(err.Error())
	}
	cfg, err := handler.ParseConfig(in.Config)
	if err != nil {
		return errValidation(err.Error())
	}
	if (in.TypeHandler == models.CFTypeSelect || in.TypeHandler == models.CFTypeMultiselect) && len(cfg.Options) == 0 {
		return errValidation("select fields require at least one option")
	}
	return nil
}

func (s *customFieldService) ListCustomFields(ctx context.Context, actor Actor) ([]models.CustomField, error) {
	fields, err := s.customFields.ListByOwner(ctx, nil, models.OwnerTypeUser, actor.User.ID)
	if err != nil {
		return nil, errInternal("failed to list custom fields", err)
	}
	return fields, nil
}

func (s *customFieldService) getOwned(ctx context.Context, actor Actor, id uuid.UUID) (models.CustomField, error) {
	field, err := s.customFields.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CustomField{}, errNotFound("custom field")
		}
		return models.CustomField{}, errInternal("failed to load custom field", err)
	}
	if !actor.User.IsSuperuser && !(field.OwnerType == models.OwnerTypeUser && field.OwnerID == actor.User.ID) &&
		!(field.OwnerType == models.OwnerTypeGroup && actor.IsMemberOf(field.OwnerID)) {
		return models.CustomField{}, errForbidden("custom field belongs to another owner")
	}
	return field, nil
}

func (s *customFieldService) GetCustomField(ctx context.Context, actor Actor, id uuid.UUID) (models.CustomField, error) {
	return s.getOwned(ctx, actor, id)
}

func (s *customFieldService) CreateCustomField(ctx context.Context, actor Actor, in CustomFieldInput) (models.CustomField, error) {
	if err := validateCFInput(&in); err != nil {
		return models.CustomField{}, err
	}
	actorID := actor.User.ID
	field := models.CustomField{
		ID:          uuid.New(),
		Name:        in.Name,
		TypeHandler: in.TypeHandler,
		Config:      in.Config,
		OwnerType:   models.OwnerTypeUser,
		OwnerID:     actorID,
		CreatedBy:   &actorID,
		UpdatedBy:   &actorID,
	}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.customFields.Create(ctx, tx, &field); err != nil {
			return errInternal("failed to create custom field", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "custom_fields",
			RecordID:  field.ID,
			Operation: models.AuditOpInsert,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.CustomField{}, err
	}
	return field, nil
}

func (s *customFieldService) UpdateCustomField(ctx context.Context, actor Actor, id uuid.UUID, in CustomFieldInput) (models.CustomField, error) {
	field, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return models.CustomField{}, err
	}
	if in.TypeHandler == "" {
		in.TypeHandler = field.TypeHandler
	}
	if err := validateCFInput(&in); err != nil {
		return models.CustomField{}, err
	}
	actorID := actor.User.ID
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.customFields.Update(ctx, tx, id, map[string]interface{}{
			"name":         in.Name,
			"type_handler": in.TypeHandler,
			"config":       in.Config,
			"updated_by":   actorID,
		}); err != nil {
			return errInternal("failed to update custom field", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "custom_fields",
			RecordID:  id,
			Operation: models.AuditOpUpdate,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.CustomField{}, err
	}
	field.Name = in.Name
	field.TypeHandler = in.TypeHandler
	field.Config = in.Config
	return field, nil
}

func (s *customFieldService) DeleteCustomField(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return err
	}
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.customFields.Delete(ctx, tx, id); err != nil {
			return errInternal("failed to delete custom field", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "custom_fields",
			RecordID:  id,
			Operation: models.AuditOpDelete,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
}
