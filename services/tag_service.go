package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type TagInput struct {
	Name    string `json:"name"`
	BgColor string `json:"bg_color"`
	FgColor string `json:"fg_color"`
	Pinned  bool   `json:"pinned"`
}

type TagService interface {
	ListTags(ctx context.Context, actor Actor) ([]models.Tag, error)
	CreateTag(ctx context.Context, actor Actor, in TagInput) (models.Tag, error)
	UpdateTag(ctx context.Context, actor Actor, id uuid.UUID, in TagInput) (models.Tag, error)
	DeleteTag(ctx context.Context, actor Actor, id uuid.UUID) error
}

type tagService struct {
	txManager TxManager
	tags      repositories.TagRepository
	auditLog  repositories.AuditLogRepository
}

func NewTagService(txManager TxManager, tags repositories.TagRepository, auditLog repositories.AuditLogRepository) TagService {
	return &tagService{txManager: txManager, tags: tags, auditLog: auditLog}
}

func validateTagInput(in *TagInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errValidation("tag name must not be empty")
	}
	if in.BgColor == "" {
		in.BgColor = "#c41fff"
	}
	if in.FgColor == "" {
		in.FgColor = "#ffffff"
	}
	if !colorPattern.MatchString(in.BgColor) || !colorPattern.MatchString(in.FgColor) {
		return errValidation("tag colors must be #rrggbb")
	}
	return nil
}

func (s *tagService) ListTags(ctx context.Context, actor Actor) ([]models.Tag, error) {
	tags, err := s.tags.ListByOwner(ctx, nil, models.OwnerTypeUser, actor.User.ID)
	if err != nil {
		return nil, errInternal("failed to list tags", err)
	}
	return tags, nil
}

func (s *tagService) CreateTag(ctx context.Context, actor Actor, in TagInput) (models.Tag, error) {
	if err := validateTagInput(&in); err != nil {
		return models.Tag{}, err
	}
	actorID := actor.User.ID
	tag := models.Tag{
		ID:        uuid.New(),
		Name:      in.Name,
		BgColor:   in.BgColor,
		FgColor:   in.FgColor,
		Pinned:    in.Pinned,
		OwnerType: models.OwnerTypeUser,
		OwnerID:   actorID,
		CreatedBy: &actorID,
		UpdatedBy: &actorID,
	}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.tags.Create(ctx, tx, &tag); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errConflict("tag with this name already exists")
			}
			return errInternal("failed to create tag", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "tags",
			RecordID:  tag.ID,
			Operation: models.AuditOpInsert,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.Tag{}, err
	}
	return tag, nil
}

func (s *tagService) getOwned(ctx context.Context, actor Actor, id uuid.UUID) (models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Tag{}, errNotFound("tag")
		}
		return models.Tag{}, errInternal("failed to load tag", err)
	}
	if !actor.User.IsSuperuser && !(tag.OwnerType == models.OwnerTypeUser && tag.OwnerID == actor.User.ID) &&
		!(tag.OwnerType == models.OwnerTypeGroup && actor.IsMemberOf(tag.OwnerID)) {
		return models.Tag{}, errForbidden("tag belongs to another owner")
	}
	return tag, nil
}

func (s *tagService) UpdateTag(ctx context.Context, actor Actor, id uuid.UUID, in TagInput) (models.Tag, error) {
	tag, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return models.Tag{}, err
	}
	if err := validateTagInput(&in); err != nil {
		return models.Tag{}, err
	}
	actorID := actor.User.ID
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.tags.Update(ctx, tx, id, map[string]interface{}{
			"name":       in.Name,
			"bg_color":   in.BgColor,
			"fg_color":   in.FgColor,
			"pinned":     in.Pinned,
			"updated_by": actorID,
		}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errConflict("tag with this name already exists")
			}
			return errInternal("failed to update tag", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "tags",
			RecordID:  id,
			Operation: models.AuditOpUpdate,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.Tag{}, err
	}
	tag.Name = in.Name
	tag.BgColor = in.BgColor
	tag.FgColor = in.FgColor
	tag.Pinned = in.Pinned
	return tag, nil
}

func (s *tagService) DeleteTag(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return err
	}
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.tags.Delete(ctx, tx, id); err != nil {
			return errInternal("failed to delete tag", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "tags",
			RecordID:  id,
			Operation: models.AuditOpDelete,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
}
