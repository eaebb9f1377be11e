package services

import (
	"context"
	"errors"

	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SharingService interface {
	// CreateSharedNodes grants role(s) on node(s) to user(s) and
	// group(s): the full cartesian product of the three id lists.
	CreateSharedNodes(ctx context.Context, actor Actor, nodeIDs, userIDs, groupIDs, roleIDs []uuid.UUID) (int64, error)
	ListSharedNodes(ctx context.Context, actor Actor, nodeID uuid.UUID) ([]models.SharedNode, error)
	DeleteSharedNode(ctx context.Context, actor Actor, id uuid.UUID) error

	// HasPerm reports whether the actor may perform codename on the
	// node: superusers always may, owners always may, otherwise a grant
	// on the node or any ancestor must carry a role with the codename.
	HasPerm(ctx context.Context, actor Actor, nodeID uuid.UUID, codename string) (bool, error)
}

type sharingService struct {
	txManager TxManager
	nodes     repositories.NodeRepository
	shared    repositories.SharedNodeRepository
	users     repositories.UserRepository
	auditLog  repositories.AuditLogRepository
}

func NewSharingService(
	txManager TxManager,
	nodes repositories.NodeRepository,
	shared repositories.SharedNodeRepository,
	users repositories.UserRepository,
	auditLog repositories.AuditLogRepository,
) SharingService {
	return &sharingService{
		txManager: txManager,
		nodes:     nodes,
		shared:    shared,
		users:     users,
		auditLog:  auditLog,
	}
}

func (s *sharingService) CreateSharedNodes(ctx context.Context, actor Actor, nodeIDs, userIDs, groupIDs, roleIDs []uuid.UUID) (int64, error) {
	if len(nodeIDs) == 0 || len(roleIDs) == 0 {
		return 0, errValidation("node_ids and role_ids must not be empty")
	}
	if len(userIDs) == 0 && len(groupIDs) == 0 {
		return 0, errValidation("at least one user or group is required")
	}

	for _, nodeID := range nodeIDs {
		if err := s.requireOwner(ctx, actor, nodeID); err != nil {
			return 0, err
		}
	}
	for _, roleID := range roleIDs {
		if _, err := s.users.GetRoleByID(ctx, nil, roleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, errNotFound("role")
			}
			return 0, errInternal("failed to load role", err)
		}
	}

	var grants []models.SharedNode
	for _, nodeID := range nodeIDs {
		for _, roleID := range roleIDs {
			for _, userID := range userIDs {
				uid := userID
				grants = append(grants, models.SharedNode{
					ID:      uuid.New(),
					NodeID:  nodeID,
					UserID:  &uid,
					RoleID:  roleID,
					OwnerID: actor.User.ID,
				})
			}
			for _, groupID := range groupIDs {
				gid := groupID
				grants = append(grants, models.SharedNode{
					ID:      uuid.New(),
					NodeID:  nodeID,
					GroupID: &gid,
					RoleID:  roleID,
					OwnerID: actor.User.ID,
				})
			}
		}
	}

	var created int64
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		n, err := s.shared.CreateGrants(ctx, tx, grants)
		if err != nil {
			return errInternal("failed to create shared nodes", err)
		}
		created = n
		for _, nodeID := range nodeIDs {
			if err := s.auditLog.Insert(ctx, tx, &models.AuditLog{
				Table:     "shared_nodes",
				RecordID:  nodeID,
				Operation: models.AuditOpInsert,
				Timestamp: nowUTC(),
				UserID:    auditActor(ctx),
				Username:  auditUsername(ctx),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *sharingService) ListSharedNodes(ctx context.Context, actor Actor, nodeID uuid.UUID) ([]models.SharedNode, error) {
	if err := s.requireOwner(ctx, actor, nodeID); err != nil {
		return nil, err
	}
	grants, err := s.shared.ListByNode(ctx, nil, nodeID)
	if err != nil {
		return nil, errInternal("failed to list shared nodes", err)
	}
	return grants, nil
}

func (s *sharingService) DeleteSharedNode(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.shared.Delete(ctx, tx, id); err != nil {
			return errInternal("failed to delete shared node", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "shared_nodes",
			RecordID:  id,
			Operation: models.AuditOpDelete,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
}

// requireOwner allows superusers and the owner of the node's subtree.
func (s *sharingService) requireOwner(ctx context.Context, actor Actor, nodeID uuid.UUID) error {
	if actor.User.IsSuperuser {
		return nil
	}
	own, err := s.nodes.OwnerOf(ctx, nil, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound("node")
		}
		return errInternal("failed to resolve node owner", err)
	}
	if !actor.Owns(own) {
		return errForbidden("only the owner may manage sharing")
	}
	return nil
}

func (s *sharingService) HasPerm(ctx context.Context, actor Actor, nodeID uuid.UUID, codename string) (bool, error) {
	return nodePerm(ctx, s.nodes, s.shared, actor, nodeID, codename)
}
